// Package output defines the secondary/driven ports of the application.
package output

import (
	"context"

	"github.com/jobrunner/picta/internal/domain"
)

// ObjectStore defines the secondary port for object storage.
// The application only ever creates objects.
type ObjectStore interface {
	// Put writes an object and returns its public location.
	Put(ctx context.Context, in PutObjectInput) (domain.StoredObject, error)

	// Name returns the store identifier (bucket, container, directory).
	Name() string

	// URL returns the public URL for a key.
	URL(key string) string
}

// PutObjectInput describes an object to create.
type PutObjectInput struct {
	Key                string // Object key, relative to the store prefix
	Body               []byte
	ContentType        string
	ContentDisposition string
	Public             bool // Grant anonymous read access
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeAzure StorageType = "azure"
	StorageTypeHTTP  StorageType = "http"
	StorageTypeLocal StorageType = "local"
)
