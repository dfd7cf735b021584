// Package application contains the application services.
package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jobrunner/picta/internal/domain"
	"github.com/jobrunner/picta/internal/ports/output"
)

// IDGenerator returns a fresh object id.
type IDGenerator func() string

// NewRandomID returns a random UUID string. Keys are not checked against the
// store before use.
func NewRandomID() string {
	return uuid.NewString()
}

// publisher writes public, inline objects and records storage metrics.
type publisher struct {
	store   output.ObjectStore
	metrics output.MetricsCollector
}

// put stores body under key with the given content type.
func (p *publisher) put(ctx context.Context, key string, body []byte, contentType string) (domain.StoredObject, error) {
	start := time.Now()

	obj, err := p.store.Put(ctx, output.PutObjectInput{
		Key:                key,
		Body:               body,
		ContentType:        contentType,
		ContentDisposition: domain.DispositionInline,
		Public:             true,
	})

	p.metrics.ObserveStorageDuration("put", time.Since(start))
	p.metrics.IncStorageOperations("put", err == nil)

	if err != nil {
		return domain.StoredObject{}, &domain.StorageError{
			Operation: "put",
			Key:       key,
			Err:       err,
		}
	}

	return obj, nil
}
