package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jobrunner/picta/internal/domain"
	"github.com/jobrunner/picta/internal/ports/output"
)

// LocalStore implements ObjectStore for the local filesystem. Objects are
// expected to be served by the HTTP server or a reverse proxy under BaseURL.
type LocalStore struct {
	basePath string
	baseURL  string
	prefix   string
}

// LocalConfig holds local storage configuration.
type LocalConfig struct {
	Path    string
	BaseURL string
	Prefix  string
}

// NewLocalStore creates a new local storage adapter.
func NewLocalStore(cfg LocalConfig) *LocalStore {
	return &LocalStore{
		basePath: cfg.Path,
		baseURL:  cfg.BaseURL,
		prefix:   cfg.Prefix,
	}
}

// Name returns the base directory.
func (s *LocalStore) Name() string {
	return s.basePath
}

// URL returns the public URL for a key.
func (s *LocalStore) URL(key string) string {
	return joinURL(s.baseURL, joinKey(s.prefix, key))
}

// Put writes an object to disk. The file is written to a temporary name
// first and renamed into place.
func (s *LocalStore) Put(ctx context.Context, in output.PutObjectInput) (domain.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredObject{}, err
	}

	dest := s.FullPath(in.Key)
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return domain.StoredObject{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return domain.StoredObject{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(in.Body); err != nil {
		_ = tmp.Close()
		return domain.StoredObject{}, err
	}
	if err := tmp.Close(); err != nil {
		return domain.StoredObject{}, err
	}

	perm := os.FileMode(0600)
	if in.Public {
		perm = 0644
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return domain.StoredObject{}, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return domain.StoredObject{}, err
	}

	return domain.StoredObject{
		Key:         in.Key,
		URL:         s.URL(in.Key),
		ContentType: in.ContentType,
		Size:        int64(len(in.Body)),
	}, nil
}

// FullPath returns the full path for a key.
func (s *LocalStore) FullPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(joinKey(s.prefix, key)))
}
