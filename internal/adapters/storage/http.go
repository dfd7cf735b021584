package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jobrunner/picta/internal/domain"
	"github.com/jobrunner/picta/internal/ports/output"
)

// HTTPStore implements ObjectStore with HTTP PUT requests, for WebDAV
// servers and presigned gateways.
type HTTPStore struct {
	client        *http.Client
	baseURL       string
	publicBaseURL string
	prefix        string
	username      string
	password      string
}

// HTTPConfig holds HTTP storage configuration.
type HTTPConfig struct {
	BaseURL       string // Upload endpoint
	PublicBaseURL string // Defaults to BaseURL
	Prefix        string
	Timeout       time.Duration
	Username      string
	Password      string
}

// NewHTTPStore creates a new HTTP storage adapter.
func NewHTTPStore(cfg HTTPConfig) *HTTPStore {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = cfg.BaseURL
	}

	return &HTTPStore{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		prefix:        cfg.Prefix,
		username:      cfg.Username,
		password:      cfg.Password,
	}
}

// Name returns the upload endpoint.
func (s *HTTPStore) Name() string {
	return s.baseURL
}

// URL returns the public URL for a key.
func (s *HTTPStore) URL(key string) string {
	return joinURL(s.publicBaseURL, joinKey(s.prefix, key))
}

// Put uploads an object with a single PUT request.
func (s *HTTPStore) Put(ctx context.Context, in output.PutObjectInput) (domain.StoredObject, error) {
	fileURL := joinURL(s.baseURL, joinKey(s.prefix, in.Key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fileURL, bytes.NewReader(in.Body))
	if err != nil {
		return domain.StoredObject{}, err
	}

	req.ContentLength = int64(len(in.Body))
	req.Header.Set("Content-Type", in.ContentType)
	req.Header.Set("Content-Length", strconv.Itoa(len(in.Body)))
	if in.ContentDisposition != "" {
		req.Header.Set("Content-Disposition", in.ContentDisposition)
	}

	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.StoredObject{}, fmt.Errorf("uploading %s: %w", in.Key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.StoredObject{}, fmt.Errorf("upload returned status %d for %s", resp.StatusCode, in.Key)
	}

	return domain.StoredObject{
		Key:         in.Key,
		URL:         s.URL(in.Key),
		ContentType: in.ContentType,
		Size:        int64(len(in.Body)),
	}, nil
}
