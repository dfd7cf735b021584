package application

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jobrunner/picta/internal/domain"
	"github.com/jobrunner/picta/internal/ports/output"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockStore implements output.ObjectStore for testing.
type mockStore struct {
	mu      sync.Mutex
	objects map[string]output.PutObjectInput
	order   []string
	failKey string // Put fails for this key suffix
	putErr  error
}

func newMockStore() *mockStore {
	return &mockStore{objects: make(map[string]output.PutObjectInput)}
}

func (m *mockStore) Put(_ context.Context, in output.PutObjectInput) (domain.StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.putErr != nil && (m.failKey == "" || hasSuffix(in.Key, m.failKey)) {
		return domain.StoredObject{}, m.putErr
	}

	m.objects[in.Key] = in
	m.order = append(m.order, in.Key)
	return domain.StoredObject{
		Key:         in.Key,
		URL:         m.URL(in.Key),
		ContentType: in.ContentType,
		Size:        int64(len(in.Body)),
	}, nil
}

func (m *mockStore) Name() string {
	return "test-bucket"
}

func (m *mockStore) URL(key string) string {
	return "https://store.example/test-bucket/" + key
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// mockInspector implements output.ImageInspector for testing.
type mockInspector struct {
	format  string
	dims    domain.Dimensions
	dimsErr error
}

func (m *mockInspector) DetectFormat(_ []byte) string {
	return m.format
}

func (m *mockInspector) PNGDimensions(_ []byte) (domain.Dimensions, error) {
	if m.dimsErr != nil {
		return domain.Dimensions{}, m.dimsErr
	}
	return m.dims, nil
}

// mockRenderer implements output.PageRenderer for testing.
type mockRenderer struct {
	err       error
	storeName string
	imageKey  string
	dims      domain.Dimensions
}

func (m *mockRenderer) Render(storeName, imageKey string, dims domain.Dimensions) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.storeName = storeName
	m.imageKey = imageKey
	m.dims = dims
	return "<img src=\"" + imageKey + "\">", nil
}

// mockProvider implements output.MapProvider for testing.
type mockProvider struct {
	data     []byte
	fetchErr error
	coord    domain.Coordinate
	zoom     int
}

func (m *mockProvider) URL(coord domain.Coordinate, zoom int) string {
	m.coord = coord
	m.zoom = zoom
	return "https://maps.example/static?center=" + coord.LatString() + "," + coord.LonString()
}

func (m *mockProvider) Fetch(_ context.Context, _ string) ([]byte, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.data, nil
}

// mockMetrics records calls for assertions.
type mockMetrics struct {
	output.NoOpMetrics
	uploads    map[bool]int
	mapFetches map[bool]int
	storageOps map[bool]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		uploads:    make(map[bool]int),
		mapFetches: make(map[bool]int),
		storageOps: make(map[bool]int),
	}
}

func (m *mockMetrics) IncUploads(success bool)                 { m.uploads[success]++ }
func (m *mockMetrics) IncMapFetches(success bool)              { m.mapFetches[success]++ }
func (m *mockMetrics) IncStorageOperations(_ string, ok bool)  { m.storageOps[ok]++ }
func (m *mockMetrics) ObserveMapFetchDuration(_ time.Duration) {}

var errBoom = errors.New("boom")
