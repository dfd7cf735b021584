package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read metrics: %v", err)
	}
	return string(body)
}

func TestCollectorRecords(t *testing.T) {
	c := NewCollector("test")

	c.IncUploads(true)
	c.IncUploads(false)
	c.ObserveUploadSize(2048)
	c.IncMapFetches(true)
	c.ObserveMapFetchDuration(150 * time.Millisecond)
	c.IncStorageOperations("put", true)
	c.ObserveStorageDuration("put", 10*time.Millisecond)

	out := scrape(t, c)

	for _, want := range []string{
		`test_uploads_total{status="success"} 1`,
		`test_uploads_total{status="error"} 1`,
		`test_upload_size_bytes_count 1`,
		`test_map_fetches_total{status="success"} 1`,
		`test_map_fetch_duration_seconds_count 1`,
		`test_storage_operations_total{operation="put",status="success"} 1`,
		`test_storage_duration_seconds_count{operation="put"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("")
	b := NewCollector("")

	a.IncUploads(true)

	if strings.Contains(scrape(t, b), `picta_uploads_total{status="success"}`) {
		t.Error("collectors should not share a registry")
	}
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	c := NewCollector("test")

	router := mux.NewRouter()
	router.Use(c.Middleware)
	router.HandleFunc("/png/{max}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}).Methods(http.MethodPost)

	for _, path := range []string{"/png/10", "/png/20"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	out := scrape(t, c)
	want := `test_http_requests_total{method="POST",path="/png/{max}",status="4xx"} 2`
	if !strings.Contains(out, want) {
		t.Errorf("metrics output missing %q", want)
	}
}

func TestStatusToString(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{302, "3xx"},
		{415, "4xx"},
		{502, "5xx"},
		{0, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := statusToString(tt.code); got != tt.want {
				t.Errorf("statusToString(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}
