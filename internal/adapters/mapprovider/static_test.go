package mapprovider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jobrunner/picta/internal/domain"
)

func TestStaticProviderURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "default template",
			cfg:  Config{},
			want: "https://staticmap.openstreetmap.de/staticmap.php?center=45.000000,-90.000000&zoom=7&size=600x400&maptype=mapnik",
		},
		{
			name: "custom template",
			cfg: Config{
				URLTemplate: "https://maps.example/{zoom}/{lat}/{lon}.png?s={width}x{height}",
				Width:       256,
				Height:      128,
			},
			want: "https://maps.example/7/45.000000/-90.000000.png?s=256x128",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewStaticProvider(tt.cfg)
			got := p.URL(domain.NewCoordinate(45, -90), 7)
			if got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStaticProviderFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG map"))
	}))
	defer srv.Close()

	p := NewStaticProvider(Config{UserAgent: "picta-test"})
	data, err := p.Fetch(context.Background(), srv.URL+"/map.png")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "\x89PNG map" {
		t.Errorf("Fetch() = %q", data)
	}
	if gotUA != "picta-test" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "picta-test")
	}
}

func TestStaticProviderFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewStaticProvider(Config{}).Fetch(context.Background(), srv.URL)

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *domain.UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want %d", upstream.StatusCode, http.StatusTooManyRequests)
	}
	if !errors.Is(err, domain.ErrMapFetchFailed) {
		t.Error("error should match ErrMapFetchFailed")
	}
}

func TestStaticProviderFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewStaticProvider(Config{Timeout: time.Second}).Fetch(context.Background(), url)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestStaticProviderFetchTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, err := NewStaticProvider(Config{MaxBytes: 16}).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrMapFetchFailed) {
		t.Errorf("error = %v, want ErrMapFetchFailed", err)
	}
}

func TestStaticProviderRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p := NewStaticProvider(Config{Rate: 0.001, Burst: 1})

	if _, err := p.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := p.Fetch(ctx, srv.URL); !errors.Is(err, domain.ErrMapFetchFailed) {
		t.Errorf("second Fetch() error = %v, want rate limited ErrMapFetchFailed", err)
	}
}
