package tls

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, cfg Config) (*Server, error) {
	t.Helper()
	cfg.CacheDir = t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, http.NotFoundHandler(), logger)
}

func TestNewServerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no domains", Config{Email: "ops@example.com"}},
		{"no email", Config{Domains: []string{"picta.example.com"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newTestServer(t, tt.cfg); err == nil {
				t.Error("NewServer() should fail")
			}
		})
	}
}

func TestNewServerChallengeSelection(t *testing.T) {
	tests := []struct {
		name    string
		dns     DNSConfig
		wantDNS bool
	}{
		{"http-01 by default", DNSConfig{}, false},
		{"dns-01 with azure", DNSConfig{SubscriptionID: "sub", ResourceGroupName: "rg"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := newTestServer(t, Config{
				Domains: []string{"picta.example.com"},
				Email:   "ops@example.com",
				Staging: true,
				DNS:     tt.dns,
			})
			if err != nil {
				t.Fatalf("NewServer() error = %v", err)
			}

			if (s.issuer.DNS01Solver != nil) != tt.wantDNS {
				t.Errorf("DNS01Solver set = %v, want %v", s.issuer.DNS01Solver != nil, tt.wantDNS)
			}
			if s.config.HTTPAddr != ":80" {
				t.Errorf("HTTPAddr = %q, want :80", s.config.HTTPAddr)
			}
			if s.TLSConfig().GetCertificate == nil {
				t.Error("TLSConfig() should provide GetCertificate")
			}
		})
	}
}

func TestRedirectToHTTPS(t *testing.T) {
	rec := httptest.NewRecorder()
	redirectToHTTPS(rec, httptest.NewRequest(http.MethodGet, "http://picta.example.com/status?x=1", nil))

	if rec.Code != http.StatusMovedPermanently {
		t.Errorf("status = %d, want 301", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "https://picta.example.com/status?x=1" {
		t.Errorf("Location = %q", got)
	}
}
