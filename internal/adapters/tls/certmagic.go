// Package tls provides TLS configuration using CertMagic.
package tls

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/libdns/azure"
)

// Config holds TLS configuration.
type Config struct {
	Domains      []string
	Email        string
	CacheDir     string
	Staging      bool   // Use Let's Encrypt staging environment
	HTTPAddr     string // Listener for HTTP-01 challenges and redirects, default ":80"
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DNS          DNSConfig
}

// DNSConfig holds Azure DNS provider configuration for DNS-01 challenges.
type DNSConfig struct {
	SubscriptionID    string
	ResourceGroupName string
	ClientID          string // User Assigned Managed Identity client ID (optional)
}

func (c DNSConfig) enabled() bool {
	return c.SubscriptionID != "" && c.ResourceGroupName != ""
}

// Server serves a handler over HTTPS with certificates managed by CertMagic.
type Server struct {
	config  Config
	handler http.Handler
	logger  *slog.Logger
	magic   *certmagic.Config
	issuer  *certmagic.ACMEIssuer

	mu      sync.Mutex
	servers []*http.Server
}

// NewServer creates a new TLS server. No certificates are requested until
// ManageCertificates or the first handshake.
func NewServer(cfg Config, handler http.Handler, logger *slog.Logger) (*Server, error) {
	if len(cfg.Domains) == 0 {
		return nil, errors.New("TLS enabled but no domains specified")
	}
	if cfg.Email == "" {
		return nil, errors.New("TLS enabled but no email specified")
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":80"
	}

	magic := certmagic.NewDefault()
	if cfg.CacheDir != "" {
		magic.Storage = &certmagic.FileStorage{Path: cfg.CacheDir}
	}

	template := certmagic.ACMEIssuer{
		CA:     certmagic.LetsEncryptProductionCA,
		Email:  cfg.Email,
		Agreed: true,
	}
	if cfg.Staging {
		template.CA = certmagic.LetsEncryptStagingCA
	}

	if cfg.DNS.enabled() {
		template.DNS01Solver = &certmagic.DNS01Solver{
			DNSManager: certmagic.DNSManager{
				DNSProvider: &azure.Provider{
					SubscriptionId:    cfg.DNS.SubscriptionID,
					ResourceGroupName: cfg.DNS.ResourceGroupName,
					ClientId:          cfg.DNS.ClientID, // Empty = System Assigned Managed Identity
				},
			},
		}
	}

	issuer := certmagic.NewACMEIssuer(magic, template)
	magic.Issuers = []certmagic.Issuer{issuer}

	return &Server{
		config:  cfg,
		handler: handler,
		logger:  logger,
		magic:   magic,
		issuer:  issuer,
	}, nil
}

// ListenAndServe serves HTTPS on addr. Unless DNS-01 is configured, a plain
// HTTP listener answers ACME challenges and redirects everything else.
func (s *Server) ListenAndServe(addr string) error {
	httpsServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		TLSConfig:         s.TLSConfig(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}
	s.track(httpsServer)

	errCh := make(chan error, 2)

	if !s.config.DNS.enabled() {
		httpServer := &http.Server{
			Addr:              s.config.HTTPAddr,
			Handler:           s.issuer.HTTPChallengeHandler(http.HandlerFunc(redirectToHTTPS)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		s.track(httpServer)

		s.logger.Info("starting HTTP challenge listener", "address", s.config.HTTPAddr)
		go func() { errCh <- httpServer.ListenAndServe() }()
	}

	s.logger.Info("starting HTTPS server",
		"address", addr,
		"domains", s.config.Domains,
		"dns01", s.config.DNS.enabled(),
	)
	go func() { errCh <- httpsServer.ListenAndServeTLS("", "") }()

	return <-errCh
}

// Shutdown gracefully shuts down all listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	servers := s.servers
	s.mu.Unlock()

	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TLSConfig returns the TLS configuration.
func (s *Server) TLSConfig() *tls.Config {
	tlsConfig := s.magic.TLSConfig()
	tlsConfig.NextProtos = append([]string{"h2", "http/1.1"}, tlsConfig.NextProtos...)
	return tlsConfig
}

// ManageCertificates pre-obtains certificates for the configured domains.
func (s *Server) ManageCertificates(ctx context.Context) error {
	s.logger.Info("obtaining certificates", "domains", s.config.Domains)

	if err := s.magic.ManageSync(ctx, s.config.Domains); err != nil {
		return fmt.Errorf("managing certificates: %w", err)
	}

	s.logger.Info("certificates obtained successfully")
	return nil
}

func (s *Server) track(srv *http.Server) {
	s.mu.Lock()
	s.servers = append(s.servers, srv)
	s.mu.Unlock()
}

func redirectToHTTPS(w http.ResponseWriter, r *http.Request) {
	target := "https://" + r.Host + r.URL.RequestURI()
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}
