// Package mapprovider fetches rendered map images from a static map service.
package mapprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jobrunner/picta/internal/domain"
)

// DefaultURLTemplate points at the OpenStreetMap static map renderer.
const DefaultURLTemplate = "https://staticmap.openstreetmap.de/staticmap.php?center={lat},{lon}&zoom={zoom}&size={width}x{height}&maptype=mapnik"

// Config holds static map provider configuration.
type Config struct {
	URLTemplate string // Placeholders: {lat} {lon} {zoom} {width} {height}
	Width       int
	Height      int
	Timeout     time.Duration
	UserAgent   string
	MaxBytes    int64
	Rate        float64 // Requests per second, 0 disables limiting
	Burst       int
}

// StaticProvider implements MapProvider over HTTP.
type StaticProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	config  Config
}

// NewStaticProvider creates a new static map provider.
func NewStaticProvider(cfg Config) *StaticProvider {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultURLTemplate
	}
	if cfg.Width == 0 {
		cfg.Width = 600
	}
	if cfg.Height == 0 {
		cfg.Height = 400
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "picta/1.0"
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}

	return &StaticProvider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		config:  cfg,
	}
}

// URL builds the provider URL for a map centered on coord.
func (p *StaticProvider) URL(coord domain.Coordinate, zoom int) string {
	return strings.NewReplacer(
		"{lat}", coord.LatString(),
		"{lon}", coord.LonString(),
		"{zoom}", strconv.Itoa(zoom),
		"{width}", strconv.Itoa(p.config.Width),
		"{height}", strconv.Itoa(p.config.Height),
	).Replace(p.config.URLTemplate)
}

// Fetch downloads the map image. Failures are not retried.
func (p *StaticProvider) Fetch(ctx context.Context, url string) ([]byte, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, &domain.UpstreamError{URL: url, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.UpstreamError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.config.MaxBytes+1))
	if err != nil {
		return nil, &domain.UpstreamError{URL: url, Err: err}
	}
	if int64(len(data)) > p.config.MaxBytes {
		return nil, &domain.UpstreamError{
			URL: url,
			Err: fmt.Errorf("response exceeds %d bytes", p.config.MaxBytes),
		}
	}

	return data, nil
}
