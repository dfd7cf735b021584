package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/jobrunner/picta/internal/domain"
	"github.com/jobrunner/picta/internal/ports/output"
)

// MapServiceConfig holds map service configuration.
type MapServiceConfig struct {
	Zoom     int
	Location *time.Location // Clock location for the longitude, time.Local when nil
}

// MapService snapshots a static map centered on a caller's pseudo-location.
type MapService struct {
	publisher
	provider output.MapProvider
	logger   *slog.Logger
	config   MapServiceConfig
	now      func() time.Time
	newID    IDGenerator
}

// NewMapService creates a new map service.
func NewMapService(
	provider output.MapProvider,
	store output.ObjectStore,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	cfg MapServiceConfig,
) *MapService {
	if cfg.Zoom == 0 {
		cfg.Zoom = domain.DefaultMapZoom
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &MapService{
		publisher: publisher{store: store, metrics: metrics},
		provider:  provider,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
		newID:     NewRandomID,
	}
}

// FetchMap downloads a map image for clientIP and stores it.
func (s *MapService) FetchMap(ctx context.Context, clientIP string) (*domain.MapResult, error) {
	coord, err := domain.ApproximateLocation(clientIP, s.now().In(s.config.Location))
	if err != nil {
		return nil, err
	}

	serviceURL := s.provider.URL(coord, s.config.Zoom)

	start := time.Now()
	data, err := s.provider.Fetch(ctx, serviceURL)
	s.metrics.ObserveMapFetchDuration(time.Since(start))
	s.metrics.IncMapFetches(err == nil)
	if err != nil {
		return nil, err
	}

	key := domain.ImageKey(s.newID())
	obj, err := s.put(ctx, key, data, domain.ContentTypePNG)
	if err != nil {
		return nil, err
	}

	s.logger.Info("map stored",
		"key", obj.Key,
		"client_ip", clientIP,
		"coordinate", coord.String(),
		"zoom", s.config.Zoom,
		"size", len(data),
	)

	return &domain.MapResult{
		ServiceURL: serviceURL,
		StoreURL:   obj.URL,
		Key:        obj.Key,
		Coordinate: coord,
		Zoom:       s.config.Zoom,
	}, nil
}
