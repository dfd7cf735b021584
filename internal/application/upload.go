package application

import (
	"context"
	"log/slog"

	"github.com/jobrunner/picta/internal/domain"
	"github.com/jobrunner/picta/internal/ports/output"
)

// UploadService stores uploaded PNG images together with an HTML page.
type UploadService struct {
	publisher
	inspector output.ImageInspector
	renderer  output.PageRenderer
	logger    *slog.Logger
	newID     IDGenerator
}

// NewUploadService creates a new upload service.
func NewUploadService(
	store output.ObjectStore,
	inspector output.ImageInspector,
	renderer output.PageRenderer,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		publisher: publisher{store: store, metrics: metrics},
		inspector: inspector,
		renderer:  renderer,
		logger:    logger,
		newID:     NewRandomID,
	}
}

// UploadPNG validates body as PNG, stores it, renders a page showing it at
// a size bounded by maxDimension and stores the page next to it.
//
// The image is written before its dimensions are parsed and before the page
// is rendered, so a failure in a later step leaves the image in the store.
func (s *UploadService) UploadPNG(ctx context.Context, body []byte, maxDimension int) (result *domain.UploadResult, err error) {
	defer func() {
		s.metrics.IncUploads(err == nil)
	}()

	if err := domain.ValidateMaxDimension(maxDimension); err != nil {
		return nil, err
	}

	if format := s.inspector.DetectFormat(body); format != "png" {
		return nil, &domain.FormatError{Detected: format, Expected: "png"}
	}
	s.metrics.ObserveUploadSize(len(body))

	id := s.newID()
	imageKey := domain.ImageKey(id)
	pageKey := domain.PageKey(id)

	image, err := s.put(ctx, imageKey, body, domain.ContentTypePNG)
	if err != nil {
		return nil, err
	}

	dims, err := s.inspector.PNGDimensions(body)
	if err != nil {
		s.logger.Warn("stored image could not be decoded",
			"key", imageKey,
			"error", err,
		)
		return nil, err
	}

	scaled, err := dims.Scale(maxDimension)
	if err != nil {
		return nil, err
	}

	html, err := s.renderer.Render(s.store.Name(), imageKey, scaled)
	if err != nil {
		s.logger.Error("page rendering failed, image left without page",
			"key", imageKey,
			"error", err,
		)
		return nil, err
	}

	page, err := s.put(ctx, pageKey, []byte(html), domain.ContentTypeHTML)
	if err != nil {
		s.logger.Error("page upload failed, image left without page",
			"key", imageKey,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("image published",
		"image_key", image.Key,
		"page_key", page.Key,
		"size", len(body),
		"dimensions", dims.String(),
		"scaled", scaled.String(),
	)

	return &domain.UploadResult{
		PNGURL:     image.URL,
		HTMLURL:    page.URL,
		ImageKey:   image.Key,
		PageKey:    page.Key,
		Original:   dims,
		Scaled:     scaled,
		StoredSize: int64(len(body)),
	}, nil
}
