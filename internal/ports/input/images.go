// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/picta/internal/domain"
)

// UploadService defines the primary port for PNG uploads.
type UploadService interface {
	// UploadPNG stores an image and its HTML page.
	UploadPNG(ctx context.Context, body []byte, maxDimension int) (*domain.UploadResult, error)
}

// MapService defines the primary port for static map snapshots.
type MapService interface {
	// FetchMap stores a map centered on the pseudo-location of clientIP.
	FetchMap(ctx context.Context, clientIP string) (*domain.MapResult, error)
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to accept requests.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy    bool              // Overall health status
	Ready      bool              // Ready to accept requests
	Storage    string            // Storage backend type
	Components map[string]string // Component statuses
}
