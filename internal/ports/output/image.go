package output

import (
	"context"

	"github.com/jobrunner/picta/internal/domain"
)

// ImageInspector defines the secondary port for image format inspection.
type ImageInspector interface {
	// DetectFormat sniffs the header and returns a short format name (png, jpeg, ...).
	DetectFormat(data []byte) string

	// PNGDimensions decodes the PNG header and returns the image size.
	PNGDimensions(data []byte) (domain.Dimensions, error)
}

// PageRenderer defines the secondary port for HTML page rendering.
type PageRenderer interface {
	// Render fills the page template for an image.
	Render(storeName, imageKey string, dims domain.Dimensions) (string, error)
}

// MapProvider defines the secondary port for the static map service.
type MapProvider interface {
	// URL builds the provider URL for a map centered on coord.
	URL(coord domain.Coordinate, zoom int) string

	// Fetch downloads the map image.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
