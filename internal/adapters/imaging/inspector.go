// Package imaging provides image format inspection.
package imaging

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jobrunner/picta/internal/domain"
)

// FormatEmpty is reported for a zero-length payload.
const FormatEmpty = "empty"

// Inspector implements ImageInspector using header sniffing and the PNG decoder.
type Inspector struct{}

// NewInspector creates a new image inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// DetectFormat returns a short format name for data, e.g. "png" or "jpeg".
// Animated PNG is reported as "png".
func (i *Inspector) DetectFormat(data []byte) string {
	if len(data) == 0 {
		return FormatEmpty
	}

	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("image/png") {
			return "png"
		}
	}

	return formatName(detected.String())
}

// PNGDimensions decodes the PNG header of data.
func (i *Inspector) PNGDimensions(data []byte) (domain.Dimensions, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("%w: %v", domain.ErrMalformedImage, err)
	}

	dims := domain.Dimensions{Width: cfg.Width, Height: cfg.Height}
	if err := dims.Validate(); err != nil {
		return domain.Dimensions{}, fmt.Errorf("%w: %v", domain.ErrMalformedImage, err)
	}

	return dims, nil
}

// formatName turns a MIME type into a short name: "image/jpeg" -> "jpeg".
func formatName(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}
	mimeType = strings.TrimSpace(mimeType)

	if name, ok := strings.CutPrefix(mimeType, "image/"); ok {
		name = strings.TrimPrefix(name, "x-")
		name = strings.TrimPrefix(name, "vnd.")
		return name
	}
	return mimeType
}
