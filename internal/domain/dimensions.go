package domain

import "fmt"

// DefaultMaxDimension is the bound applied when an upload does not specify one.
const DefaultMaxDimension = 100

// Dimensions holds the pixel size of an image.
type Dimensions struct {
	Width  int
	Height int
}

// Validate checks that both sides are positive.
func (d Dimensions) Validate() error {
	if d.Width <= 0 {
		return &ValidationError{
			Field:      "width",
			Value:      d.Width,
			Constraint: "> 0",
			Message:    "width must be positive",
		}
	}
	if d.Height <= 0 {
		return &ValidationError{
			Field:      "height",
			Value:      d.Height,
			Constraint: "> 0",
			Message:    "height must be positive",
		}
	}
	return nil
}

// String returns the dimensions as WIDTHxHEIGHT.
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// ValidateMaxDimension checks a scaling bound.
func ValidateMaxDimension(maxDimension int) error {
	if maxDimension <= 0 {
		return &ValidationError{
			Field:      "max_scale_dimension",
			Value:      maxDimension,
			Constraint: "> 0",
			Message:    "max_scale_dimension must be a positive integer",
			Err:        ErrInvalidDimension,
		}
	}
	return nil
}

// Scale fits d into a maxDimension square while keeping the aspect ratio.
// Images that already fit are never upscaled. The shorter side is floored
// and clamped to 1 pixel.
func (d Dimensions) Scale(maxDimension int) (Dimensions, error) {
	if err := ValidateMaxDimension(maxDimension); err != nil {
		return Dimensions{}, err
	}

	if d.Width <= maxDimension && d.Height <= maxDimension {
		return d, nil
	}

	if d.Width == d.Height {
		return Dimensions{Width: maxDimension, Height: maxDimension}, nil
	}

	if d.Width > d.Height {
		return Dimensions{
			Width:  maxDimension,
			Height: scaleSide(d.Height, maxDimension, d.Width),
		}, nil
	}

	return Dimensions{
		Width:  scaleSide(d.Width, maxDimension, d.Height),
		Height: maxDimension,
	}, nil
}

func scaleSide(smaller, maxDimension, larger int) int {
	// int64 keeps smaller*maxDimension from overflowing on 32-bit platforms.
	v := int(int64(smaller) * int64(maxDimension) / int64(larger))
	if v < 1 {
		return 1
	}
	return v
}
