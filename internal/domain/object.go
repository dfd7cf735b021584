package domain

// Content types written to the object store.
const (
	ContentTypePNG  = "image/png"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// DispositionInline asks browsers to render an object instead of downloading it.
const DispositionInline = "inline"

// Object key extensions.
const (
	ExtPNG  = ".png"
	ExtHTML = ".html"
)

// StoredObject describes an object after it was written to the store.
type StoredObject struct {
	Key         string // Key relative to the store's prefix
	URL         string // Public URL
	ContentType string
	Size        int64
}

// UploadResult is returned by the PNG upload operation.
type UploadResult struct {
	PNGURL  string `json:"png_url"`
	HTMLURL string `json:"html_url"`

	ImageKey   string     `json:"-"`
	PageKey    string     `json:"-"`
	Original   Dimensions `json:"-"`
	Scaled     Dimensions `json:"-"`
	StoredSize int64      `json:"-"`
}

// MapResult is returned by the map fetch operation.
type MapResult struct {
	ServiceURL string `json:"service_url"`
	StoreURL   string `json:"s3_url"`

	Key        string     `json:"-"`
	Coordinate Coordinate `json:"-"`
	Zoom       int        `json:"-"`
}

// ImageKey returns the object key for an image with the given id.
func ImageKey(id string) string {
	return id + ExtPNG
}

// PageKey returns the object key for an HTML page with the given id.
func PageKey(id string) string {
	return id + ExtHTML
}
