// Package template renders the HTML page published next to each image.
//
// Templates use positional placeholders: {0} is the store name, {1} the
// image key, {2} the width and {3} the height. {{ and }} produce literal
// braces.
package template

import (
	_ "embed"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/jobrunner/picta/internal/domain"
)

//go:embed default.html
var defaultTemplate string

// DefaultName identifies the embedded template in logs and errors.
const DefaultName = "embedded:default.html"

// placeholderCount is the number of positional arguments Render supplies.
const placeholderCount = 4

// Config holds renderer configuration.
type Config struct {
	Path   string // Template file, the embedded default when empty
	Escape bool   // HTML-escape substituted values
}

// Renderer implements PageRenderer with a cached, reloadable template.
type Renderer struct {
	config Config
	logger *slog.Logger

	mu       sync.RWMutex
	segments []segment
}

// segment is either literal text or a placeholder index.
type segment struct {
	text  string
	index int // -1 for literal text
}

// NewRenderer creates a new renderer. The template is loaded on first use.
func NewRenderer(cfg Config, logger *slog.Logger) *Renderer {
	return &Renderer{
		config: cfg,
		logger: logger,
	}
}

// Path returns the template path, or DefaultName for the embedded template.
func (r *Renderer) Path() string {
	if r.config.Path == "" {
		return DefaultName
	}
	return r.config.Path
}

// Render fills the template for an image.
func (r *Renderer) Render(storeName, imageKey string, dims domain.Dimensions) (string, error) {
	segments, err := r.template()
	if err != nil {
		return "", err
	}

	args := [placeholderCount]string{
		r.escape(storeName),
		r.escape(imageKey),
		strconv.Itoa(dims.Width),
		strconv.Itoa(dims.Height),
	}

	var b strings.Builder
	for _, seg := range segments {
		if seg.index < 0 {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(args[seg.index])
	}
	return b.String(), nil
}

// Reload rereads the template from disk. On failure the cached template is
// dropped so the next Render reports the error.
func (r *Renderer) Reload() error {
	segments, err := r.load()

	r.mu.Lock()
	r.segments = segments
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("template reload failed", "path", r.Path(), "error", err)
		return err
	}

	r.logger.Info("template reloaded", "path", r.Path())
	return nil
}

// Check reports whether the template can be loaded.
func (r *Renderer) Check() error {
	_, err := r.template()
	return err
}

// template returns the cached template, loading it if necessary.
func (r *Renderer) template() ([]segment, error) {
	r.mu.RLock()
	segments := r.segments
	r.mu.RUnlock()
	if segments != nil {
		return segments, nil
	}

	segments, err := r.load()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.segments = segments
	r.mu.Unlock()
	return segments, nil
}

func (r *Renderer) load() ([]segment, error) {
	text := defaultTemplate
	if r.config.Path != "" {
		data, err := os.ReadFile(r.config.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &domain.TemplateError{
					Path: r.config.Path,
					Err:  fmt.Errorf("%w: %v", domain.ErrTemplateNotFound, err),
				}
			}
			return nil, &domain.TemplateError{
				Path: r.config.Path,
				Err:  fmt.Errorf("%w: %v", domain.ErrInternal, err),
			}
		}
		text = string(data)
	}

	segments, err := parse(text)
	if err != nil {
		return nil, &domain.TemplateError{
			Path: r.Path(),
			Err:  fmt.Errorf("%w: %v", domain.ErrInternal, err),
		}
	}
	return segments, nil
}

func (r *Renderer) escape(s string) string {
	if !r.config.Escape {
		return s
	}
	return html.EscapeString(s)
}

// parse splits text into literal and placeholder segments.
func parse(text string) ([]segment, error) {
	segments := make([]segment, 0, 16)
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segments = append(segments, segment{text: lit.String(), index: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end == -1 {
				return nil, fmt.Errorf("unclosed placeholder at offset %d", i)
			}
			field := text[i+1 : i+1+end]
			index, err := strconv.Atoi(field)
			if err != nil || index < 0 || index >= placeholderCount {
				return nil, fmt.Errorf("invalid placeholder {%s} at offset %d", field, i)
			}
			flush()
			segments = append(segments, segment{index: index})
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("single '}' at offset %d", i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return segments, nil
}
