// Package ocr provides optical character recognition engines used to turn
// scanned statement pages into text.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoText is returned when an engine ran but recognized nothing.
var ErrNoText = errors.New("ocr: no text recognized")

// Image is one raster page handed to an engine.
type Image struct {
	Page int    // 1-based page number in the source document
	Data []byte // encoded image bytes (png, jpeg, tiff)
	MIME string // e.g. "image/png"
}

// Engine recognizes text in a single page image.
//
// Engines are not assumed to be safe for concurrent use: callers drive one
// engine instance sequentially, page by page.
type Engine interface {
	Name() string
	// Available reports whether the backend can be used at all (binary
	// installed, credentials present).
	Available(ctx context.Context) error
	Recognize(ctx context.Context, img Image) (string, error)
}

// Versioned is implemented by engines that can report the backend version.
type Versioned interface {
	Version(ctx context.Context) (string, error)
}

// Describe returns the engine name with its backend version when known,
// e.g. "tesseract (tesseract 5.3.0)".
func Describe(ctx context.Context, e Engine) string {
	v, ok := e.(Versioned)
	if !ok {
		return e.Name()
	}
	version, err := v.Version(ctx)
	if err != nil {
		return fmt.Sprintf("%s (unavailable: %v)", e.Name(), err)
	}
	return fmt.Sprintf("%s (%s)", e.Name(), version)
}
