package wrapper

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"

	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/extraction"
)

// LibraryType names the underlying PDF library an operation ran in
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
)

// ErrMalformedDocument is returned when the input bytes are not a readable PDF.
var ErrMalformedDocument = errors.New("malformed PDF document")

// WrapperError records which library and operation failed.
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// malformed wraps err so that it matches ErrMalformedDocument
func malformed(lib LibraryType, op string, err error) error {
	return &WrapperError{Library: lib, Op: op, Err: fmt.Errorf("%w: %w", ErrMalformedDocument, err)}
}

// HighlightStyle controls how highlight annotations are drawn.
type HighlightStyle struct {
	Opacity float64
	Title   string
}

// DefaultHighlightStyle returns the style used when none is configured.
func DefaultHighlightStyle() HighlightStyle {
	return HighlightStyle{
		Opacity: 1.0,
		Title:   "mcp-pdf-highlighter",
	}
}

// Option configures a Document at open time.
type Option func(*Document)

// WithStyle overrides the highlight style.
func WithStyle(style HighlightStyle) Option {
	return func(d *Document) {
		d.style = style
	}
}

// Highlight describes an annotation added to the document.
type Highlight struct {
	Page   int
	Region extraction.Rect
	Color  color.SimpleColor
	Label  string
}
