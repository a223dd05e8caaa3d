// Package wrapper opens a PDF twice: once with ledongthuc/pdf for positioned
// text and once with pdfcpu for the object model that receives highlight
// annotations and is written back out.
package wrapper

import (
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/extraction"
)

// Document is an opened PDF that can be read page by page and annotated.
// It is not safe for concurrent use.
type Document struct {
	text      *pdf.Reader
	model     *model.Context
	extractor *extraction.Extractor

	pages   map[int]*extraction.Page
	skipped []int

	style      HighlightStyle
	highlights []Highlight
}

// Open parses data. Errors for unreadable input match ErrMalformedDocument.
func Open(data []byte, opts ...Option) (*Document, error) {
	if len(data) == 0 {
		return nil, malformed(LibraryPDFCPU, "open", fmt.Errorf("empty input"))
	}

	ctx, err := openModel(data)
	if err != nil {
		return nil, err
	}

	text, err := openTextReader(data)
	if err != nil {
		return nil, err
	}

	// Both parsers must agree on the page tree or runs and annotations
	// would land on different pages
	if text.NumPage() != ctx.PageCount {
		return nil, malformed(LibraryLedongthuc, "open",
			fmt.Errorf("page count mismatch: text reader sees %d, object model sees %d", text.NumPage(), ctx.PageCount))
	}

	d := &Document{
		text:      text,
		model:     ctx,
		extractor: extraction.NewExtractor(extraction.DefaultOptions()),
		pages:     make(map[int]*extraction.Page),
		style:     DefaultHighlightStyle(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.model.PageCount
}

// Highlights returns the annotations added so far, in insertion order.
func (d *Document) Highlights() []Highlight {
	return append([]Highlight(nil), d.highlights...)
}
