package wrapper

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/extraction"
)

// openTextReader parses data with ledongthuc/pdf, which provides glyph
// positions for run extraction
func openTextReader(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = malformed(LibraryLedongthuc, "open", fmt.Errorf("parser panic: %v", r))
		}
	}()

	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, malformed(LibraryLedongthuc, "open", err)
	}
	if reader.NumPage() < 1 {
		return nil, malformed(LibraryLedongthuc, "open", errors.New("document has no pages"))
	}
	return reader, nil
}

// Page returns the text runs and visible box of a 1-based page. Pages whose
// content stream cannot be decoded are returned without runs and recorded in
// SkippedPages, so one bad page does not fail the whole document.
func (d *Document) Page(pageNum int) (*extraction.Page, error) {
	if page, ok := d.pages[pageNum]; ok {
		return page, nil
	}

	page, err := d.extractor.ExtractPage(d.text, pageNum)
	if errors.Is(err, extraction.ErrPageContent) {
		d.skipped = append(d.skipped, pageNum)
		page = &extraction.Page{Number: pageNum, Box: d.fallbackBox(pageNum)}
		err = nil
	}
	if err != nil {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "extract_page", Err: err}
	}

	d.pages[pageNum] = page
	return page, nil
}

// SkippedPages lists pages whose text could not be extracted.
func (d *Document) SkippedPages() []int {
	return append([]int(nil), d.skipped...)
}

// fallbackBox reads the page box from the object model when the text side
// failed on the page
func (d *Document) fallbackBox(pageNum int) extraction.Rect {
	box, err := d.visibleBox(pageNum)
	if err != nil {
		return extraction.Rect{}
	}
	return box
}
