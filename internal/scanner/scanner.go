// Package scanner finds keywords in the positioned text of a PDF, highlights
// each match on the page and records which pages every keyword appears on.
package scanner

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/extraction"
)

// DefaultColor is the orange used for highlights unless configured otherwise.
var DefaultColor = color.SimpleColor{R: 1, G: 0.65, B: 0}

// Document is the scanned PDF: pages with text runs, and a way to annotate
// them. Pages are 1-based.
type Document interface {
	PageCount() int
	Page(pageNum int) (*extraction.Page, error)
	AddHighlight(pageNum int, region extraction.Rect, c color.SimpleColor, label string) error
}

// Result is the outcome of a scan that found at least one keyword.
type Result struct {
	Index *Index
	Table *Table
}

// Scanner holds the settings shared by scans. A Scanner is safe for
// concurrent use; each call works only on its own document.
type Scanner struct {
	color  color.SimpleColor
	logger logrus.FieldLogger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithColor sets the highlight color.
func WithColor(c color.SimpleColor) Option {
	return func(s *Scanner) {
		s.color = c
	}
}

// WithLogger sets the logger used for per-page debug output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		color:  DefaultColor,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan searches every page of doc for keywords and highlights each match in
// place. The boolean reports whether anything matched; when it is false the
// document carries no new annotations.
func (s *Scanner) Scan(ctx context.Context, doc Document, keywords []Keyword) (*Index, bool, error) {
	if err := validateKeywords(keywords); err != nil {
		return nil, false, err
	}

	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = lower(string(k))
	}

	idx := newScanIndex(keywords)
	found := false

	for pageNum := 1; pageNum <= doc.PageCount(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		page, err := doc.Page(pageNum)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read page %d: %w", pageNum, err)
		}

		matches := 0
		for i, needle := range lowered {
			for _, run := range page.Runs {
				n, err := s.scanRun(doc, page, run, i, keywords[i], needle, idx)
				if err != nil {
					return nil, false, err
				}
				matches += n
			}
		}

		if matches > 0 {
			found = true
			s.logger.WithFields(logrus.Fields{
				"page":    pageNum,
				"matches": matches,
			}).Debug("keywords matched on page")
		}
	}

	return idx, found, nil
}

// scanRun handles one keyword against one run and returns the match count
func (s *Scanner) scanRun(doc Document, page *extraction.Page, run extraction.TextRun,
	entry int, keyword Keyword, needle string, idx *Index) (int, error) {
	if run.CharCount() == 0 {
		return 0, nil
	}
	charWidth := run.CharWidth()

	starts := findAll(lower(run.Text), needle)
	if len(starts) == 0 {
		return 0, nil
	}

	idx.record(entry, page.Number)
	keywordLen := utf8.RuneCountInString(needle)

	for _, start := range starts {
		idx.occurrences++

		region := extraction.Rect{
			Left:   run.Box.Left + charWidth*float64(start),
			Bottom: run.Box.Bottom,
			Right:  run.Box.Left + charWidth*float64(start+keywordLen),
			Top:    run.Box.Top,
		}.Intersect(page.Box)
		if region.IsEmpty() {
			continue
		}

		if err := doc.AddHighlight(page.Number, region, s.color, string(keyword)); err != nil {
			return 0, fmt.Errorf("failed to highlight %q on page %d: %w", keyword, page.Number, err)
		}
		idx.highlights++
	}

	return len(starts), nil
}

// Run validates keywords, scans doc and builds the report. It returns
// ErrNothingFound when no keyword matched.
func (s *Scanner) Run(ctx context.Context, doc Document, keywords []Keyword) (*Result, error) {
	idx, found, err := s.Scan(ctx, doc, keywords)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNothingFound
	}

	return &Result{Index: idx, Table: BuildReport(idx)}, nil
}

// Scan runs a default Scanner.
func Scan(ctx context.Context, doc Document, keywords []Keyword) (*Index, bool, error) {
	return New().Scan(ctx, doc, keywords)
}

// Run runs a default Scanner.
func Run(ctx context.Context, doc Document, keywords []Keyword) (*Result, error) {
	return New().Run(ctx, doc, keywords)
}

// lower maps every rune to lower case one for one, so rune offsets in the
// result line up with the original text
func lower(s string) string {
	return strings.Map(unicode.ToLower, s)
}

// findAll returns the rune offsets of non-overlapping matches of needle in
// text. Each search resumes right after the previous match.
func findAll(text, needle string) []int {
	if needle == "" {
		return nil
	}

	var starts []int
	offset := 0 // bytes consumed
	runes := 0  // runes consumed
	for {
		i := strings.Index(text[offset:], needle)
		if i < 0 {
			return starts
		}

		start := runes + utf8.RuneCountInString(text[offset:offset+i])
		starts = append(starts, start)

		offset += i + len(needle)
		runes = start + utf8.RuneCountInString(needle)
	}
}
