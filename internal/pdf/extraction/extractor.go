package extraction

import (
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// Default values used when a page carries no usable box
	defaultPageWidth  = 612.0 // US Letter
	defaultPageHeight = 792.0

	// Used when a glyph reports no font size
	defaultFontSize = 12.0

	// Bounds the /Parent walk for inherited page attributes
	maxInheritanceDepth = 32
)

// Options tunes how glyphs are merged into text runs. Ratios are relative to
// the font size of the run being built.
type Options struct {
	// BaselineTolerance is the largest baseline difference, in points, that
	// still counts as the same line.
	BaselineTolerance float64
	// SpaceGapRatio is the horizontal gap above which a space is inserted
	// between two glyphs that carry none. It sits below the narrowest common
	// word space (0.25 em in Times) and above letter spacing.
	SpaceGapRatio float64
	// RunBreakRatio is the horizontal gap above which a new run starts.
	RunBreakRatio float64
	// AscentRatio and DescentRatio place the run box around the baseline.
	AscentRatio  float64
	DescentRatio float64
}

// DefaultOptions returns the merge settings used by the highlighter.
func DefaultOptions() Options {
	return Options{
		BaselineTolerance: 0.5,
		SpaceGapRatio:     0.15,
		RunBreakRatio:     2.5,
		AscentRatio:       0.8,
		DescentRatio:      0.2,
	}
}

// Extractor turns the glyph stream of a page into text runs.
type Extractor struct {
	opts Options
}

// NewExtractor creates an extractor with the given options.
func NewExtractor(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// ExtractPage returns the runs and visible box of a 1-based page.
func (e *Extractor) ExtractPage(reader *pdf.Reader, pageNum int) (page *Page, err error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	if pageNum < 1 || pageNum > reader.NumPage() {
		return nil, fmt.Errorf("%w: %d (document has %d pages)", ErrPageOutOfRange, pageNum, reader.NumPage())
	}

	// The content parser panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			page = nil
			err = fmt.Errorf("%w: page %d: %v", ErrPageContent, pageNum, r)
		}
	}()

	p := reader.Page(pageNum)
	page = &Page{Number: pageNum, Box: PageBox(p)}
	if p.V.IsNull() {
		return page, nil
	}

	page.Runs = e.BuildRuns(p.Content().Text)
	return page, nil
}

// BuildRuns merges glyphs, in content stream order, into runs.
func (e *Extractor) BuildRuns(glyphs []pdf.Text) []TextRun {
	var runs []TextRun
	var current *runBuilder

	for _, g := range glyphs {
		if g.S == "" || strings.Trim(g.S, "\r\n") == "" {
			// Explicit line breaks end the run
			if g.S != "" && current != nil {
				runs = append(runs, current.build(e.opts))
				current = nil
			}
			continue
		}

		if current != nil && e.continues(current, g) {
			current.add(g, e.opts)
			continue
		}

		if current != nil {
			runs = append(runs, current.build(e.opts))
		}
		current = newRunBuilder(g)
	}

	if current != nil {
		runs = append(runs, current.build(e.opts))
	}
	return runs
}

// continues reports whether g extends the run being built
func (e *Extractor) continues(b *runBuilder, g pdf.Text) bool {
	if g.Font != b.font || math.Abs(glyphSize(g)-b.size) > 0.01 {
		return false
	}
	if math.Abs(g.Y-b.baseline) > e.opts.BaselineTolerance {
		return false
	}

	gap := g.X - b.right
	// Small negative gaps come from kerning
	if gap < -0.5*b.size {
		return false
	}
	return gap <= e.opts.RunBreakRatio*b.size
}

type runBuilder struct {
	text     strings.Builder
	font     string
	size     float64
	baseline float64
	left     float64
	right    float64
}

func newRunBuilder(g pdf.Text) *runBuilder {
	b := &runBuilder{
		font:     g.Font,
		size:     glyphSize(g),
		baseline: g.Y,
		left:     g.X,
		right:    g.X + g.W,
	}
	b.text.WriteString(g.S)
	return b
}

func (b *runBuilder) add(g pdf.Text, opts Options) {
	gap := g.X - b.right
	if gap > opts.SpaceGapRatio*b.size &&
		!strings.HasSuffix(b.text.String(), " ") && !strings.HasPrefix(g.S, " ") {
		b.text.WriteByte(' ')
	}
	b.text.WriteString(g.S)
	if end := g.X + g.W; end > b.right {
		b.right = end
	}
}

func (b *runBuilder) build(opts Options) TextRun {
	return TextRun{
		Text: b.text.String(),
		Box: Rect{
			Left:   b.left,
			Bottom: b.baseline - opts.DescentRatio*b.size,
			Right:  b.right,
			Top:    b.baseline + opts.AscentRatio*b.size,
		}.Normalize(),
		Font:     b.font,
		FontSize: b.size,
	}
}

func glyphSize(g pdf.Text) float64 {
	size := math.Abs(g.FontSize)
	if size == 0 {
		return defaultFontSize
	}
	return size
}

// PageBox returns the visible area of a page: the CropBox when present,
// otherwise the MediaBox, both looked up through the page tree. US Letter is
// returned when neither can be read.
func PageBox(page pdf.Page) Rect {
	media, ok := inheritedBox(page.V, "MediaBox")
	if !ok {
		media = Rect{Right: defaultPageWidth, Top: defaultPageHeight}
	}

	if crop, ok := inheritedBox(page.V, "CropBox"); ok {
		// A CropBox outside the MediaBox is clipped to it
		if visible := crop.Intersect(media); !visible.IsEmpty() {
			return visible
		}
	}
	return media
}

// inheritedBox walks up /Parent until a valid box named key is found
func inheritedBox(node pdf.Value, key string) (Rect, bool) {
	current := node
	for i := 0; i < maxInheritanceDepth && !current.IsNull(); i++ {
		if value := current.Key(key); !value.IsNull() {
			if r, err := parseBox(value); err == nil {
				return r, true
			}
		}
		current = current.Key("Parent")
	}
	return Rect{}, false
}

// parseBox converts a PDF rectangle array into a Rect
func parseBox(value pdf.Value) (Rect, error) {
	if value.Kind() != pdf.Array {
		return Rect{}, fmt.Errorf("box is not an array: %v", value.Kind())
	}
	if value.Len() != 4 {
		return Rect{}, fmt.Errorf("invalid box array length: %d, expected 4", value.Len())
	}

	var coords [4]float64
	for i := range coords {
		v := value.Index(i)
		switch v.Kind() {
		case pdf.Integer:
			coords[i] = float64(v.Int64())
		case pdf.Real:
			coords[i] = v.Float64()
		default:
			return Rect{}, fmt.Errorf("invalid coordinate type at index %d: %v", i, v.Kind())
		}
	}

	r := Rect{Left: coords[0], Bottom: coords[1], Right: coords[2], Top: coords[3]}.Normalize()
	if r.IsEmpty() {
		return Rect{}, fmt.Errorf("degenerate box: [%.2f %.2f %.2f %.2f]", coords[0], coords[1], coords[2], coords[3])
	}
	return r, nil
}
