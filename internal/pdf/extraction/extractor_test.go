package extraction

import (
	"bytes"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-highlighter/internal/testutil"
)

const courierWidth = 12.0 * testutil.CourierAdvance / 1000

func openReader(t *testing.T, pages ...testutil.PageSpec) *pdf.Reader {
	t.Helper()

	data := testutil.BuildPDF(pages...)
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return reader
}

func TestExtractPage_SingleLine(t *testing.T) {
	reader := openReader(t, testutil.TextPage("Draft Master Plan"))
	extractor := NewExtractor(DefaultOptions())

	page, err := extractor.ExtractPage(reader, 1)
	require.NoError(t, err)
	require.Len(t, page.Runs, 1)

	run := page.Runs[0]
	assert.Equal(t, "Draft Master Plan", run.Text)
	assert.Equal(t, "Courier", run.Font)
	assert.InDelta(t, 12.0, run.FontSize, 0.001)
	assert.InDelta(t, 72.0, run.Box.Left, 0.01)
	assert.InDelta(t, 72.0+17*courierWidth, run.Box.Right, 0.01)
	assert.InDelta(t, 700.0-0.2*12, run.Box.Bottom, 0.01)
	assert.InDelta(t, 700.0+0.8*12, run.Box.Top, 0.01)
	assert.InDelta(t, courierWidth, run.CharWidth(), 0.01)
}

func TestExtractPage_LinesBecomeSeparateRuns(t *testing.T) {
	reader := openReader(t, testutil.TextPage("first line", "second line"))
	extractor := NewExtractor(DefaultOptions())

	page, err := extractor.ExtractPage(reader, 1)
	require.NoError(t, err)
	require.Len(t, page.Runs, 2)
	assert.Equal(t, "first line", page.Runs[0].Text)
	assert.Equal(t, "second line", page.Runs[1].Text)
	assert.Greater(t, page.Runs[0].Box.Bottom, page.Runs[1].Box.Bottom)
}

func TestExtractPage_PageBox(t *testing.T) {
	tests := []struct {
		name string
		spec testutil.PageSpec
		want Rect
	}{
		{
			name: "inherited media box",
			spec: testutil.TextPage("text"),
			want: Rect{Left: 0, Bottom: 0, Right: 612, Top: 792},
		},
		{
			name: "own media box",
			spec: testutil.PageSpec{MediaBox: [4]float64{0, 0, 300, 400}},
			want: Rect{Left: 0, Bottom: 0, Right: 300, Top: 400},
		},
		{
			name: "crop box wins",
			spec: testutil.PageSpec{CropBox: [4]float64{10, 20, 200, 300}},
			want: Rect{Left: 10, Bottom: 20, Right: 200, Top: 300},
		},
		{
			name: "inverted media box is normalized",
			spec: testutil.PageSpec{MediaBox: [4]float64{500, 600, 0, 0}},
			want: Rect{Left: 0, Bottom: 0, Right: 500, Top: 600},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := openReader(t, tt.spec)

			page, err := NewExtractor(DefaultOptions()).ExtractPage(reader, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Box)
		})
	}
}

func TestExtractPage_OutOfRange(t *testing.T) {
	reader := openReader(t, testutil.TextPage("only page"))
	extractor := NewExtractor(DefaultOptions())

	for _, pageNum := range []int{0, 2, -1} {
		_, err := extractor.ExtractPage(reader, pageNum)
		assert.ErrorIs(t, err, ErrPageOutOfRange, "page %d", pageNum)
	}

	_, err := extractor.ExtractPage(nil, 1)
	assert.Error(t, err)
}

func TestBuildRuns(t *testing.T) {
	glyph := func(x, y float64, s string) pdf.Text {
		return pdf.Text{Font: "Helvetica", FontSize: 10, X: x, Y: y, W: 5, S: s}
	}

	tests := []struct {
		name   string
		glyphs []pdf.Text
		want   []string
	}{
		{
			name:   "contiguous glyphs merge",
			glyphs: []pdf.Text{glyph(0, 0, "a"), glyph(5, 0, "b"), glyph(10, 0, "c")},
			want:   []string{"abc"},
		},
		{
			name:   "word gap inserts a space",
			glyphs: []pdf.Text{glyph(0, 0, "a"), glyph(5, 0, "b"), glyph(14, 0, "c")},
			want:   []string{"ab c"},
		},
		{
			name:   "quarter em gap inserts a space",
			glyphs: []pdf.Text{glyph(0, 0, "a"), glyph(5, 0, "b"), glyph(12.5, 0, "c")},
			want:   []string{"ab c"},
		},
		{
			name:   "letter spacing does not insert a space",
			glyphs: []pdf.Text{glyph(0, 0, "a"), glyph(6, 0, "b"), glyph(12, 0, "c")},
			want:   []string{"abc"},
		},
		{
			name:   "existing space is not doubled",
			glyphs: []pdf.Text{glyph(0, 0, "a"), glyph(5, 0, " "), glyph(14, 0, "c")},
			want:   []string{"a c"},
		},
		{
			name:   "column gap breaks the run",
			glyphs: []pdf.Text{glyph(0, 0, "a"), glyph(100, 0, "b")},
			want:   []string{"a", "b"},
		},
		{
			name:   "baseline change breaks the run",
			glyphs: []pdf.Text{glyph(0, 0, "a"), glyph(5, -14, "b")},
			want:   []string{"a", "b"},
		},
		{
			name: "font change breaks the run",
			glyphs: []pdf.Text{
				glyph(0, 0, "a"),
				{Font: "Helvetica-Bold", FontSize: 10, X: 5, Y: 0, W: 5, S: "b"},
			},
			want: []string{"a", "b"},
		},
		{
			name:   "newline glyph breaks the run",
			glyphs: []pdf.Text{glyph(0, 0, "a"), glyph(5, 0, "\n"), glyph(5, 0, "b")},
			want:   []string{"a", "b"},
		},
		{
			name:   "empty glyphs are ignored",
			glyphs: []pdf.Text{glyph(0, 0, ""), glyph(0, 0, "a")},
			want:   []string{"a"},
		},
		{
			name: "no glyphs",
			want: nil,
		},
	}

	extractor := NewExtractor(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := extractor.BuildRuns(tt.glyphs)

			var got []string
			for _, run := range runs {
				got = append(got, run.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRuns_PositionedWordsKeepSpace(t *testing.T) {
	// Words placed by position, with a Times word space between them
	word := func(x float64, s string) pdf.Text {
		return pdf.Text{Font: "Times-Roman", FontSize: 12, X: x, Y: 700, W: 6 * float64(len(s)), S: s}
	}

	runs := NewExtractor(DefaultOptions()).BuildRuns([]pdf.Text{
		word(72, "Master"),
		word(72+36+3, "Plan"),
	})

	require.Len(t, runs, 1)
	assert.Equal(t, "Master Plan", runs[0].Text)
}

func TestBuildRuns_ZeroFontSizeUsesDefaultHeight(t *testing.T) {
	runs := NewExtractor(DefaultOptions()).BuildRuns([]pdf.Text{{X: 10, Y: 100, W: 4, S: "x"}})

	require.Len(t, runs, 1)
	assert.InDelta(t, defaultFontSize, runs[0].Box.Height(), 0.001)
}

func TestRect(t *testing.T) {
	page := Rect{Left: 0, Bottom: 0, Right: 100, Top: 100}

	assert.Equal(t, Rect{Left: 50, Bottom: 10, Right: 100, Top: 20},
		Rect{Left: 50, Bottom: 10, Right: 150, Top: 20}.Intersect(page))
	assert.True(t, Rect{Left: 120, Bottom: 10, Right: 150, Top: 20}.Intersect(page).IsEmpty())
	assert.True(t, Rect{}.IsEmpty())
	assert.False(t, page.IsEmpty())
	assert.Equal(t, Rect{Left: 1, Bottom: 2, Right: 3, Top: 4}, Rect{Left: 3, Bottom: 4, Right: 1, Top: 2}.Normalize())
}

func TestTextRun_CharWidth(t *testing.T) {
	run := TextRun{Text: "abcd", Box: Rect{Left: 10, Right: 30, Top: 10}}
	assert.InDelta(t, 5.0, run.CharWidth(), 0.0001)

	// Multi-byte characters count once
	run = TextRun{Text: "Zürich", Box: Rect{Left: 0, Right: 60, Top: 10}}
	assert.Equal(t, 6, run.CharCount())
	assert.InDelta(t, 10.0, run.CharWidth(), 0.0001)

	assert.Zero(t, TextRun{Box: Rect{Right: 10}}.CharWidth())
}
