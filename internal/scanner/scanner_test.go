package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/wrapper"
	"github.com/a3tai/mcp-pdf-highlighter/internal/testutil"
)

const testCharWidth = 5.0

var testPageBox = extraction.Rect{Left: 0, Bottom: 0, Right: 612, Top: 792}

type placed struct {
	page   int
	region extraction.Rect
	color  color.SimpleColor
	label  string
}

// fakeDocument serves prepared pages and records highlights
type fakeDocument struct {
	pages        []*extraction.Page
	highlights   []placed
	pageErr      error
	highlightErr error
}

func (d *fakeDocument) PageCount() int {
	return len(d.pages)
}

func (d *fakeDocument) Page(pageNum int) (*extraction.Page, error) {
	if d.pageErr != nil {
		return nil, d.pageErr
	}
	return d.pages[pageNum-1], nil
}

func (d *fakeDocument) AddHighlight(pageNum int, region extraction.Rect, c color.SimpleColor, label string) error {
	if d.highlightErr != nil {
		return d.highlightErr
	}
	d.highlights = append(d.highlights, placed{page: pageNum, region: region, color: c, label: label})
	return nil
}

// run places text at x with a uniform character width
func run(x, y float64, text string) extraction.TextRun {
	n := float64(len([]rune(text)))
	return extraction.TextRun{
		Text: text,
		Box:  extraction.Rect{Left: x, Bottom: y, Right: x + n*testCharWidth, Top: y + 10},
	}
}

// newFakeDocument builds one page per argument, each page a list of lines
func newFakeDocument(pages ...[]string) *fakeDocument {
	doc := &fakeDocument{}
	for i, lines := range pages {
		page := &extraction.Page{Number: i + 1, Box: testPageBox}
		for j, text := range lines {
			page.Runs = append(page.Runs, run(72, 700-float64(j)*20, text))
		}
		doc.pages = append(doc.pages, page)
	}
	return doc
}

func kws(t *testing.T, raw ...string) []Keyword {
	t.Helper()

	keywords, err := NewKeywords(raw)
	require.NoError(t, err)
	return keywords
}

const masterPlanText = "Draft Master Plan for Rezoning, see Master Plan appendix"

func TestScan_MasterPlanScenario(t *testing.T) {
	doc := newFakeDocument([]string{masterPlanText})

	idx, found, err := Scan(context.Background(), doc, kws(t, "Master Plan", "Rezoning"))
	require.NoError(t, err)
	assert.True(t, found)

	assert.Equal(t, []Entry{
		{Keyword: "Master Plan", Pages: []int{1}},
		{Keyword: "Rezoning", Pages: []int{1}},
	}, idx.Entries())
	assert.Equal(t, 3, idx.Occurrences())
	assert.Equal(t, 3, idx.Highlights())

	require.Len(t, doc.highlights, 3)
	first := doc.highlights[0]
	assert.Equal(t, 1, first.page)
	assert.Equal(t, "Master Plan", first.label)
	assert.Equal(t, DefaultColor, first.color)
	assert.InDelta(t, 72+6*testCharWidth, first.region.Left, 1e-9)
	assert.InDelta(t, 72+17*testCharWidth, first.region.Right, 1e-9)
	assert.InDelta(t, 700.0, first.region.Bottom, 1e-9)
	assert.InDelta(t, 710.0, first.region.Top, 1e-9)

	second := doc.highlights[1]
	assert.InDelta(t, 72+36*testCharWidth, second.region.Left, 1e-9)

	rezoning := doc.highlights[2]
	assert.Equal(t, "Rezoning", rezoning.label)
	assert.InDelta(t, 72+22*testCharWidth, rezoning.region.Left, 1e-9)
	assert.InDelta(t, 72+30*testCharWidth, rezoning.region.Right, 1e-9)
}

func TestRun_MasterPlanScenario(t *testing.T) {
	doc := newFakeDocument([]string{masterPlanText})

	result, err := Run(context.Background(), doc, kws(t, "Rezoning", "Master Plan"))
	require.NoError(t, err)

	assert.Equal(t, [][]any{
		{"Keyword", "Occurrence 1"},
		{"Master Plan", 1},
		{"Rezoning", 1},
	}, result.Table.Records())
}

func TestRun_NothingFound(t *testing.T) {
	doc := newFakeDocument([]string{masterPlanText})

	result, err := Run(context.Background(), doc, kws(t, "Budget"))
	assert.ErrorIs(t, err, ErrNothingFound)
	assert.Nil(t, result)
	assert.Empty(t, doc.highlights)

	idx, found, err := Scan(context.Background(), doc, kws(t, "Budget"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, idx.Found())
	assert.Empty(t, doc.highlights)
}

func TestScan_PageCountedOncePerKeyword(t *testing.T) {
	doc := newFakeDocument(
		[]string{"Feasibility Study"},
		[]string{"Study one", "and Study two"},
	)

	idx, found, err := Scan(context.Background(), doc, kws(t, "Study"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{1, 2}, idx.Pages("Study"))
	assert.Equal(t, 3, idx.Occurrences())
	assert.Len(t, doc.highlights, 3)
}

func TestScan_Matching(t *testing.T) {
	tests := []struct {
		name       string
		runs       []string
		keyword    string
		wantCount  int
		wantLabels []string
	}{
		{name: "overlapping matches are not all found", runs: []string{"aaa"}, keyword: "aa", wantCount: 1},
		{name: "back to back matches", runs: []string{"aaaa"}, keyword: "aa", wantCount: 2},
		{name: "substring inside a longer word", runs: []string{"Planning"}, keyword: "plan", wantCount: 1},
		{name: "case insensitive", runs: []string{"MASTER PLAN and master plan"}, keyword: "Master Plan", wantCount: 2},
		{name: "no match across runs", runs: []string{"pla", "n"}, keyword: "plan", wantCount: 0},
		{name: "empty run is skipped", runs: []string{""}, keyword: "plan", wantCount: 0},
		{name: "keyword longer than run", runs: []string{"Plan"}, keyword: "Planning", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newFakeDocument(tt.runs)

			idx, found, err := Scan(context.Background(), doc, kws(t, tt.keyword))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount > 0, found)
			assert.Equal(t, tt.wantCount, idx.Occurrences())
			assert.Len(t, doc.highlights, tt.wantCount)
			for _, h := range doc.highlights {
				assert.Equal(t, tt.keyword, h.label)
			}
		})
	}
}

func TestScan_MultiByteOffsets(t *testing.T) {
	doc := newFakeDocument([]string{"Zürich Strategy"})

	_, found, err := Scan(context.Background(), doc, kws(t, "strategy"))
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, doc.highlights, 1)

	// "Zürich " is seven characters, not eight bytes
	assert.InDelta(t, 72+7*testCharWidth, doc.highlights[0].region.Left, 1e-9)
	assert.InDelta(t, 72+15*testCharWidth, doc.highlights[0].region.Right, 1e-9)
}

func TestScan_Clipping(t *testing.T) {
	t.Run("partly outside is clipped", func(t *testing.T) {
		doc := &fakeDocument{pages: []*extraction.Page{{
			Number: 1,
			Box:    extraction.Rect{Left: 0, Bottom: 0, Right: 110, Top: 792},
			Runs:   []extraction.TextRun{run(80, 700, "see Vision")},
		}}}

		idx, found, err := Scan(context.Background(), doc, kws(t, "Vision"))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 1, idx.Highlights())
		require.Len(t, doc.highlights, 1)
		assert.InDelta(t, 100.0, doc.highlights[0].region.Left, 1e-9)
		assert.InDelta(t, 110.0, doc.highlights[0].region.Right, 1e-9)
	})

	t.Run("fully outside is counted but not annotated", func(t *testing.T) {
		doc := &fakeDocument{pages: []*extraction.Page{{
			Number: 1,
			Box:    extraction.Rect{Left: 0, Bottom: 0, Right: 100, Top: 792},
			Runs:   []extraction.TextRun{run(200, 700, "Vision")},
		}}}

		idx, found, err := Scan(context.Background(), doc, kws(t, "Vision"))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []int{1}, idx.Pages("Vision"))
		assert.Equal(t, 1, idx.Occurrences())
		assert.Zero(t, idx.Highlights())
		assert.Empty(t, doc.highlights)
	})

	t.Run("zero width run is counted but not annotated", func(t *testing.T) {
		doc := &fakeDocument{pages: []*extraction.Page{{
			Number: 1,
			Box:    testPageBox,
			Runs: []extraction.TextRun{{
				Text: "Vision",
				Box:  extraction.Rect{Left: 50, Bottom: 700, Right: 50, Top: 710},
			}},
		}}}

		idx, found, err := Scan(context.Background(), doc, kws(t, "Vision"))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 1, idx.Occurrences())
		assert.Empty(t, doc.highlights)
	})
}

func TestScan_DuplicateKeywordsStaySeparate(t *testing.T) {
	doc := newFakeDocument([]string{"Annual Plan"})

	idx, _, err := Scan(context.Background(), doc, kws(t, "Annual Plan", "Annual Plan"))
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Len(t, doc.highlights, 2)
	assert.Len(t, BuildReport(idx).Rows, 2)
}

func TestScan_Idempotent(t *testing.T) {
	pages := [][]string{
		{"Council Plan", "Budget and Council Plan"},
		{"nothing here"},
		{"Budget"},
	}
	keywords := kws(t, "Budget", "Council Plan", "Vision")

	first, _, err := Scan(context.Background(), newFakeDocument(pages...), keywords)
	require.NoError(t, err)
	second, _, err := Scan(context.Background(), newFakeDocument(pages...), keywords)
	require.NoError(t, err)

	assert.Equal(t, first.Entries(), second.Entries())
	assert.Equal(t, []int{1, 3}, first.Pages("Budget"))
	assert.Equal(t, []int{1}, first.Pages("Council Plan"))
	assert.Empty(t, first.Pages("Vision"))
}

func TestScan_WithColor(t *testing.T) {
	yellow := color.SimpleColor{R: 1, G: 1, B: 0}
	doc := newFakeDocument([]string{"Vision"})

	_, _, err := New(WithColor(yellow)).Scan(context.Background(), doc, kws(t, "Vision"))
	require.NoError(t, err)
	require.Len(t, doc.highlights, 1)
	assert.Equal(t, yellow, doc.highlights[0].color)
}

func TestScan_Errors(t *testing.T) {
	t.Run("empty keyword set", func(t *testing.T) {
		_, _, err := Scan(context.Background(), newFakeDocument([]string{"x"}), nil)
		assert.ErrorIs(t, err, ErrEmptyKeywordSet)
	})

	t.Run("blank keyword", func(t *testing.T) {
		_, _, err := Scan(context.Background(), newFakeDocument([]string{"x"}), []Keyword{"ok", "  "})
		assert.ErrorIs(t, err, ErrBlankKeyword)
	})

	t.Run("page error", func(t *testing.T) {
		doc := newFakeDocument([]string{"x"})
		doc.pageErr = errors.New("boom")

		_, _, err := Scan(context.Background(), doc, kws(t, "x"))
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("highlight error", func(t *testing.T) {
		doc := newFakeDocument([]string{"x"})
		doc.highlightErr = errors.New("cannot annotate")

		result, err := Run(context.Background(), doc, kws(t, "x"))
		assert.ErrorContains(t, err, "cannot annotate")
		assert.Nil(t, result)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := Scan(ctx, newFakeDocument([]string{"x"}), kws(t, "x"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestScan_RealDocument(t *testing.T) {
	doc, err := wrapper.Open(testutil.BuildPDF(
		testutil.TextPage(masterPlanText),
		testutil.TextPage("Study area", "no keywords"),
	))
	require.NoError(t, err)

	result, err := Run(context.Background(), doc, kws(t, "Master Plan", "Rezoning", "Study"))
	require.NoError(t, err)

	assert.Equal(t, []int{1}, result.Index.Pages("Master Plan"))
	assert.Equal(t, []int{1}, result.Index.Pages("Rezoning"))
	assert.Equal(t, []int{2}, result.Index.Pages("Study"))

	highlights := doc.Highlights()
	require.Len(t, highlights, 4)

	// 12pt Courier advances 7.2pt per character
	assert.Equal(t, 1, highlights[0].Page)
	assert.InDelta(t, 72+6*7.2, highlights[0].Region.Left, 0.01)
	assert.InDelta(t, 72+17*7.2, highlights[0].Region.Right, 0.01)
	assert.Equal(t, 2, highlights[3].Page)
}

func TestFindAll(t *testing.T) {
	tests := []struct {
		text   string
		needle string
		want   []int
	}{
		{text: "aaa", needle: "aa", want: []int{0}},
		{text: "aaaa", needle: "aa", want: []int{0, 2}},
		{text: "plan planning", needle: "plan", want: []int{0, 5}},
		{text: "zürich zürich", needle: "zürich", want: []int{0, 7}},
		{text: "abc", needle: "x", want: nil},
		{text: "abc", needle: "", want: nil},
		{text: "", needle: "a", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.needle, func(t *testing.T) {
			assert.Equal(t, tt.want, findAll(tt.text, tt.needle))
		})
	}
}

func TestNewKeyword(t *testing.T) {
	k, err := NewKeyword("  Master Plan \n")
	require.NoError(t, err)
	assert.Equal(t, Keyword("Master Plan"), k)
	assert.Equal(t, "Master Plan", k.String())

	_, err = NewKeyword(" \t ")
	assert.ErrorIs(t, err, ErrBlankKeyword)

	_, err = NewKeywords(nil)
	assert.ErrorIs(t, err, ErrEmptyKeywordSet)

	_, err = NewKeywords([]string{"ok", ""})
	assert.ErrorIs(t, err, ErrBlankKeyword)

	keywords, err := NewKeywords([]string{"LPS", " LPS "})
	require.NoError(t, err)
	assert.Equal(t, []Keyword{"LPS", "LPS"}, keywords)
}
