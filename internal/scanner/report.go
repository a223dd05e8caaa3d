package scanner

import (
	"fmt"
	"slices"
	"strings"
)

// HeaderKeyword is the title of the first report column.
const HeaderKeyword = "Keyword"

// Row is one report line: a keyword and its pages in first-seen order.
type Row struct {
	Keyword Keyword
	Pages   []int
}

// Table is the keyword report. Every row is Width cells wide once padded.
type Table struct {
	Width int
	Rows  []Row
}

// BuildReport turns an index into a report. Keywords without pages are left
// out; the rest are sorted case-insensitively, keeping index order on ties.
func BuildReport(index *Index) *Table {
	var rows []Row
	maxPages := 0
	for _, e := range index.Entries() {
		if len(e.Pages) == 0 {
			continue
		}
		rows = append(rows, Row(e))
		maxPages = max(maxPages, len(e.Pages))
	}

	slices.SortStableFunc(rows, func(a, b Row) int {
		return strings.Compare(lower(string(a.Keyword)), lower(string(b.Keyword)))
	})

	return &Table{Width: 1 + maxPages, Rows: rows}
}

// Header returns "Keyword" followed by one "Occurrence N" title per page column.
func (t *Table) Header() []string {
	header := make([]string, t.Width)
	header[0] = HeaderKeyword
	for i := 1; i < t.Width; i++ {
		header[i] = fmt.Sprintf("Occurrence %d", i)
	}
	return header
}

// Records returns the header and every row as cells, rows padded with empty
// strings to the table width. Page numbers stay ints so serializers can
// write them as numbers.
func (t *Table) Records() [][]any {
	records := make([][]any, 0, len(t.Rows)+1)

	header := make([]any, t.Width)
	for i, title := range t.Header() {
		header[i] = title
	}
	records = append(records, header)

	for _, row := range t.Rows {
		cells := make([]any, t.Width)
		cells[0] = string(row.Keyword)
		for i := 1; i < t.Width; i++ {
			if i <= len(row.Pages) {
				cells[i] = row.Pages[i-1]
			} else {
				cells[i] = ""
			}
		}
		records = append(records, cells)
	}
	return records
}
