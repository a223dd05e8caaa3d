package scanner

// Entry is one keyword with the distinct pages it was found on, in the
// order they were first seen.
type Entry struct {
	Keyword Keyword
	Pages   []int
}

// Index maps each scanned keyword to the pages it occurs on. Entries keep
// the order of the keyword list that was scanned, so a duplicated keyword
// has two entries. An Index is not modified once returned by Scan.
type Index struct {
	entries     []Entry
	occurrences int
	highlights  int
}

// NewIndex builds an index from entries, copying them.
func NewIndex(entries ...Entry) *Index {
	idx := &Index{entries: make([]Entry, len(entries))}
	for i, e := range entries {
		idx.entries[i] = Entry{Keyword: e.Keyword, Pages: append([]int(nil), e.Pages...)}
	}
	return idx
}

func newScanIndex(keywords []Keyword) *Index {
	idx := &Index{entries: make([]Entry, len(keywords))}
	for i, k := range keywords {
		idx.entries[i] = Entry{Keyword: k}
	}
	return idx
}

// record adds page to entry i unless it is already the latest page. Pages are
// scanned in ascending order so checking the tail is enough.
func (idx *Index) record(i, page int) bool {
	pages := idx.entries[i].Pages
	if n := len(pages); n > 0 && pages[n-1] == page {
		return false
	}
	idx.entries[i].Pages = append(pages, page)
	return true
}

// Entries returns a copy of all entries, including keywords never found.
func (idx *Index) Entries() []Entry {
	return NewIndex(idx.entries...).entries
}

// Pages returns the pages of the first entry for k, or nil.
func (idx *Index) Pages(k Keyword) []int {
	for _, e := range idx.entries {
		if e.Keyword == k {
			return append([]int(nil), e.Pages...)
		}
	}
	return nil
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Found reports whether any keyword has at least one page.
func (idx *Index) Found() bool {
	for _, e := range idx.entries {
		if len(e.Pages) > 0 {
			return true
		}
	}
	return false
}

// FoundKeywords counts entries with at least one page.
func (idx *Index) FoundKeywords() int {
	n := 0
	for _, e := range idx.entries {
		if len(e.Pages) > 0 {
			n++
		}
	}
	return n
}

// Occurrences is the total number of matches seen during the scan, counting
// repeats on the same page.
func (idx *Index) Occurrences() int {
	return idx.occurrences
}

// Highlights is the number of annotations placed. It can be lower than
// Occurrences when a match falls outside the visible page area.
func (idx *Index) Highlights() int {
	return idx.highlights
}
