package keywords

import (
	"slices"
	"strings"
)

// Selection is what a user picked: the whole catalog, individual catalog
// entries, and free text with one custom keyword per line.
type Selection struct {
	All    bool     `json:"select_all"`
	Picked []string `json:"keywords"`
	Custom string   `json:"custom_keywords"`
}

// Resolve returns the keywords to scan for, in order: the catalog entries
// that are selected (the whole catalog when All is set), then picks that are
// not in the catalog, then custom lines. Picks are never dropped by All.
// Repeated picks collapse to one; custom lines are kept as entered.
func (s Selection) Resolve(catalog []string) []string {
	picked := make(map[string]bool, len(s.Picked))
	for _, p := range s.Picked {
		if p = strings.TrimSpace(p); p != "" {
			picked[p] = true
		}
	}

	var out []string
	for _, k := range catalog {
		if s.All || picked[k] {
			out = append(out, k)
			delete(picked, k)
		}
	}

	for _, p := range s.Picked {
		p = strings.TrimSpace(p)
		if picked[p] {
			out = append(out, p)
			delete(picked, p)
		}
	}

	return append(out, Lines(s.Custom)...)
}

// IsEmpty reports whether the selection resolves to no keywords at all.
func (s Selection) IsEmpty(catalog []string) bool {
	return len(s.Resolve(catalog)) == 0
}

// Lines splits text on newlines, trimming each line and dropping blanks.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ParseList splits a list separated by newlines or commas.
func ParseList(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ',' || r == '\r'
	})

	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Contains reports whether keyword is in the catalog, matching exactly.
func Contains(catalog []string, keyword string) bool {
	return slices.Contains(catalog, keyword)
}
