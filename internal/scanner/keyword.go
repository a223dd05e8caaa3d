package scanner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyKeywordSet is returned when a scan is requested without keywords.
	ErrEmptyKeywordSet = errors.New("no keywords selected")
	// ErrBlankKeyword is returned for a keyword that is empty after trimming.
	ErrBlankKeyword = errors.New("keyword is blank")
	// ErrNothingFound reports a completed scan where no keyword matched.
	// Callers must treat it as an empty outcome and produce no output.
	ErrNothingFound = errors.New("no keywords found in the PDF")
)

// Keyword is a search term. It keeps its display case and is compared
// case-insensitively.
type Keyword string

// NewKeyword trims s and rejects blank input.
func NewKeyword(s string) (Keyword, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %q", ErrBlankKeyword, s)
	}
	return Keyword(trimmed), nil
}

// NewKeywords converts raw terms in order. Duplicates are kept.
func NewKeywords(raw []string) ([]Keyword, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyKeywordSet
	}

	keywords := make([]Keyword, 0, len(raw))
	for i, s := range raw {
		k, err := NewKeyword(s)
		if err != nil {
			return nil, fmt.Errorf("keyword %d: %w", i+1, err)
		}
		keywords = append(keywords, k)
	}
	return keywords, nil
}

func (k Keyword) String() string {
	return string(k)
}

// validateKeywords applies the NewKeyword rules to values built by conversion
func validateKeywords(keywords []Keyword) error {
	if len(keywords) == 0 {
		return ErrEmptyKeywordSet
	}
	for i, k := range keywords {
		if strings.TrimSpace(string(k)) == "" {
			return fmt.Errorf("keyword %d: %w", i+1, ErrBlankKeyword)
		}
	}
	return nil
}
