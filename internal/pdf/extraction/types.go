package extraction

import (
	"errors"
	"math"
	"unicode/utf8"
)

var (
	// ErrPageOutOfRange is returned for page numbers outside 1..NumPage.
	ErrPageOutOfRange = errors.New("page number out of range")
	// ErrPageContent is returned when a page's content stream cannot be decoded.
	ErrPageContent = errors.New("page content could not be decoded")
)

// Rect represents a rectangular area in PDF user space. The origin is the
// lower left corner of the page, y grows upwards.
type Rect struct {
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	return r.Top - r.Bottom
}

// IsEmpty reports whether the rectangle covers no area.
func (r Rect) IsEmpty() bool {
	return !(r.Right > r.Left) || !(r.Top > r.Bottom)
}

// Normalize swaps inverted coordinates so that Left <= Right and Bottom <= Top.
func (r Rect) Normalize() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Bottom > r.Top {
		r.Bottom, r.Top = r.Top, r.Bottom
	}
	return r
}

// Intersect returns the overlap of r and other. The zero Rect is returned when
// they do not overlap.
func (r Rect) Intersect(other Rect) Rect {
	out := Rect{
		Left:   math.Max(r.Left, other.Left),
		Bottom: math.Max(r.Bottom, other.Bottom),
		Right:  math.Min(r.Right, other.Right),
		Top:    math.Min(r.Top, other.Top),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// TextRun is a contiguous span of text sharing one font, size and baseline.
type TextRun struct {
	Text     string  `json:"text"`
	Box      Rect    `json:"box"`
	Font     string  `json:"font,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
}

// CharCount returns the number of characters in the run.
func (r TextRun) CharCount() int {
	return utf8.RuneCountInString(r.Text)
}

// CharWidth returns the uniform per-character width used to place sub-spans
// of the run. Proportional fonts make this an approximation. Zero is returned
// for empty runs.
func (r TextRun) CharWidth() float64 {
	n := r.CharCount()
	if n == 0 {
		return 0
	}
	return r.Box.Width() / float64(n)
}

// Page holds the text runs of one page together with its visible area.
type Page struct {
	Number int       `json:"number"`
	Box    Rect      `json:"box"`
	Runs   []TextRun `json:"runs"`
}
