// Package testutil assembles small, valid PDF files for tests that need a real
// document on both the text and the object-model side.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CourierAdvance is the advance width, in glyph units, of every character in
// the fixed-pitch font embedded by the builder.
const CourierAdvance = 600

// TextLine is one text showing operation placed at (X, Y) with the given size.
type TextLine struct {
	X, Y float64
	Size float64
	Text string
}

// PageSpec describes a single page. A zero MediaBox inherits the page tree's
// US Letter box.
type PageSpec struct {
	MediaBox [4]float64
	CropBox  [4]float64
	Lines    []TextLine
	// Links adds that many link annotations. IndirectAnnots stores the
	// /Annots array as its own object instead of inline.
	Links          int
	IndirectAnnots bool
}

// Line returns a 12pt line at the usual left margin.
func Line(y float64, text string) TextLine {
	return TextLine{X: 72, Y: y, Size: 12, Text: text}
}

// TextPage returns a page holding one 12pt line per string, top to bottom.
func TextPage(lines ...string) PageSpec {
	spec := PageSpec{}
	for i, text := range lines {
		spec.Lines = append(spec.Lines, Line(700-float64(i)*20, text))
	}
	return spec
}

// BuildPDF assembles a PDF with the given pages.
func BuildPDF(pages ...PageSpec) []byte {
	if len(pages) == 0 {
		pages = []PageSpec{{}}
	}

	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // filled after the page tree is known
	pagesObj := add("")
	font := add(fontDict())

	var kids []string
	for _, page := range pages {
		var content strings.Builder
		for _, line := range page.Lines {
			fmt.Fprintf(&content, "BT /F1 %s Tf %s %s Td (%s) Tj ET\n",
				num(line.Size), num(line.X), num(line.Y), escape(line.Text))
		}
		stream := content.String()
		contents := add(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))

		var extra strings.Builder
		if page.MediaBox != [4]float64{} {
			fmt.Fprintf(&extra, " /MediaBox %s", box(page.MediaBox))
		}
		if page.CropBox != [4]float64{} {
			fmt.Fprintf(&extra, " /CropBox %s", box(page.CropBox))
		}
		if page.Links > 0 {
			var refs []string
			for i := 0; i < page.Links; i++ {
				link := add(fmt.Sprintf("<< /Type /Annot /Subtype /Link /Rect [%d 10 %d 20] /Border [0 0 0] "+
					"/A << /S /URI /URI (https://example.com) >> >>",
					10+i*20, 20+i*20))
				refs = append(refs, fmt.Sprintf("%d 0 R", link))
			}
			annots := "[" + strings.Join(refs, " ") + "]"
			if page.IndirectAnnots {
				annots = fmt.Sprintf("%d 0 R", add(annots))
			}
			fmt.Fprintf(&extra, " /Annots %s", annots)
		}
		pageObj := add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R%s >>",
			pagesObj, font, contents, extra.String()))
		kids = append(kids, fmt.Sprintf("%d 0 R", pageObj))
	}

	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	objects[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, catalog, xref)

	return buf.Bytes()
}

// WritePDF writes a built PDF into dir and returns its path.
func WritePDF(t *testing.T, dir, name string, pages ...PageSpec) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, BuildPDF(pages...), 0o644); err != nil {
		t.Fatalf("failed to write test PDF %s: %v", name, err)
	}
	return path
}

func fontDict() string {
	widths := make([]string, 0, 126-32+1)
	for c := 32; c <= 126; c++ {
		widths = append(widths, fmt.Sprint(CourierAdvance))
	}
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding "+
		"/FirstChar 32 /LastChar 126 /Widths [%s] >>", strings.Join(widths, " "))
}

func box(b [4]float64) string {
	return fmt.Sprintf("[%s %s %s %s]", num(b[0]), num(b[1]), num(b[2]), num(b[3]))
}

func num(f float64) string {
	s := fmt.Sprintf("%.3f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
