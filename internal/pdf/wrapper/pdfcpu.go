package wrapper

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/extraction"
)

const (
	// Annotation flag bit 3: print the annotation with the page
	annotFlagPrint = 4
)

func init() {
	// pdfcpu would otherwise create a configuration directory in the user's home
	api.DisableConfigDir()
}

// openModel parses data with pdfcpu, which owns the writable object model
func openModel(data []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, malformed(LibraryPDFCPU, "open", fmt.Errorf("failed to read PDF context: %w", err))
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, malformed(LibraryPDFCPU, "open", fmt.Errorf("failed to ensure page count: %w", err))
	}

	return ctx, nil
}

// visibleBox returns the CropBox, or the MediaBox, of a page as seen by pdfcpu
func (d *Document) visibleBox(pageNum int) (extraction.Rect, error) {
	_, _, inherited, err := d.model.PageDict(pageNum, false)
	if err != nil {
		return extraction.Rect{}, err
	}
	if inherited == nil {
		return extraction.Rect{}, errors.New("no inherited page attributes")
	}

	box := inherited.CropBox
	if box == nil {
		box = inherited.MediaBox
	}
	if box == nil {
		return extraction.Rect{}, errors.New("page has no media box")
	}

	return extraction.Rect{
		Left:   box.LL.X,
		Bottom: box.LL.Y,
		Right:  box.UR.X,
		Top:    box.UR.Y,
	}.Normalize(), nil
}

// AddHighlight places a highlight annotation over region on a 1-based page.
// Calling it twice with the same region stacks an identical highlight.
func (d *Document) AddHighlight(pageNum int, region extraction.Rect, c color.SimpleColor, label string) error {
	if region.IsEmpty() {
		return &WrapperError{Library: LibraryPDFCPU, Op: "add_highlight", Err: errors.New("highlight region is empty")}
	}
	if pageNum < 1 || pageNum > d.model.PageCount {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "add_highlight",
			Err:     fmt.Errorf("%w: %d", extraction.ErrPageOutOfRange, pageNum),
		}
	}

	pageDict, pageRef, _, err := d.model.PageDict(pageNum, false)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "add_highlight", Err: err}
	}
	if pageDict == nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "add_highlight", Err: fmt.Errorf("page %d not found", pageNum)}
	}

	appearance, err := d.appearanceStream(region, c)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "appearance", Err: err}
	}

	annot := types.Dict(map[string]types.Object{
		"Type":       types.Name("Annot"),
		"Subtype":    types.Name("Highlight"),
		"Rect":       types.NewNumberArray(region.Left, region.Bottom, region.Right, region.Top),
		"QuadPoints": quadPoints(region),
		"C":          colorArray(c),
		"CA":         types.Float(d.style.Opacity),
		"F":          types.Integer(annotFlagPrint),
		"NM":         types.StringLiteral(uuid.NewString()),
		"M":          types.StringLiteral(time.Now().UTC().Format("D:20060102150405Z")),
		"Contents":   textString(label),
		"T":          textString(d.style.Title),
		"AP":         types.Dict(map[string]types.Object{"N": *appearance}),
	})
	if pageRef != nil {
		annot["P"] = *pageRef
	}

	annotRef, err := d.model.IndRefForNewObject(annot)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "add_highlight", Err: err}
	}

	if err := d.appendAnnotation(pageDict, *annotRef); err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "add_highlight", Err: err}
	}

	d.highlights = append(d.highlights, Highlight{Page: pageNum, Region: region, Color: c, Label: label})
	return nil
}

// appendAnnotation adds ref to the page's /Annots, which may be missing,
// a direct array or an indirect array
func (d *Document) appendAnnotation(pageDict types.Dict, ref types.IndirectRef) error {
	obj, found := pageDict.Find("Annots")
	if !found || obj == nil {
		pageDict.Insert("Annots", types.Array{ref})
		return nil
	}

	if indRef, ok := obj.(types.IndirectRef); ok {
		annots, err := d.model.DereferenceArray(indRef)
		if err != nil {
			return fmt.Errorf("failed to dereference Annots array: %w", err)
		}
		entry, ok := d.model.FindTableEntryForIndRef(&indRef)
		if !ok || entry == nil {
			return fmt.Errorf("annots object %s not found", indRef)
		}
		entry.Object = append(annots, ref)
		return nil
	}

	annots, ok := obj.(types.Array)
	if !ok {
		return fmt.Errorf("unexpected Annots type %T", obj)
	}
	pageDict.Update("Annots", append(annots, ref))
	return nil
}

// appearanceStream builds the /N appearance: a filled rectangle multiplied
// onto the page so the text stays readable
func (d *Document) appearanceStream(region extraction.Rect, c color.SimpleColor) (*types.IndirectRef, error) {
	w, h := region.Width(), region.Height()
	content := fmt.Sprintf("/GS0 gs %.3f %.3f %.3f rg 0 0 %.3f %.3f re f\n", c.R, c.G, c.B, w, h)

	sd, err := d.model.NewStreamDictForBuf([]byte(content))
	if err != nil {
		return nil, err
	}
	sd.InsertName("Type", "XObject")
	sd.InsertName("Subtype", "Form")
	sd.Insert("BBox", types.NewNumberArray(0, 0, w, h))
	sd.Insert("Resources", types.Dict(map[string]types.Object{
		"ExtGState": types.Dict(map[string]types.Object{
			"GS0": types.Dict(map[string]types.Object{
				"Type": types.Name("ExtGState"),
				"BM":   types.Name("Multiply"),
				"CA":   types.Float(d.style.Opacity),
				"ca":   types.Float(d.style.Opacity),
			}),
		}),
	}))

	if err := sd.Encode(); err != nil {
		return nil, err
	}

	return d.model.IndRefForNewObject(*sd)
}

// Write serializes the document, including every highlight added so far.
func (d *Document) Write(w io.Writer) error {
	if err := api.WriteContext(d.model, w); err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "write", Err: err}
	}
	return nil
}

// Bytes serializes the document into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// quadPoints lists the corners in the order viewers expect for text markup:
// upper left, upper right, lower left, lower right
func quadPoints(r extraction.Rect) types.Array {
	return types.NewNumberArray(
		r.Left, r.Top,
		r.Right, r.Top,
		r.Left, r.Bottom,
		r.Right, r.Bottom,
	)
}

func colorArray(c color.SimpleColor) types.Array {
	return types.NewNumberArray(float64(c.R), float64(c.G), float64(c.B))
}

// textString encodes s as a PDF text string: a literal for printable ASCII,
// UTF-16BE hex otherwise
func textString(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			ascii = false
			break
		}
	}

	if ascii {
		escaper := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
		return types.StringLiteral(escaper.Replace(s))
	}

	units := utf16.Encode([]rune(s))
	buf := make([]byte, 2, 2+2*len(units))
	buf[0], buf[1] = 0xfe, 0xff
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return types.HexLiteral(hex.EncodeToString(buf))
}
