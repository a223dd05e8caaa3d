// Package export serializes a keyword report to a spreadsheet and packages
// it with the highlighted PDF into a zip archive.
package export

import (
	"path/filepath"
	"strings"
)

const (
	highlightedPrefix = "highlighted_"
	reportPrefix      = "keywords_report_"
	archivePrefix     = "highlighted_and_report_"

	// DefaultFilename is used when an upload carries no usable name.
	DefaultFilename = "document.pdf"
)

// ArchiveNames are the file names derived from an uploaded PDF's name.
type ArchiveNames struct {
	Original    string `json:"original"`
	Highlighted string `json:"highlighted"`
	Report      string `json:"report"`
	Archive     string `json:"archive"`
}

// Names derives output names from original. Any directory part is dropped.
// The highlighted PDF keeps the original name behind a prefix; the report
// and the archive use the name without its .pdf extension.
func Names(original string) ArchiveNames {
	base := strings.ReplaceAll(strings.TrimSpace(original), `\`, "/")
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if base == "" || base == "." || base == ".." {
		base = DefaultFilename
	}

	stem := base
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".pdf") {
		stem = strings.TrimSuffix(base, ext)
	}

	return ArchiveNames{
		Original:    base,
		Highlighted: highlightedPrefix + base,
		Report:      reportPrefix + stem + ".xlsx",
		Archive:     archivePrefix + stem + ".zip",
	}
}
