package pdf

import (
	"bytes"
	"fmt"

	"github.com/a3tai/mcp-pdf-highlighter/internal/export"
	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/wrapper"
	"github.com/a3tai/mcp-pdf-highlighter/internal/scanner"
)

// openDocument parses data with the configured annotation style
func openDocument(data []byte, opts Options) (*wrapper.Document, error) {
	style := wrapper.DefaultHighlightStyle()
	if opts.ServerName != "" {
		style.Title = opts.ServerName
	}
	return wrapper.Open(data, wrapper.WithStyle(style))
}

// pack serializes the annotated document, renders the report and zips both.
func (s *Service) pack(doc *wrapper.Document, result *scanner.Result, names export.ArchiveNames) (*HighlightResult, error) {
	highlighted, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write highlighted PDF: %w", err)
	}

	var workbook bytes.Buffer
	if err := export.WriteWorkbook(&workbook, result.Table, s.opts.ReportSheet); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	var archive bytes.Buffer
	if err := export.Bundle(&archive, names, highlighted, workbook.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to bundle output: %w", err)
	}

	return &HighlightResult{
		Table:          result.Table,
		HighlightedPDF: highlighted,
		Workbook:       workbook.Bytes(),
		Archive:        archive.Bytes(),
	}, nil
}
