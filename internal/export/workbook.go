package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-pdf-highlighter/internal/scanner"
)

// DefaultSheetName is the title of the report worksheet.
const DefaultSheetName = "Keywords Report"

const columnPadding = 2

// WriteWorkbook writes table as a single-sheet xlsx workbook. Page numbers
// are stored as numbers and every column is sized to its longest cell.
func WriteWorkbook(w io.Writer, table *scanner.Table, sheet string) error {
	if table == nil {
		return fmt.Errorf("report table cannot be nil")
	}
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("invalid sheet name %q: %w", sheet, err)
	}

	records := table.Records()
	widths := make([]int, table.Width)

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := record
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}

		for col, value := range record {
			widths[col] = max(widths[col], utf8.RuneCountInString(fmt.Sprint(value)))
		}
	}

	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(width+columnPadding)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
