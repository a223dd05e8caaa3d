package export

import (
	"archive/zip"
	"fmt"
	"io"
	"time"
)

// Bundle writes a zip archive holding the highlighted PDF and the report
// under the names in names.
func Bundle(w io.Writer, names ArchiveNames, pdfData, reportData []byte) error {
	zw := zip.NewWriter(w)

	entries := []struct {
		name string
		data []byte
	}{
		{name: names.Highlighted, data: pdfData},
		{name: names.Report, data: reportData},
	}

	now := time.Now()
	for _, e := range entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}
