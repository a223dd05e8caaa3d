package pdf

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-pdf-highlighter/internal/descriptions"
	"github.com/a3tai/mcp-pdf-highlighter/internal/keywords"
	"github.com/a3tai/mcp-pdf-highlighter/internal/logging"
	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/wrapper"
	"github.com/a3tai/mcp-pdf-highlighter/internal/scanner"
	"github.com/a3tai/mcp-pdf-highlighter/internal/testutil"
)

func newTestService(t *testing.T, dir string, mutate ...func(*Options)) *Service {
	t.Helper()

	opts := Options{
		MaxFileSize: 1024 * 1024,
		Directory:   dir,
		ScanTimeout: time.Minute,
		ServerName:  "mcp-pdf-highlighter",
		Version:     "test",
		Logger:      logging.Discard(),
	}
	for _, m := range mutate {
		m(&opts)
	}

	svc, err := NewService(opts)
	require.NoError(t, err)
	return svc
}

func planningPDF() []byte {
	return testutil.BuildPDF(
		testutil.TextPage("Draft Master Plan for the precinct", "master plan consultation"),
		testutil.TextPage("Nothing relevant here"),
		testutil.TextPage("REZONING of the Master Plan area"),
	)
}

func zipEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = buf.Bytes()
	}
	return entries
}

func TestNewService(t *testing.T) {
	dir := t.TempDir()

	t.Run("defaults", func(t *testing.T) {
		svc := newTestService(t, dir)
		assert.Equal(t, dir, svc.GetConfiguredDirectory())
		assert.Equal(t, int64(1024*1024), svc.GetMaxFileSize())
		assert.Equal(t, keywords.Catalog(), svc.Keywords().Keywords)
		assert.Equal(t, scanner.DefaultColor, svc.opts.Color)
		assert.NotEmpty(t, svc.opts.ReportSheet)
	})

	t.Run("custom catalog", func(t *testing.T) {
		svc := newTestService(t, dir, func(o *Options) { o.Catalog = []string{"Rezoning"} })
		result := svc.Keywords()
		assert.Equal(t, []string{"Rezoning"}, result.Keywords)
		assert.Equal(t, 1, result.Count)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewService(Options{Directory: dir})
		assert.Error(t, err)

		_, err = NewService(Options{MaxFileSize: 1})
		assert.Error(t, err)
	})
}

func TestService_Highlight(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	result, err := svc.Highlight(context.Background(), HighlightRequest{
		Filename:  "Council Minutes.PDF",
		Data:      planningPDF(),
		Selection: keywords.Selection{Picked: []string{"Master Plan", "Rezoning", "Budget"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "highlighted_Council Minutes.PDF", result.Names.Highlighted)
	assert.Equal(t, "keywords_report_Council Minutes.xlsx", result.Names.Report)
	assert.Equal(t, "highlighted_and_report_Council Minutes.zip", result.Names.Archive)

	assert.Equal(t, 3, result.PageCount)
	assert.Equal(t, 3, result.KeywordsUsed)
	assert.Equal(t, 2, result.KeywordsFound)
	assert.Equal(t, 4, result.Occurrences)
	assert.Equal(t, 4, result.Highlights)
	assert.Empty(t, result.SkippedPages)
	assert.Equal(t, []KeywordPages{
		{Keyword: "Master Plan", Pages: []int{1, 3}},
		{Keyword: "Rezoning", Pages: []int{3}},
	}, result.Report)

	t.Run("highlighted pdf carries the annotations", func(t *testing.T) {
		doc, err := wrapper.Open(result.HighlightedPDF)
		require.NoError(t, err)
		assert.Equal(t, 3, doc.PageCount())

		page, err := doc.Page(1)
		require.NoError(t, err)
		assert.NotEmpty(t, page.Runs)
	})

	t.Run("archive holds both outputs", func(t *testing.T) {
		entries := zipEntries(t, result.Archive)
		require.Len(t, entries, 2)
		assert.Equal(t, result.HighlightedPDF, entries[result.Names.Highlighted])
		assert.Equal(t, result.Workbook, entries[result.Names.Report])
	})

	t.Run("workbook lists pages", func(t *testing.T) {
		f, err := excelize.OpenReader(bytes.NewReader(result.Workbook))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(svc.opts.ReportSheet)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"Keyword", "Occurrence 1", "Occurrence 2"}, rows[0])
		assert.Equal(t, []string{"Master Plan", "1", "3"}, rows[1])
		assert.Equal(t, []string{"Rezoning", "3"}, rows[2])
	})
}

func TestService_HighlightErrors(t *testing.T) {
	svc := newTestService(t, t.TempDir(), func(o *Options) { o.MaxFileSize = 4096 })
	picked := keywords.Selection{Picked: []string{"Master Plan"}}

	tests := []struct {
		name    string
		req     HighlightRequest
		wantErr error
	}{
		{
			name:    "empty selection",
			req:     HighlightRequest{Filename: "a.pdf", Data: planningPDF()},
			wantErr: scanner.ErrEmptyKeywordSet,
		},
		{
			name:    "blank custom keywords only",
			req:     HighlightRequest{Filename: "a.pdf", Data: planningPDF(), Selection: keywords.Selection{Custom: "\n  \n"}},
			wantErr: scanner.ErrEmptyKeywordSet,
		},
		{
			name:    "not a pdf",
			req:     HighlightRequest{Filename: "a.pdf", Data: []byte("hello"), Selection: picked},
			wantErr: ErrNotPDF,
		},
		{
			name:    "too large",
			req:     HighlightRequest{Filename: "a.pdf", Data: append([]byte("%PDF-1.4"), make([]byte, 4096)...), Selection: picked},
			wantErr: ErrFileTooLarge,
		},
		{
			name:    "malformed",
			req:     HighlightRequest{Filename: "a.pdf", Data: []byte("%PDF-1.4\ngarbage"), Selection: picked},
			wantErr: wrapper.ErrMalformedDocument,
		},
		{
			name: "nothing found",
			req: HighlightRequest{
				Filename:  "a.pdf",
				Data:      testutil.BuildPDF(testutil.TextPage("quarterly budget")),
				Selection: picked,
			},
			wantErr: scanner.ErrNothingFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Highlight(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}
}

func TestService_HighlightTimeout(t *testing.T) {
	svc := newTestService(t, t.TempDir(), func(o *Options) { o.ScanTimeout = time.Nanosecond })

	_, err := svc.Highlight(context.Background(), HighlightRequest{
		Filename:  "a.pdf",
		Data:      planningPDF(),
		Selection: keywords.Selection{All: true},
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_HighlightSelectAll(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	result, err := svc.Highlight(context.Background(), HighlightRequest{
		Filename:  "plan.pdf",
		Data:      planningPDF(),
		Selection: keywords.Selection{All: true, Custom: "precinct\nconsultation"},
	})
	require.NoError(t, err)

	assert.Equal(t, len(keywords.Catalog())+2, result.KeywordsUsed)
	assert.Len(t, result.Report, result.KeywordsFound)
	assert.Contains(t, result.Report, KeywordPages{Keyword: "precinct", Pages: []int{1}})
}

func TestService_HighlightFile(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	svc := newTestService(t, dir, func(o *Options) { o.OutputDirectory = outDir })

	testutil.WritePDF(t, dir, "minutes.pdf",
		testutil.TextPage("Master Plan"), testutil.TextPage("no match"))
	picked := keywords.Selection{Picked: []string{"Master Plan"}}

	t.Run("default output directory", func(t *testing.T) {
		result, err := svc.HighlightFile(context.Background(), HighlightFileRequest{
			Path:      "minutes.pdf",
			Selection: picked,
		})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "minutes.pdf"), result.SourcePath)
		assert.Equal(t, filepath.Join(outDir, "highlighted_and_report_minutes.zip"), result.ArchivePath)

		data, err := os.ReadFile(result.ArchivePath)
		require.NoError(t, err)
		assert.Equal(t, result.ArchiveSize, int64(len(data)))
		assert.Len(t, zipEntries(t, data), 2)
	})

	t.Run("output directory inside the pdf directory", func(t *testing.T) {
		target := filepath.Join(dir, "out")
		result, err := svc.HighlightFile(context.Background(), HighlightFileRequest{
			Path:      filepath.Join(dir, "minutes.pdf"),
			OutputDir: target,
			Selection: picked,
		})
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(target, "highlighted_and_report_minutes.zip"))
		assert.Equal(t, []int{1}, result.Report[0].Pages)
	})

	t.Run("output directory outside both roots", func(t *testing.T) {
		_, err := svc.HighlightFile(context.Background(), HighlightFileRequest{
			Path:      "minutes.pdf",
			OutputDir: t.TempDir(),
			Selection: picked,
		})
		assert.ErrorContains(t, err, "security validation failed")
	})

	t.Run("path outside directory", func(t *testing.T) {
		_, err := svc.HighlightFile(context.Background(), HighlightFileRequest{
			Path:      "../minutes.pdf",
			Selection: picked,
		})
		assert.Error(t, err)
	})

	t.Run("nothing found writes nothing", func(t *testing.T) {
		testutil.WritePDF(t, dir, "empty.pdf", testutil.TextPage("budget only"))
		_, err := svc.HighlightFile(context.Background(), HighlightFileRequest{
			Path:      "empty.pdf",
			Selection: picked,
		})
		assert.ErrorIs(t, err, scanner.ErrNothingFound)
		assert.NoFileExists(t, filepath.Join(outDir, "highlighted_and_report_empty.zip"))
	})
}

func TestService_PDFValidateFile(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	testutil.WritePDF(t, dir, "ok.pdf", testutil.TextPage("hello"))

	result, err := svc.PDFValidateFile(PDFValidateFileRequest{Path: "ok.pdf"})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, filepath.Join(dir, "ok.pdf"), result.Path)

	_, err = svc.PDFValidateFile(PDFValidateFileRequest{Path: "/etc/passwd"})
	assert.Error(t, err)
}

func TestService_PDFSearchDirectory(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	testutil.WritePDF(t, dir, "agenda.pdf", testutil.TextPage("hello"))

	result, err := svc.PDFSearchDirectory(context.Background(), PDFSearchDirectoryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, dir, result.Directory)

	_, err = svc.PDFSearchDirectory(context.Background(), PDFSearchDirectoryRequest{Directory: "/"})
	assert.Error(t, err)
}

func TestService_PDFServerInfo(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	testutil.WritePDF(t, dir, "agenda.pdf", testutil.TextPage("hello"))

	info, err := svc.PDFServerInfo(context.Background(), PDFServerInfoRequest{})
	require.NoError(t, err)

	assert.Equal(t, "mcp-pdf-highlighter", info.ServerName)
	assert.Equal(t, "test", info.Version)
	assert.Equal(t, dir, info.DefaultDirectory)
	assert.Equal(t, dir, info.OutputDirectory)
	assert.Equal(t, len(keywords.Catalog()), info.KeywordCount)
	assert.Len(t, info.DirectoryContents, 1)
	assert.Contains(t, info.UsageGuidance, "1MB")

	names := make([]string, 0, len(info.AvailableTools))
	for _, tool := range info.AvailableTools {
		names = append(names, tool.Name)
		assert.NotEqual(t, "Tool description not available", tool.Description)
	}
	assert.ElementsMatch(t, descriptions.GetAllToolNames(), names)
}
