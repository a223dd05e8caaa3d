package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-highlighter/internal/export"
	"github.com/a3tai/mcp-pdf-highlighter/internal/keywords"
	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-highlighter/internal/scanner"
)

const (
	// serverInfoFileLimit caps the directory listing in server info
	serverInfoFileLimit = 100
	serverInfoTimeout   = 5 * time.Second

	archivePerm = 0o644
)

// Options configures a Service.
type Options struct {
	MaxFileSize     int64
	Directory       string
	OutputDirectory string
	ScanTimeout     time.Duration
	Color           color.SimpleColor
	ReportSheet     string
	// Catalog is offered to users and backs Selection.All. Empty means the
	// built-in planning keywords.
	Catalog    []string
	ServerName string
	Version    string
	Logger     logrus.FieldLogger
}

// Service handles PDF highlighting by orchestrating validation, scanning,
// report building and packaging
type Service struct {
	opts          Options
	catalog       []string
	validator     *Validator
	search        *Search
	scanner       *scanner.Scanner
	pathValidator *security.PathValidator
	outputPaths   *security.PathValidator
	logger        logrus.FieldLogger
}

// NewService creates a new PDF service with all components
func NewService(opts Options) (*Service, error) {
	if opts.MaxFileSize <= 0 {
		return nil, fmt.Errorf("maximum file size must be positive")
	}

	pathValidator, err := security.NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	if opts.OutputDirectory == "" {
		opts.OutputDirectory = pathValidator.GetConfiguredDirectory()
	}
	outputPaths, err := security.NewPathValidator(opts.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create output path validator: %w", err)
	}

	if opts.ReportSheet == "" {
		opts.ReportSheet = export.DefaultSheetName
	}
	if opts.Color == (color.SimpleColor{}) {
		opts.Color = scanner.DefaultColor
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	catalog := append([]string(nil), opts.Catalog...)
	if len(catalog) == 0 {
		catalog = keywords.Catalog()
	}

	return &Service{
		opts:          opts,
		catalog:       catalog,
		validator:     NewValidator(opts.MaxFileSize),
		search:        NewSearch(opts.MaxFileSize),
		scanner:       scanner.New(scanner.WithColor(opts.Color), scanner.WithLogger(opts.Logger)),
		pathValidator: pathValidator,
		outputPaths:   outputPaths,
		logger:        opts.Logger,
	}, nil
}

// Keywords returns the catalog users pick from.
func (s *Service) Keywords() *KeywordCatalogResult {
	list := append([]string(nil), s.catalog...)
	return &KeywordCatalogResult{Keywords: list, Count: len(list)}
}

// Resolve turns a selection into scanner keywords. It fails with
// scanner.ErrEmptyKeywordSet when nothing was selected.
func (s *Service) Resolve(selection keywords.Selection) ([]scanner.Keyword, error) {
	return scanner.NewKeywords(selection.Resolve(s.catalog))
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.pathValidator.NormalizePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// PDFSearchDirectory searches for PDF files in a directory
func (s *Service) PDFSearchDirectory(ctx context.Context, req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	// If no directory specified, use configured directory
	if req.Directory == "" {
		req.Directory = s.pathValidator.GetConfiguredDirectory()
	}

	// Validate directory is within configured bounds
	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	return s.search.SearchDirectory(ctx, req)
}

// Highlight scans an in-memory PDF. On success the result carries the
// highlighted PDF, the workbook and the zip archive. scanner.ErrNothingFound
// is returned, with no result, when no keyword matched.
func (s *Service) Highlight(ctx context.Context, req HighlightRequest) (*HighlightResult, error) {
	start := time.Now()

	selected, err := s.Resolve(req.Selection)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateData(req.Data); err != nil {
		return nil, err
	}

	names := export.Names(req.Filename)
	logger := s.logger.WithFields(logrus.Fields{
		"file":     names.Original,
		"keywords": len(selected),
	})

	ctx, cancel := context.WithTimeout(ctx, s.opts.ScanTimeoutOrDefault())
	defer cancel()

	doc, err := openDocument(req.Data, s.opts)
	if err != nil {
		return nil, err
	}

	result, err := s.scanner.Run(ctx, doc, selected)
	if errors.Is(err, scanner.ErrNothingFound) {
		logger.WithField("pages", doc.PageCount()).Info("no keywords found")
		return nil, err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan did not finish within %s: %w", s.opts.ScanTimeoutOrDefault(), err)
	}
	if err != nil {
		return nil, err
	}

	out, err := s.pack(doc, result, names)
	if err != nil {
		return nil, err
	}

	out.HighlightSummary = HighlightSummary{
		Names:         names,
		PageCount:     doc.PageCount(),
		KeywordsUsed:  len(selected),
		KeywordsFound: result.Index.FoundKeywords(),
		Occurrences:   result.Index.Occurrences(),
		Highlights:    result.Index.Highlights(),
		SkippedPages:  doc.SkippedPages(),
		Report:        reportRows(result.Table),
	}

	logger.WithFields(logrus.Fields{
		"pages":       out.PageCount,
		"found":       out.KeywordsFound,
		"annotations": out.Highlights,
		"skipped":     len(out.SkippedPages),
		"duration":    time.Since(start).String(),
	}).Info("highlighted PDF")

	return out, nil
}

// HighlightFile runs Highlight on a file inside the configured directory and
// writes the archive to disk.
func (s *Service) HighlightFile(ctx context.Context, req HighlightFileRequest) (*HighlightFileResult, error) {
	path, err := s.pathValidator.NormalizePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := s.validator.ValidateFileInfo(path, info); err != nil {
		return nil, err
	}

	outputDir, err := s.outputDirectory(req.OutputDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	result, err := s.Highlight(ctx, HighlightRequest{
		Filename:  filepath.Base(path),
		Data:      data,
		Selection: req.Selection,
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}
	archivePath := filepath.Join(outputDir, result.Names.Archive)
	if err := os.WriteFile(archivePath, result.Archive, archivePerm); err != nil {
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}

	return &HighlightFileResult{
		HighlightSummary: result.HighlightSummary,
		SourcePath:       path,
		ArchivePath:      archivePath,
		ArchiveSize:      int64(len(result.Archive)),
	}, nil
}

// outputDirectory picks where archives go. An explicit directory must lie in
// the PDF directory or the configured output directory.
func (s *Service) outputDirectory(requested string) (string, error) {
	if requested == "" {
		return s.outputPaths.GetConfiguredDirectory(), nil
	}
	if !filepath.IsAbs(requested) {
		requested = filepath.Join(s.outputPaths.GetConfiguredDirectory(), requested)
	}

	if err := s.outputPaths.ValidateDirectory(requested); err == nil {
		return filepath.Abs(requested)
	}
	if err := s.pathValidator.ValidateDirectory(requested); err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	return filepath.Abs(requested)
}

// PDFServerInfo returns server information and usage guidance
func (s *Service) PDFServerInfo(ctx context.Context, _ PDFServerInfoRequest) (*PDFServerInfoResult, error) {
	ctx, cancel := context.WithTimeout(ctx, serverInfoTimeout)
	defer cancel()

	// A slow or failing directory scan still returns the rest of the info
	contents := []FileInfo{}
	if found, err := s.search.SearchDirectory(ctx, PDFSearchDirectoryRequest{
		Directory: s.pathValidator.GetConfiguredDirectory(),
		Limit:     serverInfoFileLimit,
	}); err == nil {
		contents = found.Files
	}

	return &PDFServerInfoResult{
		ServerName:        s.opts.ServerName,
		Version:           s.opts.Version,
		DefaultDirectory:  s.pathValidator.GetConfiguredDirectory(),
		OutputDirectory:   s.outputPaths.GetConfiguredDirectory(),
		MaxFileSize:       s.opts.MaxFileSize,
		KeywordCount:      len(s.catalog),
		AvailableTools:    availableTools(),
		DirectoryContents: contents,
		UsageGuidance:     usageGuidance(s.opts.MaxFileSize),
	}, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.opts.MaxFileSize
}

// GetConfiguredDirectory returns the directory files are served from
func (s *Service) GetConfiguredDirectory() string {
	return s.pathValidator.GetConfiguredDirectory()
}

// ScanTimeoutOrDefault returns ScanTimeout, or two minutes when unset.
func (o Options) ScanTimeoutOrDefault() time.Duration {
	if o.ScanTimeout <= 0 {
		return 2 * time.Minute
	}
	return o.ScanTimeout
}

func reportRows(table *scanner.Table) []KeywordPages {
	rows := make([]KeywordPages, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, KeywordPages{Keyword: string(row.Keyword), Pages: append([]int(nil), row.Pages...)})
	}
	return rows
}
