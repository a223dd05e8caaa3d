package pdf

import (
	"github.com/a3tai/mcp-pdf-highlighter/internal/export"
	"github.com/a3tai/mcp-pdf-highlighter/internal/keywords"
	"github.com/a3tai/mcp-pdf-highlighter/internal/scanner"
)

// FileInfo represents basic information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// HighlightRequest is an in-memory document to scan, as uploaded.
type HighlightRequest struct {
	Filename  string             `json:"filename"`
	Data      []byte             `json:"-"`
	Selection keywords.Selection `json:"selection"`
}

// HighlightFileRequest scans a PDF inside the configured directory and writes
// the archive next to it, or into OutputDir.
type HighlightFileRequest struct {
	Path      string             `json:"path"`
	OutputDir string             `json:"output_dir,omitempty"`
	Selection keywords.Selection `json:"selection"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// PDFSearchDirectoryRequest represents a request to search for PDF files in a directory
type PDFSearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
	Limit     int    `json:"limit,omitempty"`
}

// PDFServerInfoRequest asks for server information and usage guidance
type PDFServerInfoRequest struct{}

// Response Types

// KeywordPages lists the pages one keyword was found on.
type KeywordPages struct {
	Keyword string `json:"keyword"`
	Pages   []int  `json:"pages"`
}

// HighlightSummary describes a successful scan without the output bytes.
type HighlightSummary struct {
	Names         export.ArchiveNames `json:"names"`
	PageCount     int                 `json:"page_count"`
	KeywordsUsed  int                 `json:"keywords_used"`
	KeywordsFound int                 `json:"keywords_found"`
	Occurrences   int                 `json:"occurrences"`
	Highlights    int                 `json:"highlights"`
	SkippedPages  []int               `json:"skipped_pages,omitempty"`
	Report        []KeywordPages      `json:"report"`
}

// HighlightResult holds the highlighted PDF, the workbook and the archive
// that bundles them.
type HighlightResult struct {
	HighlightSummary
	Table          *scanner.Table `json:"-"`
	HighlightedPDF []byte         `json:"-"`
	Workbook       []byte         `json:"-"`
	Archive        []byte         `json:"-"`
}

// HighlightFileResult is a HighlightSummary plus where the archive was written.
type HighlightFileResult struct {
	HighlightSummary
	SourcePath  string `json:"source_path"`
	ArchivePath string `json:"archive_path"`
	ArchiveSize int64  `json:"archive_size"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// PDFSearchDirectoryResult represents the result of a directory search operation
type PDFSearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// KeywordCatalogResult lists the keywords users can pick from.
type KeywordCatalogResult struct {
	Keywords []string `json:"keywords"`
	Count    int      `json:"count"`
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	OutputDirectory   string     `json:"output_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	KeywordCount      int        `json:"keyword_count"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
