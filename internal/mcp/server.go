package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-highlighter/internal/config"
	"github.com/a3tai/mcp-pdf-highlighter/internal/descriptions"
	"github.com/a3tai/mcp-pdf-highlighter/internal/keywords"
	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf"
	"github.com/a3tai/mcp-pdf-highlighter/internal/scanner"
)

// NothingFoundText is returned, as a normal result, when a scan matched nothing.
const NothingFoundText = "No keywords found in the PDF."

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *logrus.Entry

	stdin  io.Reader
	stdout io.Writer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *logrus.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger.WithField("component", "mcp"),
		stdin:      os.Stdin,
		stdout:     os.Stdout,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	highlightTool := mcp.NewTool(
		descriptions.ToolHighlightKeywords,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolHighlightKeywords)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, relative to the configured directory or absolute"),
		),
		mcp.WithArray("keywords",
			mcp.Description("Catalog keywords to highlight (see pdf_list_keywords)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("select_all",
			mcp.Description("Highlight every catalog keyword"),
		),
		mcp.WithString("custom_keywords",
			mcp.Description("Extra keywords, one per line"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory for the zip archive (defaults to the configured output directory)"),
		),
	)
	s.mcpServer.AddTool(highlightTool, s.handleHighlightKeywords)

	listTool := mcp.NewTool(
		descriptions.ToolListKeywords,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolListKeywords)),
	)
	s.mcpServer.AddTool(listTool, s.handleListKeywords)

	validateTool := mcp.NewTool(
		descriptions.ToolValidateFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolValidateFile)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handlePDFValidateFile)

	searchTool := mcp.NewTool(
		descriptions.ToolSearchDirectory,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolSearchDirectory)),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handlePDFSearchDirectory)

	infoTool := mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolServerInfo)),
	)
	s.mcpServer.AddTool(infoTool, s.handlePDFServerInfo)
}

// Handler functions
func (s *Server) handleHighlightKeywords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	req := pdf.HighlightFileRequest{
		Path:      path,
		OutputDir: stringArg(args, "output_dir"),
		Selection: keywords.Selection{
			All:    boolArg(args, "select_all"),
			Picked: stringSliceArg(args, "keywords"),
			Custom: stringArg(args, "custom_keywords"),
		},
	}

	logger := s.logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"tool":       descriptions.ToolHighlightKeywords,
		"file":       path,
	})

	result, err := s.pdfService.HighlightFile(ctx, req)
	switch {
	case errors.Is(err, scanner.ErrNothingFound):
		return mcp.NewToolResultText(NothingFoundText), nil
	case errors.Is(err, scanner.ErrEmptyKeywordSet):
		return mcp.NewToolResultError("Select at least one keyword: pass keywords, select_all or custom_keywords"), nil
	case err != nil:
		logger.WithError(err).Warn("highlight failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	logger.WithField("archive", result.ArchivePath).Info("highlight complete")
	return mcp.NewToolResultText(s.formatHighlightResult(result)), nil
}

func (s *Server) handleListKeywords(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.pdfService.Keywords()

	var b strings.Builder
	fmt.Fprintf(&b, "%d keywords available:\n", result.Count)
	for _, k := range result.Keywords {
		fmt.Fprintf(&b, "• %s\n", k)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handlePDFValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	req := pdf.PDFSearchDirectoryRequest{
		Directory: stringArg(args, "directory"),
		Query:     stringArg(args, "query"),
	}

	result, err := s.pdfService.PDFSearchDirectory(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatPDFSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(ctx, pdf.PDFServerInfoRequest{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFServerInfoResult(result)), nil
}

// Formatting methods
func (s *Server) formatHighlightResult(result *pdf.HighlightFileResult) string {
	text := fmt.Sprintf("Highlighted %s\n", result.SourcePath)
	text += fmt.Sprintf("Archive: %s (%d bytes)\n", result.ArchivePath, result.ArchiveSize)
	text += fmt.Sprintf("  %s\n  %s\n", result.Names.Highlighted, result.Names.Report)
	text += fmt.Sprintf("Pages: %d\n", result.PageCount)
	text += fmt.Sprintf("Keywords found: %d of %d\n", result.KeywordsFound, result.KeywordsUsed)
	text += fmt.Sprintf("Occurrences: %d (%d highlighted)\n", result.Occurrences, result.Highlights)
	if len(result.SkippedPages) > 0 {
		text += fmt.Sprintf("Pages without readable text: %v\n", result.SkippedPages)
	}

	text += "\nReport:\n"
	for _, row := range result.Report {
		pages := make([]string, len(row.Pages))
		for i, p := range row.Pages {
			pages[i] = fmt.Sprint(p)
		}
		text += fmt.Sprintf("• %s: page %s\n", row.Keyword, strings.Join(pages, ", "))
	}

	return text
}

func (s *Server) formatPDFSearchDirectoryResult(result *pdf.PDFSearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📦 Output Directory: %s\n", result.OutputDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🔑 Catalog Keywords: %d\n\n", result.KeywordCount)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run serves MCP over stdio until ctx is done or stdin closes. Logs must not
// go to stdout, which carries the protocol.
func (s *Server) Run(ctx context.Context) error {
	s.logger.WithField("directory", s.config.PDFDirectory).Debug("starting MCP server in stdio mode")

	errWriter := s.logger.WriterLevel(logrus.ErrorLevel)
	defer errWriter.Close()

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(errWriter, "", 0))

	// Cancellation is a normal shutdown
	if err := stdio.Listen(ctx, s.stdin, s.stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func boolArg(args map[string]any, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// stringSliceArg accepts a JSON array of strings or a comma separated string
func stringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return keywords.ParseList(v)
	}
	return nil
}
