package pdf

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-highlighter/internal/descriptions"
)

// availableTools returns information about all available tools
func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        descriptions.ToolHighlightKeywords,
			Description: descriptions.GetToolDescription(descriptions.ToolHighlightKeywords),
			Usage: "Use this tool to highlight planning keywords in a PDF and get a zip with the " +
				"highlighted PDF and an Excel report of the pages each keyword appears on.",
			Parameters: "path (required): PDF file inside the configured directory, " +
				"keywords (optional): catalog keywords to search for, " +
				"select_all (optional): search for every catalog keyword, " +
				"custom_keywords (optional): extra keywords, one per line, " +
				"output_dir (optional): where to write the zip archive",
		},
		{
			Name:        descriptions.ToolListKeywords,
			Description: descriptions.GetToolDescription(descriptions.ToolListKeywords),
			Usage:       "Use this tool to see which keywords can be picked by name.",
			Parameters:  "No parameters required",
		},
		{
			Name:        descriptions.ToolSearchDirectory,
			Description: descriptions.GetToolDescription(descriptions.ToolSearchDirectory),
			Usage: "Use this tool to find PDF files in the default directory or any specified " +
				"directory. Supports fuzzy search by filename.",
			Parameters: "directory (optional): Directory path to search (uses the configured directory if empty), " +
				"query (optional): Search query for fuzzy matching",
		},
		{
			Name:        descriptions.ToolValidateFile,
			Description: descriptions.GetToolDescription(descriptions.ToolValidateFile),
			Usage:       "Use this tool to check that a file opens as a PDF before highlighting it.",
			Parameters:  "path (required): PDF file inside the configured directory",
		},
		{
			Name:        descriptions.ToolServerInfo,
			Description: descriptions.GetToolDescription(descriptions.ToolServerInfo),
			Usage:       "Use this tool to get server information and current directory contents.",
			Parameters:  "No parameters required",
		},
	}
}

// usageGuidance returns the workflow summary shown by pdf_server_info
func usageGuidance(maxFileSize int64) string {
	maxFileSizeMB := maxFileSize / (1024 * 1024)

	return fmt.Sprintf(`PDF Keyword Highlighter Usage Guide:

1. START WITH DISCOVERY:
   - Use 'pdf_search_directory' to find available PDF files
   - Use 'pdf_list_keywords' to see the keyword catalog

2. VALIDATE FILES:
   - Use 'pdf_validate_file' to check if a file is readable before processing

3. HIGHLIGHT:
   - Use 'pdf_highlight_keywords' with picked keywords, select_all, or custom keywords
   - Matching is case-insensitive and each occurrence gets its own highlight
   - The zip archive holds the highlighted PDF and an Excel report
   - "No keywords found in the PDF." means nothing matched and nothing was written

IMPORTANT NOTES:
- Relative paths are resolved against the configured directory
- The server can handle files up to %dMB
- Scanned PDFs without a text layer have nothing to match`, maxFileSizeMB)
}
