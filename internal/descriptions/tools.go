package descriptions

import "sort"

// Tool names exposed over MCP
const (
	ToolHighlightKeywords = "pdf_highlight_keywords"
	ToolListKeywords      = "pdf_list_keywords"
	ToolSearchDirectory   = "pdf_search_directory"
	ToolValidateFile      = "pdf_validate_file"
	ToolServerInfo        = "pdf_server_info"
)

// Tool descriptions with practical examples and use cases

const (
	PDFHighlightKeywordsDescription = `Highlight planning keywords in a PDF and build a page report.

**When to use:** Need to find where planning terms such as "Master Plan", "Rezoning" or "Planning Scheme Amendment" appear in a document, and hand someone a marked-up copy.

**Why it's useful:** Every occurrence gets its own highlight annotation, and an Excel report lists the pages each keyword was found on. Matching is case-insensitive.

**Examples:**
• Site appraisal: "Highlight Structure Plan and Rezoning in council-minutes.pdf"
• Full sweep: "Run every catalog keyword over officer-report.pdf"
• Ad-hoc terms: "Highlight 'Heritage Overlay' and 'Design Review' in agenda.pdf"

**Common workflows:**
1. Review: pdf_list_keywords → pick keywords → pdf_highlight_keywords → open the zip
2. Batch triage: pdf_search_directory → pdf_highlight_keywords per file → compare reports

**Best practices:** Validate the file first. When nothing matches the tool says so and writes no archive.`

	PDFListKeywordsDescription = `List the keyword catalog that can be picked by name.

**When to use:** Before highlighting, to see which planning terms are available.

**Why it's useful:** Picked names must match the catalog. Anything else can still be passed as a custom keyword.

**Examples:**
• "Which planning keywords can I highlight?"
• "Is 'Urban Release' in the catalog?"`

	PDFValidateFileDescription = `Verify PDF file integrity and readability before processing.

**When to use:** Before highlighting a file, especially one uploaded by a user or produced by an unknown tool.

**Why it's useful:** Catches missing headers, oversized files and documents neither PDF parser can open.

**Examples:**
• Upload verification: "Check user-uploaded application.pdf is valid before highlighting"
• Batch safety: "Validate all PDFs in /agendas/ before a full keyword sweep"

**Best practices:** Run this first in automated workflows.`

	PDFSearchDirectoryDescription = `Discover and filter PDF files across directories with intelligent search.

**When to use:** Need to find PDF files by name before highlighting them.

**Why it's useful:** Fuzzy matching on file name words, hidden directories skipped, results sorted by path.

**Examples:**
• "Find all PDFs with 'agenda' in the name"
• "List every PDF under /council/2024/"

**Best practices:** Leave the directory empty to search the configured directory.`

	PDFServerInfoDescription = `Get server status, available tools, and current directory contents.

**When to use:** At the start of a session, to learn what the server can do and which files it can see.

**Why it's useful:** Shows the configured directories, the file size limit, the catalog size and a usage guide in one call.

**Examples:**
• "What can this PDF server do?"
• "Which PDFs are in the default directory?"`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolHighlightKeywords: PDFHighlightKeywordsDescription,
	ToolListKeywords:      PDFListKeywordsDescription,
	ToolValidateFile:      PDFValidateFileDescription,
	ToolSearchDirectory:   PDFSearchDirectoryDescription,
	ToolServerInfo:        PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
