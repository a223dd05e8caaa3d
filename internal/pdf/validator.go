package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/wrapper"
)

var (
	// ErrFileTooLarge is returned for input above the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNotPDF is returned for input without a PDF header.
	ErrNotPDF = errors.New("not a PDF document")
)

// The header must appear near the start; some producers prepend junk
const headerSearchWindow = 1024

var pdfHeader = []byte("%PDF-")

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile opens the file with both PDF libraries and reports the result
func (v *Validator) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	pages, err := v.validatePDFFile(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	result.Valid = true
	result.Pages = pages
	return result, nil
}

// validatePDFFile checks the file on disk and parses it, returning the page count
func (v *Validator) validatePDFFile(filePath string) (int, error) {
	if filePath == "" {
		return 0, fmt.Errorf("path cannot be empty")
	}

	// Check if file exists and get basic info
	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return 0, fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("cannot read file: %w", err)
	}
	if err := v.ValidateData(data); err != nil {
		return 0, err
	}

	doc, err := wrapper.Open(data)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF file: %w", err)
	}

	return doc.PageCount(), nil
}

// ValidateData checks the size limit and the PDF header of in-memory input.
func (v *Validator) ValidateData(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: input is empty", ErrNotPDF)
	}

	if int64(len(data)) > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrFileTooLarge, len(data), v.maxFileSize)
	}

	window := data
	if len(window) > headerSearchWindow {
		window = window[:headerSearchWindow]
	}
	if !bytes.Contains(window, pdfHeader) {
		return fmt.Errorf("%w: missing %%PDF- header", ErrNotPDF)
	}

	return nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	_, err := v.validatePDFFile(filePath)
	return err == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("%w: %s", ErrNotPDF, filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrFileTooLarge, fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
