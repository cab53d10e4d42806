// -----------------------------------------------------------------------
// PDF Extractor - Extract text content from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// PDFExtractor extracts plain text from PDF files using pdfcpu
type PDFExtractor struct {
	logger  arbor.ILogger
	tempDir string
}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor(logger arbor.ILogger) *PDFExtractor {
	// Create a temp directory for PDF processing
	tempDir := filepath.Join(os.TempDir(), "responsum-pdf")
	os.MkdirAll(tempDir, 0755)

	return &PDFExtractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractTextFromBytes extracts text directly from PDF bytes.
// pdfcpu extracts page content to files, so the bytes take a round trip
// through the temp directory.
func (e *PDFExtractor) ExtractTextFromBytes(ctx context.Context, pdfContent []byte) (string, error) {
	// Write to temp file for pdfcpu processing
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("extract_%d.pdf", os.Getpid()))
	if err := os.WriteFile(tempFile, pdfContent, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	// Get page count using pdfcpu
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF context: %w", err)
	}

	pageCount := pdfCtx.PageCount

	// Extract content from all pages
	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%d", os.Getpid()))
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract PDF content: %w", err)
	}

	// Read extracted content files, keyed by page number
	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)
	for _, file := range files {
		if !file.IsDir() {
			content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
			if err == nil {
				var pageNum int
				if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
					pageTexts[pageNum] = string(content)
				}
			}
		}
	}

	// Build text in page order
	var fullText strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if text, ok := pageTexts[pageNum]; ok {
			if fullText.Len() > 0 {
				fullText.WriteString("\n\n")
			}
			fullText.WriteString(text)
		}
	}

	return fullText.String(), nil
}

// ReadPDFFromFile reads and extracts text from a PDF file path
func (e *PDFExtractor) ReadPDFFromFile(ctx context.Context, filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF file: %w", err)
	}
	return e.ExtractTextFromBytes(ctx, content)
}
