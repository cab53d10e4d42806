package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// Service loads policy documents from disk and normalizes them to plain
// text for chunking
type Service struct {
	config    *common.DocumentsConfig
	extractor *PDFExtractor
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.DocumentService = (*Service)(nil)

// NewService creates a new document loading service
func NewService(config *common.DocumentsConfig, logger arbor.ILogger) *Service {
	return &Service{
		config:    config,
		extractor: NewPDFExtractor(logger),
		logger:    logger,
	}
}

// formatForExtension maps a lowercase file extension to a document format
func formatForExtension(ext string) (models.DocumentFormat, bool) {
	switch ext {
	case ".txt":
		return models.FormatText, true
	case ".md", ".markdown":
		return models.FormatMarkdown, true
	case ".pdf":
		return models.FormatPDF, true
	}
	return "", false
}

// Supported reports whether the file extension has an extractor and is
// enabled in the configuration
func (s *Service) Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := formatForExtension(ext); !ok {
		return false
	}
	for _, allowed := range s.config.Extensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// LoadFile loads a single document, detecting format from the extension
func (s *Service) LoadFile(ctx context.Context, path string) (*models.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := formatForExtension(ext)
	if !ok {
		return nil, &models.UnsupportedFormatError{Path: path, Extension: ext}
	}

	var rawText string
	switch format {
	case models.FormatPDF:
		text, err := s.extractor.ReadPDFFromFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to extract PDF %s: %w", path, err)
		}
		rawText = text

	case models.FormatMarkdown:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", path, err)
		}
		rawText = markdownToText(data)

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", path, err)
		}
		rawText = string(data)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	doc := &models.Document{
		ID:         common.NewDocumentID(path),
		SourcePath: path,
		Title:      title,
		RawText:    rawText,
		Format:     format,
		LoadedAt:   time.Now(),
	}

	s.logger.Debug().
		Str("document_id", doc.ID).
		Str("path", path).
		Str("format", string(format)).
		Int("chars", len(rawText)).
		Msg("Loaded document")

	return doc, nil
}

// LoadDirectory loads all supported files in a directory (non-recursive).
// Files are processed in name order so repeated ingests are deterministic.
// Files that cannot be loaded are reported as failures and the batch
// continues: one bad file never loses the rest of the corpus.
func (s *Service) LoadDirectory(ctx context.Context, dir string) ([]*models.Document, []models.IngestFailure, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read documents directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	docs := make([]*models.Document, 0, len(names))
	var failures []models.IngestFailure

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return docs, failures, err
		}

		path := filepath.Join(dir, name)
		if !s.Supported(path) {
			s.logger.Debug().Str("path", path).Msg("Skipping unsupported file")
			failures = append(failures, models.IngestFailure{
				Path:   path,
				Reason: (&models.UnsupportedFormatError{Path: path, Extension: filepath.Ext(path)}).Error(),
			})
			continue
		}

		doc, err := s.LoadFile(ctx, path)
		if err != nil {
			s.logger.Warn().Str("path", path).Err(err).Msg("Failed to load document, continuing")
			failures = append(failures, models.IngestFailure{Path: path, Reason: err.Error()})
			continue
		}

		if strings.TrimSpace(doc.RawText) == "" {
			s.logger.Warn().Str("path", path).Msg("Document has no extractable text, skipping")
			failures = append(failures, models.IngestFailure{Path: path, Reason: "no extractable text"})
			continue
		}

		docs = append(docs, doc)
	}

	s.logger.Info().
		Str("dir", dir).
		Int("documents", len(docs)).
		Int("failed", len(failures)).
		Msg("Loaded documents from directory")

	return docs, failures, nil
}
