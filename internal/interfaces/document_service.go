package interfaces

import (
	"context"

	"github.com/ternarybob/responsum/internal/models"
)

// DocumentService loads policy documents from disk and normalizes them
// to plain text
type DocumentService interface {
	// Load a single file, detecting format from the extension
	LoadFile(ctx context.Context, path string) (*models.Document, error)

	// Load all supported files in a directory (non-recursive). Files
	// that cannot be loaded (unsupported extension, unreadable, no
	// extractable text) are reported as failures, never abort the batch.
	LoadDirectory(ctx context.Context, dir string) ([]*models.Document, []models.IngestFailure, error)

	// Supported reports whether the file extension has an extractor
	Supported(path string) bool
}

// ChunkerService splits documents into bounded, overlapping chunks
type ChunkerService interface {
	// Split a document into chunks; deterministic for identical input
	Split(doc *models.Document) []models.Chunk
}
