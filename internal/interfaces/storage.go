package interfaces

import (
	"context"

	"github.com/ternarybob/responsum/internal/models"
)

// VectorStorage - persistence for embedded chunks backing the local index
type VectorStorage interface {
	// Chunk operations
	PutChunks(ctx context.Context, chunks []models.EmbeddedChunk) (int, error)
	GetChunk(ctx context.Context, chunkID string) (*models.EmbeddedChunk, error)
	IterateChunks(ctx context.Context, fn func(models.EmbeddedChunk) error) error
	CountChunks(ctx context.Context) (int, error)

	// Bulk operations
	ClearAll(ctx context.Context) error
}

// ReportStorage - persistence for evaluation run reports
type ReportStorage interface {
	SaveReport(ctx context.Context, report *models.EvaluationReport) error
	GetReport(ctx context.Context, id string) (*models.EvaluationReport, error)
	GetLatestReport(ctx context.Context) (*models.EvaluationReport, error)
	ListReports(ctx context.Context, limit int) ([]models.EvaluationReport, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	VectorStorage() VectorStorage
	ReportStorage() ReportStorage

	// LoadEnvFile loads KEY=value pairs from a .env file into the KV store
	LoadEnvFile(ctx context.Context, filePath string) error

	Close() error
}
