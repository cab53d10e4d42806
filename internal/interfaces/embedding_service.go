package interfaces

import (
	"context"

	"github.com/ternarybob/responsum/internal/models"
)

// EmbeddingService generates vector embeddings
type EmbeddingService interface {
	// Generate embeddings for a batch of texts, order-preserving
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Generate and attach embeddings to chunks
	EmbedChunks(ctx context.Context, chunks []models.Chunk) ([]models.EmbeddedChunk, error)

	// Generate a query embedding (same model and dimension as documents)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Get model information
	ModelName() string
	Dimension() int
}
