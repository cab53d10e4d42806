package interfaces

import (
	"context"

	"github.com/ternarybob/responsum/internal/models"
)

// VectorIndex abstracts the vector database used for similarity search.
// Implementations: local (embedded Badger-backed index) and pinecone
// (managed serverless index over REST).
type VectorIndex interface {
	// Upsert writes embedded chunks to the index, overwriting entries
	// with the same chunk ID. Returns the number of vectors written.
	Upsert(ctx context.Context, chunks []models.EmbeddedChunk) (int, error)

	// Query returns the topK most similar passages by cosine similarity,
	// scores descending. Unfiltered by threshold; callers apply their own.
	Query(ctx context.Context, vector []float32, topK int) ([]models.ScoredPassage, error)

	// Count returns the number of vectors currently in the index
	Count(ctx context.Context) (int, error)

	// Clear removes every vector from the index
	Clear(ctx context.Context) error

	// Ready reports whether the index backend is reachable. Only an
	// existence check; provisioning is out of scope.
	Ready(ctx context.Context) error

	// Provider returns the index backend name for logging ("local", "pinecone")
	Provider() string
}
