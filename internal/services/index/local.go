package index

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// LocalIndex is an embedded vector index over the Badger chunk store.
// Queries scan every stored vector and score it against the query, which
// is exact and plenty fast at policy-corpus scale.
type LocalIndex struct {
	storage interfaces.VectorStorage
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.VectorIndex = (*LocalIndex)(nil)

// NewLocalIndex creates a local index over the given chunk storage.
func NewLocalIndex(storage interfaces.VectorStorage, logger arbor.ILogger) *LocalIndex {
	return &LocalIndex{
		storage: storage,
		logger:  logger,
	}
}

// Upsert writes embedded chunks to the chunk store.
func (x *LocalIndex) Upsert(ctx context.Context, chunks []models.EmbeddedChunk) (int, error) {
	return x.storage.PutChunks(ctx, chunks)
}

// Query scores every stored chunk against the query vector and returns
// the topK best matches, scores descending. Ties break on chunk ID so
// results are deterministic.
func (x *LocalIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.ScoredPassage, error) {
	if topK <= 0 {
		return nil, nil
	}

	start := time.Now()
	var scored []models.ScoredPassage

	err := x.storage.IterateChunks(ctx, func(chunk models.EmbeddedChunk) error {
		scored = append(scored, models.ScoredPassage{
			ChunkID:    chunk.ChunkID,
			SourcePath: chunk.SourcePath,
			Text:       chunk.Text,
			Score:      cosineSimilarity(vector, chunk.Vector),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ChunkID < scored[j].ChunkID
	})

	if topK > len(scored) {
		topK = len(scored)
	}

	x.logger.Debug().
		Int("scanned", len(scored)).
		Int("returned", topK).
		Dur("duration", time.Since(start)).
		Msg("Local index query completed")

	return scored[:topK], nil
}

// Count returns the number of stored vectors.
func (x *LocalIndex) Count(ctx context.Context) (int, error) {
	return x.storage.CountChunks(ctx)
}

// Clear removes every stored vector.
func (x *LocalIndex) Clear(ctx context.Context) error {
	return x.storage.ClearAll(ctx)
}

// Ready verifies the chunk store is readable.
func (x *LocalIndex) Ready(ctx context.Context) error {
	_, err := x.storage.CountChunks(ctx)
	return err
}

// Provider returns the backend name.
func (x *LocalIndex) Provider() string {
	return "local"
}

// cosineSimilarity computes cosine similarity between two vectors.
// Mismatched lengths and zero-norm vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
