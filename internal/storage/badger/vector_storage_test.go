package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func storedChunk(id, source, text string, vector []float32) models.EmbeddedChunk {
	return models.EmbeddedChunk{
		Chunk: models.Chunk{
			ChunkID:    id,
			DocumentID: "doc_test",
			SourcePath: source,
			Text:       text,
		},
		Vector: vector,
	}
}

func TestVectorStorage_PutAndGet(t *testing.T) {
	storage := NewVectorStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	written, err := storage.PutChunks(ctx, []models.EmbeddedChunk{
		storedChunk("c1", "refunds.md", "refund window", []float32{1, 0}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	chunk, err := storage.GetChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "refund window", chunk.Text)
	assert.Equal(t, "refunds.md", chunk.SourcePath)
	assert.Equal(t, []float32{1, 0}, chunk.Vector)
}

func TestVectorStorage_GetMissing(t *testing.T) {
	storage := NewVectorStorage(newTestDB(t), arbor.NewLogger())

	_, err := storage.GetChunk(context.Background(), "absent")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestVectorStorage_ReIngestReplacesCountUnchanged(t *testing.T) {
	storage := NewVectorStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	first := []models.EmbeddedChunk{
		storedChunk("c1", "refunds.md", "old refund text", []float32{1, 0}),
		storedChunk("c2", "leave.md", "leave accrual", []float32{0, 1}),
	}
	_, err := storage.PutChunks(ctx, first)
	require.NoError(t, err)

	// Same chunk IDs written again: last write wins, count stays put
	second := []models.EmbeddedChunk{
		storedChunk("c1", "refunds.md", "new refund text", []float32{0.5, 0.5}),
		storedChunk("c2", "leave.md", "leave accrual", []float32{0, 1}),
	}
	_, err = storage.PutChunks(ctx, second)
	require.NoError(t, err)

	count, err := storage.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	chunk, err := storage.GetChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "new refund text", chunk.Text)
	assert.Equal(t, []float32{0.5, 0.5}, chunk.Vector)
}

func TestVectorStorage_IterateChunks(t *testing.T) {
	storage := NewVectorStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	_, err := storage.PutChunks(ctx, []models.EmbeddedChunk{
		storedChunk("c1", "a.md", "one", []float32{1}),
		storedChunk("c2", "b.md", "two", []float32{2}),
		storedChunk("c3", "c.md", "three", []float32{3}),
	})
	require.NoError(t, err)

	seen := make(map[string]string)
	err = storage.IterateChunks(ctx, func(chunk models.EmbeddedChunk) error {
		seen[chunk.ChunkID] = chunk.Text
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"c1": "one", "c2": "two", "c3": "three"}, seen)
}

func TestVectorStorage_ClearAll(t *testing.T) {
	storage := NewVectorStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	_, err := storage.PutChunks(ctx, []models.EmbeddedChunk{
		storedChunk("c1", "a.md", "one", []float32{1}),
		storedChunk("c2", "b.md", "two", []float32{2}),
	})
	require.NoError(t, err)

	require.NoError(t, storage.ClearAll(ctx))

	count, err := storage.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
