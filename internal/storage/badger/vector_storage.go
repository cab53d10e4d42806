package badger

import (
	"context"
	"encoding/json"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// chunkKeyPrefix namespaces embedded chunk records in the shared Badger
// instance. Key format: chunk:{chunkID}
const chunkKeyPrefix = "chunk:"

// putBatchSize bounds the number of chunk writes per transaction to stay
// under Badger's transaction size limit
const putBatchSize = 64

// VectorStorage persists embedded chunks as JSON records under a key
// prefix, using raw Badger transactions rather than badgerhold. Vectors
// are opaque payloads; there is nothing to index or query by field.
type VectorStorage struct {
	db     *badgerdb.DB
	logger arbor.ILogger
}

// NewVectorStorage creates a new VectorStorage instance
func NewVectorStorage(db *BadgerDB, logger arbor.ILogger) interfaces.VectorStorage {
	return &VectorStorage{
		db:     db.DB(),
		logger: logger,
	}
}

func chunkKey(chunkID string) []byte {
	return []byte(chunkKeyPrefix + chunkID)
}

// PutChunks writes embedded chunks in batched transactions, overwriting
// records with the same chunk ID. Returns the number of chunks written.
func (s *VectorStorage) PutChunks(ctx context.Context, chunks []models.EmbeddedChunk) (int, error) {
	written := 0

	for start := 0; start < len(chunks); start += putBatchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		end := start + putBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		err := s.db.Update(func(txn *badgerdb.Txn) error {
			for _, chunk := range batch {
				data, err := json.Marshal(chunk)
				if err != nil {
					return fmt.Errorf("failed to marshal chunk %s: %w", chunk.ChunkID, err)
				}
				if err := txn.Set(chunkKey(chunk.ChunkID), data); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return written, fmt.Errorf("failed to write chunk batch: %w", err)
		}
		written += len(batch)
	}

	s.logger.Debug().Int("chunks", written).Msg("Stored embedded chunks")
	return written, nil
}

// GetChunk retrieves a single embedded chunk by ID
func (s *VectorStorage) GetChunk(ctx context.Context, chunkID string) (*models.EmbeddedChunk, error) {
	var chunk models.EmbeddedChunk

	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(chunkKey(chunkID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &chunk)
		})
	})
	if err == badgerdb.ErrKeyNotFound {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk %s: %w", chunkID, err)
	}

	return &chunk, nil
}

// IterateChunks streams every stored chunk through fn; iteration stops at
// the first error fn returns. Used by the local index to score vectors
// without materializing the whole corpus.
func (s *VectorStorage) IterateChunks(ctx context.Context, fn func(models.EmbeddedChunk) error) error {
	return s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		prefix := []byte(chunkKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			var chunk models.EmbeddedChunk
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &chunk)
			})
			if err != nil {
				return fmt.Errorf("failed to decode chunk %s: %w", string(item.Key()), err)
			}
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountChunks returns the number of stored chunks (key-only scan)
func (s *VectorStorage) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(chunkKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// ClearAll removes every stored chunk
func (s *VectorStorage) ClearAll(ctx context.Context) error {
	// Collect keys first (key-only scan), then delete in batched transactions
	var keys [][]byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(chunkKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to list chunks for deletion: %w", err)
	}

	for start := 0; start < len(keys); start += putBatchSize {
		end := start + putBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]

		err := s.db.Update(func(txn *badgerdb.Txn) error {
			for _, key := range batch {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete chunk batch: %w", err)
		}
	}

	s.logger.Info().Int("count", len(keys)).Msg("Deleted all stored chunks")
	return nil
}
