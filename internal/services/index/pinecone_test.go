package index

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/models"
)

func newTestPineconeIndex(t *testing.T, handler http.HandlerFunc) (*PineconeIndex, *httptest.Server) {
	t.Helper()
	t.Setenv("RESPONSUM_PINECONE_API_KEY", "")
	t.Setenv("PINECONE_API_KEY", "")

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := &common.IndexConfig{
		Provider: "pinecone",
		Name:     "rag-policy-docs",
		Metric:   "cosine",
		Pinecone: common.PineconeConfig{
			APIKey:    "test-key",
			Host:      server.URL,
			Namespace: "policies",
			Timeout:   "5s",
		},
	}

	idx, err := NewPineconeIndex(config, nil, arbor.NewLogger())
	require.NoError(t, err)
	return idx, server
}

func TestPineconeIndex_Upsert(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotReq upsertRequest

	idx, _ := newTestPineconeIndex(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(upsertResponse{UpsertedCount: len(gotReq.Vectors)})
	})

	chunks := []models.EmbeddedChunk{
		embeddedChunk("doc_a_0", "refunds.md", "Refunds are accepted within 30 days.", []float32{0.1, 0.2}),
		embeddedChunk("doc_a_1800", "refunds.md", "Store credit is issued after 30 days.", []float32{0.3, 0.4}),
	}

	count, err := idx.Upsert(context.Background(), chunks)
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, "/vectors/upsert", gotPath)
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "policies", gotReq.Namespace)
	require.Len(t, gotReq.Vectors, 2)
	assert.Equal(t, "doc_a_0", gotReq.Vectors[0].ID)
	assert.Equal(t, "refunds.md", gotReq.Vectors[0].Metadata["source_path"])
	assert.Equal(t, "Refunds are accepted within 30 days.", gotReq.Vectors[0].Metadata["text"])
	assert.Equal(t, "0", gotReq.Vectors[0].Metadata["char_offset"])
}

func TestPineconeIndex_UpsertBatches(t *testing.T) {
	var requests int
	idx, _ := newTestPineconeIndex(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		var req upsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Vectors), pineconeUpsertBatch)
		json.NewEncoder(w).Encode(upsertResponse{UpsertedCount: len(req.Vectors)})
	})

	chunks := make([]models.EmbeddedChunk, 250)
	for i := range chunks {
		chunks[i] = embeddedChunk("c", "a.md", "text", []float32{1})
	}

	count, err := idx.Upsert(context.Background(), chunks)
	require.NoError(t, err)
	assert.Equal(t, 250, count)
	assert.Equal(t, 3, requests)
}

func TestPineconeIndex_Query(t *testing.T) {
	var gotReq queryRequest
	idx, _ := newTestPineconeIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(queryResponse{
			Matches: []pineconeMatch{
				{
					ID:    "doc_a_0",
					Score: 0.92,
					Metadata: map[string]string{
						"text":        "Refunds are accepted within 30 days.",
						"source_path": "refunds.md",
					},
				},
				{
					ID:    "doc_b_0",
					Score: 0.41,
					Metadata: map[string]string{
						"text":        "Annual leave accrues monthly.",
						"source_path": "leave.md",
					},
				},
			},
		})
	})

	passages, err := idx.Query(context.Background(), []float32{0.1, 0.2}, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, gotReq.TopK)
	assert.True(t, gotReq.IncludeMetadata)
	assert.Equal(t, "policies", gotReq.Namespace)

	require.Len(t, passages, 2)
	assert.Equal(t, "doc_a_0", passages[0].ChunkID)
	assert.Equal(t, "refunds.md", passages[0].SourcePath)
	assert.Equal(t, "Refunds are accepted within 30 days.", passages[0].Text)
	assert.InDelta(t, 0.92, float64(passages[0].Score), 0.0001)
}

func TestPineconeIndex_QueryServerError(t *testing.T) {
	idx, _ := newTestPineconeIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := idx.Query(context.Background(), []float32{0.1}, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrServiceUnavailable))
}

func TestPineconeIndex_Count(t *testing.T) {
	idx, _ := newTestPineconeIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/describe_index_stats", r.URL.Path)
		json.NewEncoder(w).Encode(statsResponse{
			Namespaces:       map[string]namespaceStats{"policies": {VectorCount: 7}},
			TotalVectorCount: 9,
		})
	})

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestPineconeIndex_CountWithoutNamespace(t *testing.T) {
	idx, _ := newTestPineconeIndex(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(statsResponse{TotalVectorCount: 9})
	})
	idx.config.Pinecone.Namespace = ""

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, count)
}

func TestPineconeIndex_Clear(t *testing.T) {
	var gotReq deleteRequest
	idx, _ := newTestPineconeIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, idx.Clear(context.Background()))
	assert.True(t, gotReq.DeleteAll)
	assert.Equal(t, "policies", gotReq.Namespace)
}

func TestPineconeIndex_ClearMissingNamespace(t *testing.T) {
	idx, _ := newTestPineconeIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	// A namespace that was never written reports 404, which is not an error
	require.NoError(t, idx.Clear(context.Background()))
}

func TestNewPineconeIndex_MissingHost(t *testing.T) {
	config := &common.IndexConfig{
		Provider: "pinecone",
		Name:     "rag-policy-docs",
		Pinecone: common.PineconeConfig{APIKey: "test-key", Timeout: "5s"},
	}

	_, err := NewPineconeIndex(config, nil, arbor.NewLogger())
	require.Error(t, err)

	var configErr *models.ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "index.pinecone.host", configErr.Field)
}
