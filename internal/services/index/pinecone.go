package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// pineconeUpsertBatch caps vectors per upsert request, matching the
// Pinecone data plane limit.
const pineconeUpsertBatch = 100

// PineconeIndex talks to a Pinecone serverless index over its data plane
// REST API. Chunk text and source live in vector metadata so queries can
// rebuild passages without a local copy.
type PineconeIndex struct {
	config     *common.IndexConfig
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.VectorIndex = (*PineconeIndex)(nil)

type pineconeVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type pineconeMatch struct {
	ID       string            `json:"id"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	IncludeValues   bool      `json:"includeValues"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []pineconeMatch `json:"matches"`
}

type namespaceStats struct {
	VectorCount int `json:"vectorCount"`
}

type statsResponse struct {
	Namespaces       map[string]namespaceStats `json:"namespaces"`
	TotalVectorCount int                       `json:"totalVectorCount"`
}

type deleteRequest struct {
	DeleteAll bool   `json:"deleteAll"`
	Namespace string `json:"namespace,omitempty"`
}

// apiError carries the HTTP status of a failed data plane call.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.status, e.body)
}

// NewPineconeIndex creates a Pinecone-backed index. The API key resolves
// environment-first, then KV store, then config.
func NewPineconeIndex(config *common.IndexConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*PineconeIndex, error) {
	if config.Pinecone.Host == "" {
		return nil, models.NewConfigurationError("index.pinecone.host", "host is required for the pinecone provider")
	}

	apiKey, err := common.ResolveAPIKey(context.Background(), kvStorage, "pinecone_api_key", config.Pinecone.APIKey)
	if err != nil {
		return nil, models.NewConfigurationError("index.pinecone.api_key", err.Error())
	}

	timeout, err := time.ParseDuration(config.Pinecone.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Pinecone.Timeout, err)
	}

	baseURL := config.Pinecone.Host
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	logger.Info().
		Str("index", config.Name).
		Str("host", config.Pinecone.Host).
		Str("namespace", config.Pinecone.Namespace).
		Msg("Pinecone index initialized")

	return &PineconeIndex{
		config:  config,
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Upsert writes embedded chunks in batches and returns the total count
// the index reports as written.
func (x *PineconeIndex) Upsert(ctx context.Context, chunks []models.EmbeddedChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	total := 0
	for start := 0; start < len(chunks); start += pineconeUpsertBatch {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		end := start + pineconeUpsertBatch
		if end > len(chunks) {
			end = len(chunks)
		}

		vectors := make([]pineconeVector, 0, end-start)
		for _, chunk := range chunks[start:end] {
			vectors = append(vectors, pineconeVector{
				ID:     chunk.ChunkID,
				Values: chunk.Vector,
				Metadata: map[string]string{
					"text":        chunk.Text,
					"source_path": chunk.SourcePath,
					"document_id": chunk.DocumentID,
					"char_offset": strconv.Itoa(chunk.CharOffset),
				},
			})
		}

		respBody, err := x.doRequest(ctx, http.MethodPost, "/vectors/upsert", upsertRequest{
			Vectors:   vectors,
			Namespace: x.config.Pinecone.Namespace,
		})
		if err != nil {
			return total, models.NewServiceUnavailableError("pinecone", err)
		}

		var resp upsertResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return total, fmt.Errorf("failed to parse upsert response: %w", err)
		}
		total += resp.UpsertedCount
	}

	x.logger.Debug().
		Int("vectors", total).
		Str("index", x.config.Name).
		Msg("Vectors upserted")

	return total, nil
}

// Query returns the topK most similar passages for the query vector.
func (x *PineconeIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.ScoredPassage, error) {
	if topK <= 0 {
		return nil, nil
	}

	respBody, err := x.doRequest(ctx, http.MethodPost, "/query", queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
		Namespace:       x.config.Pinecone.Namespace,
	})
	if err != nil {
		return nil, models.NewServiceUnavailableError("pinecone", err)
	}

	var resp queryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}

	passages := make([]models.ScoredPassage, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		passages = append(passages, models.ScoredPassage{
			ChunkID:    match.ID,
			SourcePath: match.Metadata["source_path"],
			Text:       match.Metadata["text"],
			Score:      match.Score,
		})
	}

	return passages, nil
}

// Count returns the vector count for the configured namespace, or the
// whole index when no namespace is set.
func (x *PineconeIndex) Count(ctx context.Context) (int, error) {
	respBody, err := x.doRequest(ctx, http.MethodPost, "/describe_index_stats", struct{}{})
	if err != nil {
		return 0, models.NewServiceUnavailableError("pinecone", err)
	}

	var resp statsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return 0, fmt.Errorf("failed to parse stats response: %w", err)
	}

	if ns := x.config.Pinecone.Namespace; ns != "" {
		return resp.Namespaces[ns].VectorCount, nil
	}
	return resp.TotalVectorCount, nil
}

// Clear deletes every vector in the configured namespace.
func (x *PineconeIndex) Clear(ctx context.Context) error {
	_, err := x.doRequest(ctx, http.MethodPost, "/vectors/delete", deleteRequest{
		DeleteAll: true,
		Namespace: x.config.Pinecone.Namespace,
	})
	if err != nil {
		// Serverless indexes return 404 when the namespace was never written
		var reqErr *apiError
		if errors.As(err, &reqErr) && reqErr.status == http.StatusNotFound {
			return nil
		}
		return models.NewServiceUnavailableError("pinecone", err)
	}

	x.logger.Info().
		Str("index", x.config.Name).
		Str("namespace", x.config.Pinecone.Namespace).
		Msg("Cleared Pinecone index")

	return nil
}

// Ready verifies the index exists and accepts the API key.
func (x *PineconeIndex) Ready(ctx context.Context) error {
	if _, err := x.doRequest(ctx, http.MethodPost, "/describe_index_stats", struct{}{}); err != nil {
		return models.NewServiceUnavailableError("pinecone", err)
	}
	return nil
}

// Provider returns the backend name.
func (x *PineconeIndex) Provider() string {
	return "pinecone"
}

func (x *PineconeIndex) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	url := fmt.Sprintf("%s%s", x.baseURL, path)

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &apiError{status: resp.StatusCode, body: string(respBody)}
	}

	return respBody, nil
}
