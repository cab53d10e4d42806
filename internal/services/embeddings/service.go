package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
	"github.com/ternarybob/responsum/internal/services/llm"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Service generates embedding vectors through the Gemini embedding API.
// Requests are batched and rate limited client-side so large ingests stay
// under the per-minute quota instead of burning the retry budget.
type Service struct {
	config  *common.EmbeddingConfig
	factory *llm.ProviderFactory
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.EmbeddingService = (*Service)(nil)

// NewService creates the embedding service. The Gemini client is resolved
// eagerly so a missing API key surfaces as a configuration error at
// startup rather than midway through an ingest.
func NewService(config *common.Config, factory *llm.ProviderFactory, logger arbor.ILogger) (*Service, error) {
	if _, err := factory.GetGeminiClient(context.Background()); err != nil {
		return nil, models.NewConfigurationError("gemini.api_key", err.Error())
	}

	burst := int(config.Embedding.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	logger.Info().
		Str("model", config.Embedding.Model).
		Int("dimension", config.Embedding.Dimension).
		Int("batch_size", config.Embedding.BatchSize).
		Float64("requests_per_second", config.Embedding.RequestsPerSecond).
		Msg("Embedding service initialized")

	return &Service{
		config:  &config.Embedding,
		factory: factory,
		limiter: rate.NewLimiter(rate.Limit(config.Embedding.RequestsPerSecond), burst),
		logger:  logger,
	}, nil
}

// EmbedBatch embeds the given texts in configured batch sizes, preserving
// input order. API failures that survive the retry loop are reported as
// service unavailability.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.config.BatchSize {
		end := start + s.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		// Wait for rate limiter
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		batch, err := s.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, models.NewServiceUnavailableError("gemini", err)
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// EmbedChunks embeds chunk texts and pairs each chunk with its vector.
func (s *Service) EmbedChunks(ctx context.Context, chunks []models.Chunk) ([]models.EmbeddedChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	start := time.Now()
	vectors, err := s.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	embedded := make([]models.EmbeddedChunk, len(chunks))
	for i, chunk := range chunks {
		embedded[i] = models.EmbeddedChunk{Chunk: chunk, Vector: vectors[i]}
	}

	s.logger.Info().
		Int("chunks", len(embedded)).
		Dur("duration", time.Since(start)).
		Msg("Embedded chunk batch")

	return embedded, nil
}

// EmbedQuery embeds a single question for retrieval.
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty for embedding generation")
	}

	vectors, err := s.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// ModelName returns the embedding model identifier.
func (s *Service) ModelName() string {
	return s.config.Model
}

// Dimension returns the vector dimension every embedding must have.
func (s *Service) Dimension() int {
	return s.config.Dimension
}

// embedWithRetry calls the embedding API with the shared retry policy.
func (s *Service) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	client, err := s.factory.GetGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	return llm.WithRetry(ctx, llm.NewDefaultRetryConfig(), s.logger, "embedding API call", func() ([][]float32, error) {
		return s.embedBatchOnce(ctx, client, texts)
	})
}

// embedBatchOnce performs a single embedding API call for one batch.
func (s *Service) embedBatchOnce(ctx context.Context, client *genai.Client, texts []string) ([][]float32, error) {
	outputDim := int32(s.config.Dimension)
	embedConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	result, err := client.Models.EmbedContent(ctx, s.config.Model, contents, embedConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), got)
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, embedding := range result.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for text %d", i)
		}
		if len(embedding.Values) != s.config.Dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.config.Dimension, len(embedding.Values))
		}
		vectors[i] = embedding.Values
	}

	return vectors, nil
}
