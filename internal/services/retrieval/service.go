package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// Service retrieves the passages most relevant to a question: embed the
// question, query the vector index, drop matches below the similarity
// threshold. An empty result is a valid outcome, not an error; answering
// without context is the caller's decision.
type Service struct {
	config   *common.RetrievalConfig
	embedder interfaces.EmbeddingService
	index    interfaces.VectorIndex
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.RetrievalService = (*Service)(nil)

// NewService creates a retrieval service.
func NewService(config *common.Config, embedder interfaces.EmbeddingService, index interfaces.VectorIndex, logger arbor.ILogger) *Service {
	return &Service{
		config:   &config.Retrieval,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Retrieve returns up to topK passages scoring at or above the similarity
// threshold, best first, preserving the index's own ordering for ties.
// A topK of zero or less falls back to the configured default. An empty
// index yields an empty result, never an error.
func (s *Service) Retrieve(ctx context.Context, question string, topK int) ([]models.ScoredPassage, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	if topK <= 0 {
		topK = s.config.TopK
	}

	start := time.Now()
	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	candidates, err := s.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	passages := make([]models.ScoredPassage, 0, len(candidates))
	for _, p := range candidates {
		if p.Score >= s.config.SimilarityThreshold {
			passages = append(passages, p)
		}
	}

	s.logger.Debug().
		Int("candidates", len(candidates)).
		Int("passages", len(passages)).
		Float64("threshold", float64(s.config.SimilarityThreshold)).
		Dur("duration", time.Since(start)).
		Msg("Retrieval completed")

	return passages, nil
}
