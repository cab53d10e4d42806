package interfaces

import (
	"context"

	"github.com/ternarybob/responsum/internal/models"
)

// RetrievalService embeds a question and finds the most relevant passages
type RetrievalService interface {
	// Retrieve returns up to topK passages scoring at or above the
	// configured similarity threshold, descending by score. An empty
	// result is not an error; it signals an ungrounded question.
	Retrieve(ctx context.Context, question string, topK int) ([]models.ScoredPassage, error)
}
