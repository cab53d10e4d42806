package interfaces

import (
	"context"

	"github.com/ternarybob/responsum/internal/models"
)

// AskOptions tunes a single question/answer round trip
type AskOptions struct {
	// PromptVersion selects the answer prompt template; zero means the
	// configured default
	PromptVersion models.PromptVersion

	// TopK overrides the configured passage count when > 0
	TopK int
}

// AnswerService runs the full retrieve/assemble/generate pipeline for
// one question
type AnswerService interface {
	// Ask retrieves context for the question and generates a grounded
	// answer. An empty retrieval produces a NONE-confidence refusal
	// without calling the model. The returned answer carries the
	// context block it was generated from.
	Ask(ctx context.Context, question string, opts AskOptions) (*models.Answer, error)
}
