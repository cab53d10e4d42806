package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for grounded answer generation.
// Implementations dispatch to cloud providers (Gemini, Claude) based on
// model name prefix and apply rate-limit aware retries.
type LLMService interface {
	// Generate produces a completion for the given conversation. The
	// messages slice should contain the full context including the system
	// prompt, the rendered document context, and the user question.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - messages: Conversation in chronological order
	//
	// Returns:
	//   - string: Generated assistant response
	//   - error: Error if generation fails after retries
	Generate(ctx context.Context, messages []Message) (string, error)

	// Model returns the normalized model identifier used for generation,
	// recorded on answers and evaluation reports.
	//
	// Returns:
	//   - string: Model identifier (e.g. "gemini-2.0-flash")
	Model() string

	// HealthCheck verifies the provider is operational and the API key is
	// accepted. Issues a minimal generation request.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//
	// Returns:
	//   - error: Error if the provider is not reachable or rejects the key
	HealthCheck(ctx context.Context) error

	// Close releases provider clients and HTTP connections.
	//
	// Returns:
	//   - error: Error if cleanup fails
	Close() error
}
