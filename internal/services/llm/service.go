package llm

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

// Service generates answer text through the configured default provider.
// It wraps the provider factory behind the LLMService interface so the
// answer pipeline never deals with provider-specific types.
type Service struct {
	factory  *ProviderFactory
	provider ProviderType
	model    string
	timeout  time.Duration
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.LLMService = (*Service)(nil)

// NewService creates a generation service bound to the configured default
// provider. The provider client is initialized eagerly so a missing or
// unresolvable API key surfaces as a configuration error at startup, not
// mid-request.
func NewService(config *common.Config, factory *ProviderFactory, logger arbor.ILogger) (*Service, error) {
	provider := factory.DetectProvider("")
	model := factory.GetDefaultModel(provider)

	ctx := context.Background()
	var timeoutStr string
	switch provider {
	case ProviderClaude:
		if _, err := factory.GetClaudeClient(ctx); err != nil {
			return nil, models.NewConfigurationError("claude.api_key", err.Error())
		}
		timeoutStr = config.Claude.Timeout
	default:
		if _, err := factory.GetGeminiClient(ctx); err != nil {
			return nil, models.NewConfigurationError("gemini.api_key", err.Error())
		}
		timeoutStr = config.Gemini.Timeout
	}

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", timeoutStr, err)
	}

	logger.Info().
		Str("provider", string(provider)).
		Str("model", model).
		Dur("timeout", timeout).
		Msg("LLM service initialized")

	return &Service{
		factory:  factory,
		provider: provider,
		model:    model,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// Generate produces a completion for the given conversation. Provider
// failures that survive the retry loop are reported as service
// unavailability so callers can distinguish them from bad input.
func (s *Service) Generate(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.factory.GenerateContent(timeoutCtx, &ContentRequest{
		Messages: messages,
		Model:    s.model,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", s.model).
			Msg("Content generation failed")
		return "", models.NewServiceUnavailableError(string(s.provider), err)
	}

	s.logger.Debug().
		Str("model", resp.Model).
		Int("response_length", len(resp.Text)).
		Dur("duration", time.Since(start)).
		Msg("Content generation completed")

	return resp.Text, nil
}

// Model returns the model name answers are generated with.
func (s *Service) Model() string {
	return s.model
}

// HealthCheck exercises the generation model with a minimal probe.
func (s *Service) HealthCheck(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	response, err := s.Generate(healthCtx, []interfaces.Message{
		{Role: "user", Content: "ping"},
	})
	if err != nil {
		return fmt.Errorf("generation probe failed: %w", err)
	}
	if len(strings.TrimSpace(response)) == 0 {
		return fmt.Errorf("generation probe returned empty response")
	}

	return nil
}

// Close releases the underlying provider clients.
func (s *Service) Close() error {
	s.logger.Info().Msg("Closing LLM service")
	return s.factory.Close()
}
