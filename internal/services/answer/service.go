package answer

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// Service turns a question into a grounded answer: retrieve passages,
// assemble the context block, make one generation call, parse the reply.
type Service struct {
	config    *common.Config
	retrieval interfaces.RetrievalService
	llm       interfaces.LLMService
	builder   *ContextBuilder
	logger    arbor.ILogger
}

var _ interfaces.AnswerService = (*Service)(nil)

// NewService creates the answer service.
func NewService(config *common.Config, retrieval interfaces.RetrievalService, llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		config:    config,
		retrieval: retrieval,
		llm:       llm,
		builder:   NewContextBuilder(&config.Retrieval, logger),
		logger:    logger,
	}
}

// Ask runs the full query flow for one question. Retrieval that yields
// no usable context produces a NONE-confidence refusal without calling
// the model; service failures abort only this question.
func (s *Service) Ask(ctx context.Context, question string, opts interfaces.AskOptions) (*models.Answer, error) {
	question = strings.TrimSpace(question)

	version := opts.PromptVersion
	if version == 0 {
		version = s.config.PromptVersion()
	}
	systemPrompt, err := SystemPrompt(version)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	passages, err := s.retrieval.Retrieve(ctx, question, opts.TopK)
	if err != nil {
		return nil, err
	}

	block := s.builder.Build(passages)
	if block.IsEmpty() {
		s.logger.Info().
			Str("question", question).
			Msg("No usable context retrieved, refusing without a model call")
		return s.refusalAnswer(question, version, &block), nil
	}

	messages := []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: renderUserPrompt(block.Text, question)},
	}

	raw, err := s.llm.Generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	parsed := parseResponse(raw, block.Sources())
	citations := parsed.Citations
	if citations == nil {
		citations = []string{}
	}

	answer := &models.Answer{
		Question:      question,
		Text:          parsed.Text,
		Citations:     citations,
		Confidence:    parsed.Confidence,
		PromptVersion: version,
		Model:         s.llm.Model(),
		ContextChars:  block.Chars,
		Context:       &block,
	}

	s.logger.Info().
		Str("confidence", string(answer.Confidence)).
		Int("citations", len(answer.Citations)).
		Int("passages", len(block.Passages)).
		Int("context_chars", block.Chars).
		Str("duration", time.Since(started).Round(time.Millisecond).String()).
		Msg("Answer generated")

	return answer, nil
}

// refusalAnswer synthesizes the deterministic no-context answer.
func (s *Service) refusalAnswer(question string, version models.PromptVersion, block *models.ContextBlock) *models.Answer {
	return &models.Answer{
		Question:      question,
		Text:          RefusalText,
		Citations:     []string{},
		Confidence:    models.ConfidenceNone,
		Refused:       true,
		PromptVersion: version,
		Model:         s.llm.Model(),
		Context:       block,
	}
}
