package evaluation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// Service runs the answer pipeline over a fixed question set and grades
// every answer against its grounding rubric. Cases run sequentially so
// report order matches dataset order.
type Service struct {
	config  *common.Config
	answers interfaces.AnswerService
	reports interfaces.ReportStorage
	model   string
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.EvaluationService = (*Service)(nil)

// NewService creates the evaluation service. The model name is recorded
// on reports so runs against different providers stay comparable.
func NewService(config *common.Config, answers interfaces.AnswerService, reports interfaces.ReportStorage, model string, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		answers: answers,
		reports: reports,
		model:   model,
		logger:  logger,
	}
}

// LoadDataset reads evaluation cases from a YAML file. Cases without a
// question are a dataset authoring mistake and fail the load; everything
// else is graded as-is.
func (s *Service) LoadDataset(path string) ([]models.EvalCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read evaluation dataset %s: %w", path, err)
	}

	var dataset struct {
		Cases []models.EvalCase `yaml:"cases"`
	}
	if err := yaml.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse evaluation dataset %s: %w", path, err)
	}

	if len(dataset.Cases) == 0 {
		return nil, fmt.Errorf("evaluation dataset %s contains no cases", path)
	}

	for i := range dataset.Cases {
		c := &dataset.Cases[i]
		if strings.TrimSpace(c.Question) == "" {
			return nil, fmt.Errorf("evaluation dataset %s: case %d has no question", path, i+1)
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("case_%d", i+1)
		}
	}

	s.logger.Debug().
		Str("path", path).
		Int("cases", len(dataset.Cases)).
		Msg("Loaded evaluation dataset")

	return dataset.Cases, nil
}

// Run answers and grades every case. A pipeline failure (embedding,
// index, or generation unavailable) fails that case with the error as
// rationale; the run itself completes and the report is persisted both
// as a JSON file and in the report store.
func (s *Service) Run(ctx context.Context, dataset string, cases []models.EvalCase, promptVersion models.PromptVersion) (*models.EvaluationReport, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("no evaluation cases to run")
	}
	if !promptVersion.Valid() {
		return nil, models.NewConfigurationError("llm.prompt_version", fmt.Sprintf("unknown prompt version %d (use 1 or 2)", promptVersion))
	}

	report := &models.EvaluationReport{
		ID:            common.NewReportID(),
		Dataset:       dataset,
		PromptVersion: promptVersion,
		Model:         s.model,
		Results:       make([]models.EvaluationResult, 0, len(cases)),
		StartedAt:     time.Now(),
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Int("cases", len(cases)).
		Int("prompt_version", int(promptVersion)).
		Msg("Starting evaluation run")

	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Results = append(report.Results, s.runCase(ctx, c, promptVersion))
	}

	report.Tally()
	report.Duration = time.Since(report.StartedAt).Round(time.Millisecond).String()

	s.logger.Info().
		Str("report_id", report.ID).
		Int("passed", report.Passed).
		Int("partial", report.Partial).
		Int("failed", report.Failed).
		Str("duration", report.Duration).
		Msg("Evaluation run completed")

	if err := s.persist(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

// runCase answers one question and applies the rubric. Never returns an
// error: pipeline failures become a FAIL verdict so one flaky call does
// not lose the rest of the run.
func (s *Service) runCase(ctx context.Context, c models.EvalCase, promptVersion models.PromptVersion) models.EvaluationResult {
	started := time.Now()

	answer, err := s.answers.Ask(ctx, c.Question, interfaces.AskOptions{PromptVersion: promptVersion})
	if err != nil {
		s.logger.Warn().
			Str("case_id", c.ID).
			Err(err).
			Msg("Case failed with a pipeline error")
		return models.EvaluationResult{
			CaseID:         c.ID,
			Question:       c.Question,
			Verdict:        models.VerdictFail,
			Confidence:     models.ConfidenceNone,
			Err:            err.Error(),
			Failures:       []string{fmt.Sprintf("pipeline error: %v", err)},
			DurationMillis: time.Since(started).Milliseconds(),
		}
	}

	result := grade(c, answer)
	result.DurationMillis = time.Since(started).Milliseconds()

	s.logger.Info().
		Str("case_id", c.ID).
		Str("verdict", string(result.Verdict)).
		Str("confidence", string(result.Confidence)).
		Msg("Case graded")

	return result
}

// persist writes the report JSON to the results directory and records it
// in the report store so `evaluate` runs remain queryable later.
func (s *Service) persist(ctx context.Context, report *models.EvaluationReport) error {
	path, err := writeReportFile(s.config.Evaluation.ResultsDir, report)
	if err != nil {
		return err
	}

	if err := s.reports.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("failed to record evaluation report: %w", err)
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Str("path", path).
		Msg("Evaluation report persisted")

	return nil
}
