package interfaces

import (
	"context"

	"github.com/ternarybob/responsum/internal/models"
)

// EvaluationService grades the answer pipeline against a fixed dataset
type EvaluationService interface {
	// Run answers every case and grades each against its rubric. The
	// dataset path is recorded on the report so overridden runs stay
	// attributable. Cases are independent; a pipeline error fails the
	// case, not the run.
	Run(ctx context.Context, dataset string, cases []models.EvalCase, promptVersion models.PromptVersion) (*models.EvaluationReport, error)

	// LoadDataset reads evaluation cases from a YAML file
	LoadDataset(path string) ([]models.EvalCase, error)
}
