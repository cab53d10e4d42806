package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/responsum/internal/models"
)

// writeReportFile serializes the report as indented JSON into the results
// directory, named by run start time so listings sort chronologically.
// Returns the written path.
func writeReportFile(dir string, report *models.EvaluationReport) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize evaluation report: %w", err)
	}

	name := fmt.Sprintf("eval_%s.json", report.StartedAt.Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write evaluation report %s: %w", path, err)
	}

	return path, nil
}
