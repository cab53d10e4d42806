package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// fakeAnswerService returns canned answers keyed by question.
type fakeAnswerService struct {
	answers map[string]*models.Answer
	errs    map[string]error
}

func (f *fakeAnswerService) Ask(ctx context.Context, question string, opts interfaces.AskOptions) (*models.Answer, error) {
	if err, ok := f.errs[question]; ok {
		return nil, err
	}
	if a, ok := f.answers[question]; ok {
		return a, nil
	}
	return &models.Answer{
		Question:   question,
		Text:       "I don't know. The provided documents do not contain this information.",
		Citations:  []string{},
		Confidence: models.ConfidenceNone,
		Refused:    true,
	}, nil
}

// fakeReportStorage records saved reports in memory.
type fakeReportStorage struct {
	saved []*models.EvaluationReport
}

func (f *fakeReportStorage) SaveReport(ctx context.Context, report *models.EvaluationReport) error {
	f.saved = append(f.saved, report)
	return nil
}

func (f *fakeReportStorage) GetReport(ctx context.Context, id string) (*models.EvaluationReport, error) {
	for _, r := range f.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, interfaces.ErrKeyNotFound
}

func (f *fakeReportStorage) GetLatestReport(ctx context.Context) (*models.EvaluationReport, error) {
	if len(f.saved) == 0 {
		return nil, interfaces.ErrKeyNotFound
	}
	return f.saved[len(f.saved)-1], nil
}

func (f *fakeReportStorage) ListReports(ctx context.Context, limit int) ([]models.EvaluationReport, error) {
	var reports []models.EvaluationReport
	for _, r := range f.saved {
		reports = append(reports, *r)
	}
	return reports, nil
}

func newTestService(t *testing.T, answers *fakeAnswerService, reports *fakeReportStorage) *Service {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Evaluation.ResultsDir = t.TempDir()
	return NewService(config, answers, reports, "fake-model", arbor.NewLogger())
}

func fiveCaseSet() []models.EvalCase {
	return []models.EvalCase{
		{ID: "q1", Question: "What is the refund window?", ExpectGrounded: true, ExpectedKeywords: []string{"30 days"}, ExpectedSources: []string{"refund_policy.txt"}},
		{ID: "q2", Question: "How long do orders take to ship?", ExpectGrounded: true, ExpectedKeywords: []string{"2 business days"}},
		{ID: "q3", Question: "What data is collected?", ExpectGrounded: true, ExpectedKeywords: []string{"email"}},
		{ID: "q4", Question: "What is the CEO's favorite color?", ExpectGrounded: false},
		{ID: "q5", Question: "What is the office wifi password?", ExpectGrounded: false},
	}
}

func TestRun_FiveCasesProduceFiveVerdicts(t *testing.T) {
	answers := &fakeAnswerService{
		answers: map[string]*models.Answer{
			"What is the refund window?": {
				Text:       "Refunds are accepted within 30 days. [source: refund_policy.txt]",
				Citations:  []string{"refund_policy.txt"},
				Confidence: models.ConfidenceFull,
			},
			"How long do orders take to ship?": {
				Text:       "Orders ship within 2 business days. [source: shipping_policy.txt]",
				Citations:  []string{"shipping_policy.txt"},
				Confidence: models.ConfidenceFull,
			},
			"What data is collected?": {
				Text:       "The policy mentions account data. [source: privacy_policy.md]",
				Citations:  []string{"privacy_policy.md"},
				Confidence: models.ConfidencePartial,
			},
		},
	}
	reports := &fakeReportStorage{}
	svc := newTestService(t, answers, reports)

	report, err := svc.Run(context.Background(), "eval/questions.yaml", fiveCaseSet(), models.PromptV2)
	require.NoError(t, err)

	require.Len(t, report.Results, 5)
	for _, r := range report.Results {
		assert.Contains(t, []models.Verdict{models.VerdictPass, models.VerdictPartial, models.VerdictFail}, r.Verdict)
	}
	assert.Equal(t, 4, report.Passed)
	assert.Equal(t, 1, report.Partial)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 5, report.Total())

	// Report order follows dataset order
	assert.Equal(t, "q1", report.Results[0].CaseID)
	assert.Equal(t, "q5", report.Results[4].CaseID)
}

func TestRun_PipelineErrorFailsCaseNotRun(t *testing.T) {
	answers := &fakeAnswerService{
		errs: map[string]error{
			"What is the refund window?": models.NewServiceUnavailableError("gemini", errors.New("quota exceeded")),
		},
	}
	reports := &fakeReportStorage{}
	svc := newTestService(t, answers, reports)

	report, err := svc.Run(context.Background(), "eval/questions.yaml", fiveCaseSet(), models.PromptV2)
	require.NoError(t, err)

	require.Len(t, report.Results, 5)
	assert.Equal(t, models.VerdictFail, report.Results[0].Verdict)
	assert.Contains(t, report.Results[0].Err, "quota exceeded")
}

func TestRun_PersistsReportFileAndRecord(t *testing.T) {
	reports := &fakeReportStorage{}
	config := common.NewDefaultConfig()
	config.Evaluation.ResultsDir = t.TempDir()
	svc := NewService(config, &fakeAnswerService{}, reports, "fake-model", arbor.NewLogger())

	report, err := svc.Run(context.Background(), "eval/questions.yaml", fiveCaseSet()[3:], models.PromptV2)
	require.NoError(t, err)

	require.Len(t, reports.saved, 1)
	assert.Equal(t, report.ID, reports.saved[0].ID)

	entries, err := os.ReadDir(config.Evaluation.ResultsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(config.Evaluation.ResultsDir, entries[0].Name()))
	require.NoError(t, err)

	var persisted models.EvaluationReport
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, report.ID, persisted.ID)
	assert.Equal(t, "fake-model", persisted.Model)
	assert.Len(t, persisted.Results, 2)
}

func TestRun_RecordsResolvedDatasetPath(t *testing.T) {
	reports := &fakeReportStorage{}
	svc := newTestService(t, &fakeAnswerService{}, reports)

	// The dataset actually loaded, not the config default, lands on the report
	report, err := svc.Run(context.Background(), "eval/override.yaml", fiveCaseSet()[3:], models.PromptV2)
	require.NoError(t, err)

	assert.Equal(t, "eval/override.yaml", report.Dataset)
	require.Len(t, reports.saved, 1)
	assert.Equal(t, "eval/override.yaml", reports.saved[0].Dataset)
}

func TestRun_InvalidPromptVersion(t *testing.T) {
	svc := newTestService(t, &fakeAnswerService{}, &fakeReportStorage{})

	_, err := svc.Run(context.Background(), "eval/questions.yaml", fiveCaseSet(), models.PromptVersion(7))
	require.Error(t, err)

	var configErr *models.ConfigurationError
	assert.True(t, errors.As(err, &configErr))
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	content := `cases:
  - id: refund_window
    question: "What is the refund window?"
    expect_grounded: true
    expected_keywords: ["30 days"]
    expected_sources: ["refund_policy.txt"]
  - question: "What is the CEO's favorite color?"
    expect_grounded: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	svc := newTestService(t, &fakeAnswerService{}, &fakeReportStorage{})
	cases, err := svc.LoadDataset(path)
	require.NoError(t, err)

	require.Len(t, cases, 2)
	assert.Equal(t, "refund_window", cases[0].ID)
	assert.True(t, cases[0].ExpectGrounded)
	assert.Equal(t, []string{"30 days"}, cases[0].ExpectedKeywords)

	// Cases without an explicit ID get a positional one
	assert.Equal(t, "case_2", cases[1].ID)
	assert.False(t, cases[1].ExpectGrounded)
}

func TestLoadDataset_EmptyOrMissing(t *testing.T) {
	svc := newTestService(t, &fakeAnswerService{}, &fakeReportStorage{})

	_, err := svc.LoadDataset(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cases: []\n"), 0644))
	_, err = svc.LoadDataset(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cases")
}
