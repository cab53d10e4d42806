package models

import "time"

// Verdict is the rubric outcome for a single evaluation case.
type Verdict string

const (
	// VerdictPass means all rubric checks succeeded
	VerdictPass Verdict = "PASS"
	// VerdictPartial means some but not all rubric checks succeeded
	VerdictPartial Verdict = "PARTIAL"
	// VerdictFail means the grounding expectation itself was violated
	VerdictFail Verdict = "FAIL"
)

// EvalCase is one question in the evaluation dataset.
type EvalCase struct {
	ID               string   `json:"id" yaml:"id"`
	Question         string   `json:"question" yaml:"question"`
	ExpectGrounded   bool     `json:"expect_grounded" yaml:"expect_grounded"`     // False for out-of-corpus questions that must be refused
	ExpectedKeywords []string `json:"expected_keywords" yaml:"expected_keywords"` // Case-insensitive substrings the answer should contain
	ExpectedSources  []string `json:"expected_sources" yaml:"expected_sources"`   // Source paths (or suffixes) expected among citations
	Notes            string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// EvaluationResult captures the graded outcome of one case.
type EvaluationResult struct {
	CaseID     string     `json:"case_id"`
	Question   string     `json:"question"`
	Verdict    Verdict    `json:"verdict"`
	Confidence Confidence `json:"confidence"`
	Answer     string     `json:"answer"`
	Citations  []string   `json:"citations"`

	KeywordsHit    []string `json:"keywords_hit"`
	KeywordsMissed []string `json:"keywords_missed"`
	SourcesHit     []string `json:"sources_hit"`
	SourcesMissed  []string `json:"sources_missed"`
	Failures       []string `json:"failures,omitempty"` // Human-readable rubric violations

	Err            string `json:"error,omitempty"` // Pipeline error for this case, verdict is FAIL
	DurationMillis int64  `json:"duration_millis"`
}

// EvaluationReport aggregates one full evaluation run.
type EvaluationReport struct {
	ID            string             `json:"id" badgerhold:"key"` // eval_{uuid}
	Dataset       string             `json:"dataset"`
	PromptVersion PromptVersion      `json:"prompt_version"`
	Model         string             `json:"model"`
	Results       []EvaluationResult `json:"results"`

	Passed    int       `json:"passed"`
	Partial   int       `json:"partial"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"started_at" badgerhold:"index"`
	Duration  string    `json:"duration"`
}

// Total returns the number of graded cases.
func (r *EvaluationReport) Total() int {
	return len(r.Results)
}

// PassRate returns the fraction of cases with a PASS verdict, 0 when empty.
func (r *EvaluationReport) PassRate() float64 {
	if len(r.Results) == 0 {
		return 0
	}
	return float64(r.Passed) / float64(len(r.Results))
}

// Tally recomputes the Passed/Partial/Failed counters from Results.
func (r *EvaluationReport) Tally() {
	r.Passed, r.Partial, r.Failed = 0, 0, 0
	for _, res := range r.Results {
		switch res.Verdict {
		case VerdictPass:
			r.Passed++
		case VerdictPartial:
			r.Partial++
		case VerdictFail:
			r.Failed++
		}
	}
}
