package evaluation

import (
	"fmt"
	"strings"

	"github.com/ternarybob/responsum/internal/models"
)

// grade applies the grounding rubric to one answered case.
//
// Expected-grounded cases: PASS needs a non-NONE confidence, at least one
// expected source cited, and every expected keyword present in the answer;
// grounded answers missing keywords or the expected source earn PARTIAL;
// a refusal (confidence NONE) or an uncited substantive answer is a FAIL.
//
// Expected-ungrounded cases: the only correct behavior is an explicit
// refusal — confidence NONE, no citations, and text admitting the
// information is unavailable. Anything that asserts facts is a FAIL;
// there is no PARTIAL credit for hallucinating less.
func grade(c models.EvalCase, answer *models.Answer) models.EvaluationResult {
	result := models.EvaluationResult{
		CaseID:     c.ID,
		Question:   c.Question,
		Confidence: answer.Confidence,
		Answer:     answer.Text,
		Citations:  answer.Citations,
	}

	if !c.ExpectGrounded {
		result.Verdict = gradeUngrounded(answer, &result)
		return result
	}

	result.KeywordsHit, result.KeywordsMissed = matchKeywords(answer.Text, c.ExpectedKeywords)
	result.SourcesHit, result.SourcesMissed = matchSources(answer.Citations, c.ExpectedSources)
	result.Verdict = gradeGrounded(c, answer, &result)
	return result
}

// gradeGrounded scores a case whose answer should come from the corpus.
func gradeGrounded(c models.EvalCase, answer *models.Answer, result *models.EvaluationResult) models.Verdict {
	if answer.Confidence == models.ConfidenceNone {
		result.Failures = append(result.Failures, "refused a question the corpus answers")
		return models.VerdictFail
	}

	if len(answer.Citations) == 0 {
		result.Failures = append(result.Failures, "substantive answer cites no source")
		return models.VerdictFail
	}

	complete := true

	if len(c.ExpectedSources) > 0 && len(result.SourcesHit) == 0 {
		result.Failures = append(result.Failures, fmt.Sprintf("expected sources not cited: %s", strings.Join(result.SourcesMissed, ", ")))
		complete = false
	}

	if len(result.KeywordsMissed) > 0 {
		result.Failures = append(result.Failures, fmt.Sprintf("expected content missing: %s", strings.Join(result.KeywordsMissed, ", ")))
		complete = false
	}

	if !complete {
		return models.VerdictPartial
	}
	return models.VerdictPass
}

// gradeUngrounded scores a case the corpus cannot answer. The pipeline
// must refuse rather than fabricate.
func gradeUngrounded(answer *models.Answer, result *models.EvaluationResult) models.Verdict {
	failed := false

	if answer.Confidence != models.ConfidenceNone {
		result.Failures = append(result.Failures, fmt.Sprintf("claimed %s confidence for an out-of-corpus question", answer.Confidence))
		failed = true
	}

	if len(answer.Citations) > 0 {
		result.Failures = append(result.Failures, "cited sources for information the corpus does not contain")
		failed = true
	}

	if !refuses(answer.Text) {
		result.Failures = append(result.Failures, "answer does not admit the information is unavailable")
		failed = true
	}

	if failed {
		return models.VerdictFail
	}
	return models.VerdictPass
}

// refusalPhrases are the wordings accepted as an explicit refusal. The
// strict prompt mandates the first; the rest catch close paraphrases so
// grading does not hinge on exact echo.
var refusalPhrases = []string{
	"i don't know",
	"i do not know",
	"do not contain",
	"does not contain",
	"not available in the provided",
	"no information about",
	"not mentioned in the provided",
}

// refuses reports whether the answer text admits the information is not
// in the documents.
func refuses(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// matchKeywords splits the expected keywords into those present in the
// answer text (case-insensitive substring match) and those missing.
func matchKeywords(text string, keywords []string) (hit, missed []string) {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			hit = append(hit, kw)
		} else {
			missed = append(missed, kw)
		}
	}
	return hit, missed
}

// matchSources splits the expected sources into those cited and those
// missing. An expected source matches a citation that equals it or ends
// with it, so datasets can name bare file names instead of full paths.
func matchSources(citations []string, expected []string) (hit, missed []string) {
	for _, want := range expected {
		found := false
		for _, cited := range citations {
			if cited == want || strings.HasSuffix(cited, want) {
				found = true
				break
			}
		}
		if found {
			hit = append(hit, want)
		} else {
			missed = append(missed, want)
		}
	}
	return hit, missed
}
