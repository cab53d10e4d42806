package models

import "strings"

// Confidence is the answer generator's self-assessed grounding level,
// parsed from the trailing confidence line of the model output.
type Confidence string

const (
	// ConfidenceFull means the answer is fully supported by the retrieved context
	ConfidenceFull Confidence = "FULL"
	// ConfidencePartial means only part of the question is covered by the context
	ConfidencePartial Confidence = "PARTIAL"
	// ConfidenceNone means the context does not support an answer
	ConfidenceNone Confidence = "NONE"
)

// ParseConfidence maps a raw confidence token to a Confidence value.
// Unknown or missing tokens degrade to NONE rather than failing the
// answer: a malformed trailer means the response never demonstrated
// grounding, so the answer cannot claim any.
func ParseConfidence(s string) (Confidence, bool) {
	switch Confidence(strings.ToUpper(strings.TrimSpace(s))) {
	case ConfidenceFull:
		return ConfidenceFull, true
	case ConfidencePartial:
		return ConfidencePartial, true
	case ConfidenceNone:
		return ConfidenceNone, true
	}
	return ConfidenceNone, false
}

// PromptVersion selects the answering prompt template.
type PromptVersion int

const (
	// PromptV1 is the baseline prompt: answer from context, no citation contract
	PromptV1 PromptVersion = 1
	// PromptV2 is the strict grounding prompt: mandatory citations and confidence line
	PromptV2 PromptVersion = 2

	// DefaultPromptVersion is used when no version is supplied
	DefaultPromptVersion = PromptV2
)

// Valid reports whether v names a known prompt template.
func (v PromptVersion) Valid() bool {
	return v == PromptV1 || v == PromptV2
}

// Answer is the final grounded response for one question.
type Answer struct {
	Question   string     `json:"question"`
	Text       string     `json:"text"`      // Answer body with confidence trailer stripped
	Citations  []string   `json:"citations"` // Source paths cited, deduplicated, retrieval order
	Confidence Confidence `json:"confidence"`
	Refused    bool       `json:"refused"` // True when answered without a model call (empty context)

	PromptVersion PromptVersion `json:"prompt_version"`
	Model         string        `json:"model"`
	ContextChars  int           `json:"context_chars"` // Size of the context block sent to the model

	// Context is the block the answer was generated from, carried for
	// display (ask --show-context). Excluded from persisted results.
	Context *ContextBlock `json:"-"`
}
