package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/models"
)

// passageSeparator sits between rendered passages in the context block.
const passageSeparator = "\n\n"

// CitationMarker renders the provenance tag for a source path. The same
// format is written into the context block and recognized in answers.
func CitationMarker(sourcePath string) string {
	return fmt.Sprintf("[source: %s]", sourcePath)
}

// ContextBuilder assembles retrieved passages into a bounded,
// citation-tagged context block.
type ContextBuilder struct {
	maxChars int
	logger   arbor.ILogger
}

// NewContextBuilder creates a builder with the configured context budget.
func NewContextBuilder(config *common.RetrievalConfig, logger arbor.ILogger) *ContextBuilder {
	return &ContextBuilder{
		maxChars: config.ContextMaxChars,
		logger:   logger,
	}
}

// Build concatenates passages in the order received, each headed by a
// citation marker for its source path, so the generator never sees
// uncredited text. The budget is counted in runes, the same character
// unit the chunker uses. Assembly stops at the first passage whose
// rendered block would push the total past the budget; passages are
// dropped whole, never split mid-text. No input, or nothing fitting,
// yields an empty block rather than an error.
func (b *ContextBuilder) Build(passages []models.ScoredPassage) models.ContextBlock {
	var block models.ContextBlock
	if len(passages) == 0 {
		return block
	}

	var sb strings.Builder
	used := 0
	for i, p := range passages {
		rendered := renderPassage(p)
		cost := utf8.RuneCountInString(rendered)
		if len(block.Passages) > 0 {
			cost += utf8.RuneCountInString(passageSeparator)
		}
		if used+cost > b.maxChars {
			block.Truncated = true
			b.logger.Debug().
				Int("included", len(block.Passages)).
				Int("dropped", len(passages)-i).
				Int("budget_chars", b.maxChars).
				Msg("Context budget reached, dropping remaining passages")
			break
		}
		if len(block.Passages) > 0 {
			sb.WriteString(passageSeparator)
		}
		sb.WriteString(rendered)
		used += cost
		block.Passages = append(block.Passages, p)
	}

	block.Text = sb.String()
	block.Chars = used
	return block
}

// renderPassage tags the passage text with its provenance marker.
func renderPassage(p models.ScoredPassage) string {
	return CitationMarker(p.SourcePath) + "\n" + p.Text
}
