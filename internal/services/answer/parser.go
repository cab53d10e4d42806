package answer

import (
	"regexp"
	"strings"

	"github.com/ternarybob/responsum/internal/models"
)

// citationMarkerRegex matches the [source: <path>] markers the prompts
// instruct the model to copy from the context block into its answer.
var citationMarkerRegex = regexp.MustCompile(`\[source:\s*([^\]]+)\]`)

// confidencePrefix heads the self-assessment line the strict prompt
// mandates as the final line of the reply.
const confidencePrefix = "confidence:"

// parsedAnswer is the structured decomposition of one model reply.
type parsedAnswer struct {
	Text       string
	Citations  []string
	Confidence models.Confidence
}

// parseResponse decomposes a raw model reply into answer text, cited
// source paths, and a confidence level. Citations are accepted only when
// they name a retrieved passage source; markers citing anything else are
// fabricated provenance and are discarded. A missing or malformed
// confidence trailer yields NONE. Parsing never fails: grounding
// discipline is enforced by the prompt, not by rejecting replies.
func parseResponse(raw string, retrievedSources []string) parsedAnswer {
	text := strings.TrimSpace(raw)

	confidence := models.ConfidenceNone
	if body, token, found := cutConfidenceTrailer(text); found {
		if parsed, ok := models.ParseConfidence(token); ok {
			confidence = parsed
		}
		text = body
	}

	return parsedAnswer{
		Text:       text,
		Citations:  extractCitations(text, retrievedSources),
		Confidence: confidence,
	}
}

// cutConfidenceTrailer splits the final "Confidence: <level>" line off
// the reply when present. Returns the remaining body, the raw level
// token, and whether a trailer line was found.
func cutConfidenceTrailer(text string) (body, token string, found bool) {
	idx := strings.LastIndex(text, "\n")
	last := text
	if idx >= 0 {
		last = text[idx+1:]
	}

	// Models occasionally bold the trailer despite the instructions.
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(last), "*"))
	if len(trimmed) < len(confidencePrefix) || !strings.EqualFold(trimmed[:len(confidencePrefix)], confidencePrefix) {
		return text, "", false
	}

	token = strings.TrimSpace(trimmed[len(confidencePrefix):])
	if idx < 0 {
		return "", token, true
	}
	return strings.TrimSpace(text[:idx]), token, true
}

// extractCitations collects the source paths cited in the answer text,
// keeping only paths present in the retrieved set, deduplicated and
// ordered as retrieved.
func extractCitations(text string, retrievedSources []string) []string {
	matches := citationMarkerRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	cited := make(map[string]bool, len(matches))
	for _, m := range matches {
		cited[strings.TrimSpace(m[1])] = true
	}

	var citations []string
	for _, src := range retrievedSources {
		if cited[src] {
			citations = append(citations, src)
		}
	}
	return citations
}
