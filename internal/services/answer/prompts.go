package answer

import (
	"fmt"

	"github.com/ternarybob/responsum/internal/models"
)

// RefusalText is the canonical refusal wording. The strict prompt
// instructs the model to reply with it when the context is insufficient,
// and the service returns it verbatim when retrieval yields nothing.
const RefusalText = "I don't know. The provided documents do not contain this information."

// systemPromptV1 is the baseline answering prompt. It asks for grounding
// but enforces no citation or confidence structure; kept so evaluation
// runs can compare it against the strict prompt.
const systemPromptV1 = `You are a helpful assistant answering questions about policy documents.

Use the provided context to answer the question. Be concise and accurate.
If the context does not cover the question, say that you don't know.`

// systemPromptV2 is the strict grounding prompt: context-only answers,
// mandatory source citations, mandatory trailing confidence line.
const systemPromptV2 = `You are an assistant that answers questions strictly from the provided policy documents.

Rules:
1. Use ONLY the context below to answer. Never draw on outside knowledge.
2. Cite the source of every fact by copying its [source: <path>] marker from the context into your answer.
3. If the context does not contain the information needed, reply exactly: "` + RefusalText + `" and cite nothing.
4. End your reply with a single line stating how well the context supports your answer: "Confidence: FULL", "Confidence: PARTIAL", or "Confidence: NONE".

Do not add anything after the confidence line.`

// SystemPrompt returns the answering instructions for the given template
// version. Unknown versions are a configuration mistake and are never
// silently mapped to another template.
func SystemPrompt(version models.PromptVersion) (string, error) {
	switch version {
	case models.PromptV1:
		return systemPromptV1, nil
	case models.PromptV2:
		return systemPromptV2, nil
	}
	return "", models.NewConfigurationError("llm.prompt_version", fmt.Sprintf("unknown prompt version %d (use 1 or 2)", version))
}

// renderUserPrompt places the rendered context block and the question
// into the user turn of the generation request.
func renderUserPrompt(contextText, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)
}
