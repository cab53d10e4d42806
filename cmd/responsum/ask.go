package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/responsum/internal/app"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// runAsk answers a single question from the indexed corpus and prints
// the answer with its citations and confidence level.
func runAsk(ctx context.Context, application *app.App, args []string) int {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	promptVersion := flags.Int("prompt-version", 0, "Prompt template version: 1 or 2 (default from config)")
	showContext := flags.Bool("show-context", false, "Print the retrieved passages used as context")
	topK := flags.Int("top-k", 0, "Number of passages to retrieve (default from config)")
	flags.Parse(args)

	question := strings.TrimSpace(strings.Join(flags.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: responsum ask [flags] \"question\"")
		return 2
	}

	if *promptVersion != 0 && !models.PromptVersion(*promptVersion).Valid() {
		fmt.Fprintf(os.Stderr, "Error: invalid prompt version %d (use 1 or 2)\n", *promptVersion)
		return 2
	}

	answer, err := application.AnswerService.Ask(ctx, question, interfaces.AskOptions{
		PromptVersion: models.PromptVersion(*promptVersion),
		TopK:          *topK,
	})
	if err != nil {
		application.Logger.Error().Err(err).Msg("Question failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	printAnswer(answer, *showContext)
	return 0
}

func printAnswer(answer *models.Answer, showContext bool) {
	fmt.Printf("\nQuestion: %s\n\n", answer.Question)
	fmt.Println(answer.Text)

	fmt.Printf("\nConfidence: %s\n", answer.Confidence)
	if len(answer.Citations) > 0 {
		fmt.Println("Sources:")
		for _, citation := range answer.Citations {
			fmt.Printf("  - %s\n", citation)
		}
	}

	if showContext && answer.Context != nil {
		fmt.Printf("\nRetrieved context (%d passages, %d chars):\n", len(answer.Context.Passages), answer.Context.Chars)
		for _, p := range answer.Context.Passages {
			fmt.Printf("\n[%.3f] %s (%s)\n", p.Score, p.ChunkID, p.SourcePath)
			fmt.Println(indent(p.Text, "  "))
		}
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
