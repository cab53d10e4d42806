package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/responsum/internal/app"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// runEvaluate answers every question in the evaluation dataset, grades
// the answers against their grounding rubric, prints per-case verdicts,
// and persists the JSON report.
func runEvaluate(ctx context.Context, application *app.App, args []string) int {
	flags := flag.NewFlagSet("evaluate", flag.ExitOnError)
	promptVersion := flags.Int("prompt-version", 0, "Prompt template version: 1 or 2 (default from config)")
	dataset := flags.String("dataset", "", "Evaluation dataset YAML path (overrides config)")
	last := flags.Bool("last", false, "Print the most recent persisted report instead of running")
	flags.Parse(args)

	if *last {
		return printLastReport(ctx, application)
	}

	path := *dataset
	if path == "" {
		path = application.Config.Evaluation.Dataset
	}

	version := models.PromptVersion(*promptVersion)
	if *promptVersion == 0 {
		version = application.Config.PromptVersion()
	}

	cases, err := application.EvaluationService.LoadDataset(path)
	if err != nil {
		application.Logger.Error().Err(err).Msg("Failed to load evaluation dataset")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Probe the provider before burning a whole run on a dead key
	if err := application.LLMService.HealthCheck(ctx); err != nil {
		application.Logger.Error().Err(err).Msg("LLM provider health check failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Evaluating %d questions with prompt v%d\n\n", len(cases), version)

	report, err := application.EvaluationService.Run(ctx, path, cases, version)
	if err != nil {
		application.Logger.Error().Err(err).Msg("Evaluation run failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	printReport(report)
	return 0
}

// printLastReport shows the newest persisted evaluation report.
func printLastReport(ctx context.Context, application *app.App) int {
	report, err := application.StorageManager.ReportStorage().GetLatestReport(ctx)
	if err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			fmt.Fprintln(os.Stderr, "No evaluation reports recorded yet")
			return 1
		}
		application.Logger.Error().Err(err).Msg("Failed to load latest evaluation report")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Dataset: %s (prompt v%d)\n\n", report.Dataset, report.PromptVersion)
	printReport(report)
	return 0
}

func printReport(report *models.EvaluationReport) {
	for _, result := range report.Results {
		fmt.Printf("[%-7s] %s (confidence: %s)\n", result.Verdict, result.Question, result.Confidence)
		for _, failure := range result.Failures {
			fmt.Printf("          - %s\n", failure)
		}
	}

	fmt.Printf("\nSummary: %d passed, %d partial, %d failed of %d (pass rate %.0f%%)\n",
		report.Passed, report.Partial, report.Failed, report.Total(), report.PassRate()*100)
	fmt.Printf("Report: %s (model %s, %s)\n", report.ID, report.Model, report.Duration)
}
