package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/responsum/internal/app"
)

// runIngest chunks, embeds, and indexes every supported document in the
// corpus directory. Per-document failures are reported and the run
// continues; the exit code is non-zero only when nothing was ingested.
func runIngest(ctx context.Context, application *app.App, args []string) int {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	docsDir := flags.String("docs", "", "Documents directory (overrides config)")
	flags.Parse(args)

	dir := *docsDir
	if dir == "" {
		dir = application.Config.Documents.Dir
	}

	fmt.Printf("Ingesting documents from %s\n", dir)

	stats, err := application.Ingest(ctx, dir)
	if err != nil {
		application.Logger.Error().Err(err).Msg("Ingest failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	for _, failure := range stats.Failures {
		fmt.Printf("  failed: %s (%s)\n", failure.Path, failure.Reason)
	}

	fmt.Printf("\nIngest complete: %d documents, %d chunks embedded, %d vectors upserted",
		stats.Documents, stats.Chunks, stats.Upserted)
	if len(stats.Failures) > 0 {
		fmt.Printf(", %d files failed", len(stats.Failures))
	}
	fmt.Println()

	if stats.Documents == 0 {
		fmt.Fprintln(os.Stderr, "Error: no documents were ingested")
		return 1
	}
	return 0
}
