package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/app"
	"github.com/ternarybob/responsum/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Global flags, parsed before the subcommand
	configFiles  configPaths
	logLevel     = flag.String("log-level", "", "Log level override (debug|info|warn|error)")
	quiet        = flag.Bool("quiet", false, "Suppress console logging and the banner")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, `Responsum answers questions about policy documents from retrieved context.

Usage:
  responsum [flags] <command> [command flags]

Commands:
  ingest     Chunk, embed, and index the policy document corpus
  ask        Answer one question from the indexed corpus
  evaluate   Run the grounding evaluation suite and persist a report
  version    Print version information

Flags:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nRun 'responsum <command> -h' for command flags.\n")
}

func main() {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Responsum version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	command := args[0]
	commandArgs := args[1:]

	if command == "version" {
		fmt.Printf("Responsum version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover a config file next to the working directory when none
	// is given; the built-in defaults are complete, so this is optional.
	if len(configFiles) == 0 {
		if _, err := os.Stat("responsum.toml"); err == nil {
			configFiles = append(configFiles, "responsum.toml")
		}
	}

	// Phase 1: load config without KV replacement (storage not up yet);
	// app.New applies the replacement pass once storage is initialized.
	config, err := common.LoadFromFiles(nil, configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *logLevel, *quiet)

	logger := common.InitLogger(config)

	if !*quiet {
		common.PrintBanner(common.GetVersion())
	}

	os.Exit(run(config, logger, command, commandArgs))
}

// run dispatches the subcommand and returns the process exit code.
func run(config *common.Config, logger arbor.ILogger, command string, args []string) int {
	if command != "ingest" && command != "ask" && command != "evaluate" {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer application.Close()

	switch command {
	case "ingest":
		return runIngest(ctx, application, args)
	case "ask":
		return runAsk(ctx, application, args)
	case "evaluate":
		return runEvaluate(ctx, application, args)
	}
	return 2
}
