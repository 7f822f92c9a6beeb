package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gisdesk/ticket-agent/internal/app"
	"github.com/gisdesk/ticket-agent/internal/config"
	"github.com/gisdesk/ticket-agent/internal/models"
	"github.com/gisdesk/ticket-agent/internal/service"
)

var analyzeFlags struct {
	workers int
	rules   bool
	verbose bool
}

type analyzeOutput struct {
	Source  string                  `json:"source"`
	Skipped int                     `json:"skipped"`
	Summary service.RunSummary      `json:"summary"`
	Results []models.AnalysisResult `json:"results"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Classify every ticket in a file",
	Long: `Normalize a ticket file and run the same pipeline the server uses.
Model, store and prompt export settings come from the environment or --env.

Usage:
  ticketctl analyze export.xml
  ticketctl analyze tickets.json --rules-only -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.IntVar(&analyzeFlags.workers, "workers", service.DefaultWorkers, "Concurrent analyses")
	f.BoolVar(&analyzeFlags.rules, "rules-only", false, "Skip the model even when AI_ENABLED is set")
	f.BoolVarP(&analyzeFlags.verbose, "verbose", "v", false, "Log pipeline events to stderr")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rootFlags.envFile)
	if err != nil {
		return err
	}
	if analyzeFlags.rules {
		cfg.AIEnabled = false
		cfg.FallbackToRules = true
	}

	logger := zerolog.Nop()
	if analyzeFlags.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}

	tickets, skipped, err := loadTickets(args[0])
	if err != nil {
		return err
	}

	a, err := app.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	results, summary := a.Analyzer.AnalyzeBatch(cmd.Context(), tickets, analyzeFlags.workers)
	return writeOutput(cmd.OutOrStdout(), rootFlags.output, analyzeOutput{
		Source:  args[0],
		Skipped: skipped,
		Summary: summary,
		Results: results,
	})
}
