package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gisdesk/ticket-agent/internal/ai"
	"github.com/gisdesk/ticket-agent/internal/export"
)

var promptFlags struct {
	mode string
	dir  string
}

var promptCmd = &cobra.Command{
	Use:   "prompt FILE",
	Short: "Produce prompt documents for manual use",
	Long: `Build the system and user prompts for every ticket in a file.
Without --dir the documents are printed; with --dir one JSON file per ticket
is written and the paths are printed.

Usage:
  ticketctl prompt export.xml
  ticketctl prompt export.xml --mode categorize_only --dir prompts_export`,
	Args: cobra.ExactArgs(1),
	RunE: runPrompt,
}

func init() {
	f := promptCmd.Flags()
	f.StringVar(&promptFlags.mode, "mode", string(ai.ModeFull), "Prompt mode: full or categorize_only")
	f.StringVar(&promptFlags.dir, "dir", "", "Write documents to this directory instead of printing them")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	mode, ok := ai.ParseMode(promptFlags.mode)
	if !ok {
		return fmt.Errorf("unknown mode %q (want full or categorize_only)", promptFlags.mode)
	}
	tickets, _, err := loadTickets(args[0])
	if err != nil {
		return err
	}

	at := time.Now().UTC()
	docs := make([]export.Document, len(tickets))
	for i, t := range tickets {
		docs[i] = export.Build(t, mode, at)
	}

	if promptFlags.dir == "" {
		return writeOutput(cmd.OutOrStdout(), rootFlags.output, docs)
	}
	sink := export.FileSink{Dir: promptFlags.dir}
	for i, t := range tickets {
		path, err := sink.Write(cmd.Context(), export.FileName(t.ID, at), docs[i])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
