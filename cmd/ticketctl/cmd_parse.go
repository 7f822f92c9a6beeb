package main

import (
	"github.com/spf13/cobra"
)

type parseOutput struct {
	Source  string              `json:"source"`
	Total   int                 `json:"total"`
	Skipped int                 `json:"skipped"`
	Tickets []map[string]string `json:"tickets"`
}

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Normalize an XML or JSON ticket file",
	Long: `Normalize a ticket export and print the canonical tickets.

Usage:
  ticketctl parse export.xml
  ticketctl parse tickets.json -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	tickets, skipped, err := loadTickets(args[0])
	if err != nil {
		return err
	}
	out := parseOutput{Source: args[0], Total: len(tickets), Skipped: skipped, Tickets: make([]map[string]string, len(tickets))}
	for i, t := range tickets {
		out.Tickets[i] = t.Map()
	}
	return writeOutput(cmd.OutOrStdout(), rootFlags.output, out)
}
