package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	output  string
	envFile string
}

var rootCmd = &cobra.Command{
	Use:   "ticketctl",
	Short: "Offline tools for GIS support tickets",
	Long:  "ticketctl normalizes ticket exports, runs the classifier against them\nand produces prompt documents for manual use with a chat model.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.output, "output", "o", "json", "Output format: json or yaml")
	pf.StringVar(&rootFlags.envFile, "env", "", "Path to a .env file (default: ./.env)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
