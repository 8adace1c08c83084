// Package main is the equiintel command line: analyze a statement, inspect
// extraction, list the line items.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"equiintel/pkg/core/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "equiintel",
	Short: "Extract financial line items from statements and pronounce an investment verdict",
	Long: "equiintel reads a financial statement (PDF, scan, HTML, Markdown or text), extracts the " +
		"line items needed for ROIC, growth, valuation and leverage, and combines them with a price " +
		"history into an Invest / Do Not Invest verdict.",
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log extraction details to stderr")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
