package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"equiintel/pkg/core/align"
	"equiintel/pkg/core/config"
	"equiintel/pkg/core/extract"
	"equiintel/pkg/core/locate"
	"equiintel/pkg/core/pipeline"
	"equiintel/pkg/core/source"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the line items of a statement without computing metrics",
	RunE:  runExtract,
}

var (
	extractStatement string
	extractMode      string
	extractAligner   string
	extractPreview   bool
	extractJSON      bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractStatement, "statement", "s", "", "Path to the financial statement (required)")
	extractCmd.Flags().StringVarP(&extractMode, "mode", "m", "", "Match mode: single or all (default from config)")
	extractCmd.Flags().StringVar(&extractAligner, "aligner", "", "Date alignment: positional or nearest_line (default from config)")
	extractCmd.Flags().BoolVar(&extractPreview, "preview", false, "Print the extracted text preview")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print the dataset as JSON")

	if err := extractCmd.MarkFlagRequired("statement"); err != nil {
		panic(fmt.Sprintf("failed to mark statement flag as required: %v", err))
	}

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyExtractFlags(cfg, extractMode, extractAligner); err != nil {
		return err
	}
	aligner, err := align.ByName(cfg.Extraction.Aligner)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(extractStatement)
	if err != nil {
		return fmt.Errorf("failed to read statement: %w", err)
	}

	engines, err := pipeline.NewEngines(cfg.OCR)
	if err != nil {
		return err
	}
	// nil when OCR is switched off; the adapter then degrades with a warning
	engine, _ := engines.Active()
	adapter := source.NewAdapter(engine, source.Options{
		Strategy:     cfg.Extraction.Strategy,
		MinTextChars: cfg.Extraction.MinTextChars,
		PreviewChars: cfg.Extraction.PreviewChars,
	})

	et, err := adapter.Extract(ctx, source.Document{Name: filepath.Base(extractStatement), Data: data})
	if err != nil {
		return err
	}

	textSrc := extract.NewTextSource(et, locate.New(locate.ParseMode(cfg.Extraction.Mode)), aligner)
	ds, warnings, err := extract.NewOrchestrator([]extract.SeriesSource{textSrc}).Extract(ctx, extract.Required)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if extractJSON {
		return writeJSON(out, ds)
	}
	if extractPreview {
		fmt.Fprintf(out, "[PREVIEW] %s, %d page(s)\n%s\n\n", et.Strategy, et.Pages(), et.Preview(cfg.Extraction.PreviewChars))
	}
	printDataset(out, ds)
	for _, w := range et.Warnings {
		fmt.Fprintf(out, "[WARNING] %v\n", w)
	}
	for _, w := range warnings {
		fmt.Fprintf(out, "[WARNING] %v\n", w)
	}
	return nil
}

// applyExtractFlags overrides the loaded configuration with command-line
// values and validates the result again.
func applyExtractFlags(cfg *config.Config, mode, aligner string) error {
	if mode != "" {
		cfg.Extraction.Mode = mode
	}
	if aligner != "" {
		cfg.Extraction.Aligner = aligner
	}
	return cfg.Validate()
}
