package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"equiintel/pkg/core/config"
	"equiintel/pkg/core/extract"
	"equiintel/pkg/core/pipeline"
	"equiintel/pkg/core/source"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis and print the verdict",
	Long:  "Extracts the statement, fills gaps from an optional structured table and manual overrides, computes every metric and prints the report.",
	RunE:  runAnalyze,
}

var (
	analyzeStatement   string
	analyzePrices      string
	analyzeTable       string
	analyzeExchange    string
	analyzeOverrides   string
	analyzeInteractive bool
	analyzeJSON        bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeStatement, "statement", "s", "", "Path to the financial statement (required)")
	analyzeCmd.Flags().StringVarP(&analyzePrices, "prices", "p", "", "Path to the share price CSV (Close column)")
	analyzeCmd.Flags().StringVarP(&analyzeTable, "table", "t", "", "Path to a structured financial table (JSON, Hjson or CSV)")
	analyzeCmd.Flags().StringVarP(&analyzeExchange, "exchange", "e", "NSE", "Exchange used for the benchmark return")
	analyzeCmd.Flags().StringVar(&analyzeOverrides, "override", "", `Manual values, e.g. "Book Value=2500; Market Cap=1e6"`)
	analyzeCmd.Flags().BoolVarP(&analyzeInteractive, "interactive", "i", false, "Prompt on stdin for labels that were not found")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the report as JSON")

	if err := analyzeCmd.MarkFlagRequired("statement"); err != nil {
		panic(fmt.Sprintf("failed to mark statement flag as required: %v", err))
	}

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	runner, _, cleanup, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	req, err := buildRequest()
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		return writeJSON(out, report)
	}
	printReport(out, report)
	return nil
}

func buildRequest() (pipeline.Request, error) {
	statement, err := os.ReadFile(analyzeStatement)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("failed to read statement: %w", err)
	}
	req := pipeline.Request{
		Statement: source.Document{Name: filepath.Base(analyzeStatement), Data: statement},
		Exchange:  analyzeExchange,
	}

	if analyzePrices != "" {
		if req.Prices, err = os.ReadFile(analyzePrices); err != nil {
			return req, fmt.Errorf("failed to read prices: %w", err)
		}
	}
	if analyzeTable != "" {
		if req.Table, err = os.ReadFile(analyzeTable); err != nil {
			return req, fmt.Errorf("failed to read table: %w", err)
		}
		req.TableName = filepath.Base(analyzeTable)
	}

	var fixed extract.MapOverrides
	if analyzeOverrides != "" {
		if fixed, err = extract.ParseOverrides(analyzeOverrides); err != nil {
			return req, err
		}
	}
	switch {
	case analyzeInteractive:
		req.Overrides = &promptOverrides{fixed: fixed, in: bufio.NewReader(os.Stdin), out: os.Stderr}
	case fixed != nil:
		req.Overrides = fixed
	}
	return req, nil
}

// promptOverrides asks on the terminal for each gap. Fixed values answer
// first; an empty answer skips the label. Malformed input is asked again.
type promptOverrides struct {
	fixed extract.MapOverrides
	in    *bufio.Reader
	out   io.Writer
}

const maxPromptAttempts = 3

func (p *promptOverrides) Override(ctx context.Context, label extract.Label, contexts []string) (string, bool, error) {
	if v, ok := p.fixed[label]; ok {
		return v, true, nil
	}

	fmt.Fprintf(p.out, "\n[MISSING] %s was not found.\n", label)
	for i, c := range contexts {
		if i == 3 {
			break
		}
		fmt.Fprintf(p.out, "  ...%s...\n", strings.ReplaceAll(strings.TrimSpace(c), "\n", " "))
	}

	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		fmt.Fprintf(p.out, "Enter %s (blank to skip): ", label)
		line, err := p.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if err != nil && line == "" {
			if err == io.EOF {
				return "", false, nil
			}
			return "", false, err
		}
		if line == "" {
			return "", false, nil
		}
		if _, perr := parseCheck(line); perr != nil {
			fmt.Fprintf(p.out, "  %q is not a number: %v\n", line, perr)
			continue
		}
		return line, true, nil
	}
	return "", false, nil
}
