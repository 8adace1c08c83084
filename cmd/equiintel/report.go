package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"equiintel/pkg/core/extract"
	"equiintel/pkg/core/locate"
	"equiintel/pkg/core/pipeline"
)

func parseCheck(s string) (float64, error) {
	return locate.ParseNumber(s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDataset(w io.Writer, ds *extract.Dataset) {
	fmt.Fprintln(w, "[DATASET]")
	for _, l := range ds.Labels() {
		e, _ := ds.Entry(l)
		if e.Empty() {
			fmt.Fprintf(w, "  %-22s (missing)\n", l)
			continue
		}
		parts := make([]string, 0, len(e.Series))
		for _, dv := range e.Series {
			parts = append(parts, fmt.Sprintf("%s=%g", dv.Date, dv.Value))
		}
		fmt.Fprintf(w, "  %-22s %s  [%s]\n", l, strings.Join(parts, ", "), e.Source)
	}
}

func printReport(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "[RUN] %s  document=%s  strategy=%s  pages=%d  cached=%t\n",
		r.RunID, shortFingerprint(r.Fingerprint), r.Strategy, r.Pages, r.CacheHit)
	printDataset(w, r.Dataset)

	m := r.Metrics
	fmt.Fprintln(w, "[METRICS]")
	fmt.Fprintf(w, "  ROIC:                   %s\n", m.ROIC)
	fmt.Fprintf(w, "  Capex (high / low):     %s / %s\n", m.InvestmentSplit.High, m.InvestmentSplit.Low)
	fmt.Fprintf(w, "  Stock returns:          %s\n", m.StockReturn)
	fmt.Fprintf(w, "  Industry average:       %s\n", m.Benchmark)
	fmt.Fprintf(w, "  Revenue CAGR:           %s\n", m.Growth)
	fmt.Fprintf(w, "  Market cap:             %s\n", m.Valuation.MarketCap)
	fmt.Fprintf(w, "  Intrinsic value:        %s\n", m.Valuation.IntrinsicValue)
	fmt.Fprintf(w, "  Operating leverage:     %s\n", m.OperatingLeverage)
	for _, s := range m.StressTest {
		fmt.Fprintf(w, "  Stress (%s):  ROIC %s\n", s.Name, s.ROIC)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "[WARNING] %s\n", warn)
	}
	fmt.Fprintf(w, "[VERDICT] %s\n", r.Verdict)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
