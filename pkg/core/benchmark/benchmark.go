// Package benchmark resolves the return a stock is compared against: an
// industry-average table per exchange, optionally refreshed from a remote
// endpoint.
package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"equiintel/pkg/core/calc"
	"equiintel/pkg/core/fetch"
)

// DefaultAverages are the built-in industry average returns per exchange.
var DefaultAverages = map[string]float64{
	"NSE":    0.05,
	"NYSE":   0.04,
	"NASDAQ": 0.06,
}

// Table is a static exchange -> average return lookup.
type Table map[string]float64

// NewTable merges overrides into DefaultAverages.
func NewTable(overrides map[string]float64) Table {
	t := make(Table, len(DefaultAverages)+len(overrides))
	for k, v := range DefaultAverages {
		t[k] = v
	}
	for k, v := range overrides {
		t[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return t
}

// IndustryAverage looks an exchange up case-insensitively. Unknown
// exchanges are Absent.
func (t Table) IndustryAverage(exchange string) calc.Optional {
	v, ok := t[strings.ToUpper(strings.TrimSpace(exchange))]
	if !ok {
		return calc.Absent()
	}
	return calc.Present(v)
}

// Exchanges lists the known exchanges, sorted.
func (t Table) Exchanges() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fetcher reads an exchange average from GET {BaseURL}/{exchange}, which
// returns {"exchange": "...", "average_return": 0.05}.
type Fetcher struct {
	BaseURL string
	client  *fetch.Client
}

// NewFetcher creates a fetcher with bounded retry.
func NewFetcher(baseURL string, attempts int, delay time.Duration) *Fetcher {
	return &Fetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  fetch.NewClient(attempts, delay),
	}
}

type remoteAverage struct {
	Exchange      string   `json:"exchange"`
	AverageReturn *float64 `json:"average_return"`
}

// Fetch returns the remote average. After the last failed attempt the
// last error is returned.
func (f *Fetcher) Fetch(ctx context.Context, exchange string) (float64, error) {
	u := fmt.Sprintf("%s/%s", f.BaseURL, url.PathEscape(strings.ToUpper(exchange)))
	var ra remoteAverage
	if err := f.client.GetJSON(ctx, u, &ra); err != nil {
		return 0, fmt.Errorf("benchmark for %s: %w", exchange, err)
	}
	if ra.AverageReturn == nil {
		return 0, fmt.Errorf("benchmark for %s: response has no average_return", exchange)
	}
	return *ra.AverageReturn, nil
}

// Resolver asks the remote fetcher first, when configured, and falls back to
// the static table.
type Resolver struct {
	Table   Table
	Fetcher *Fetcher
	logger  *slog.Logger
}

// NewResolver creates a resolver; fetcher may be nil.
func NewResolver(table Table, fetcher *Fetcher) *Resolver {
	if table == nil {
		table = NewTable(nil)
	}
	return &Resolver{Table: table, Fetcher: fetcher, logger: slog.Default()}
}

// Resolve returns the benchmark for an exchange plus a warning when the
// remote lookup failed and the table was used instead.
func (r *Resolver) Resolve(ctx context.Context, exchange string) (calc.Optional, error) {
	if r.Fetcher != nil && r.Fetcher.BaseURL != "" {
		v, err := r.Fetcher.Fetch(ctx, exchange)
		if err == nil {
			return calc.Present(v), nil
		}
		r.logger.Warn("Remote benchmark unavailable, using table.", "exchange", exchange, "error", err)
		return r.Table.IndustryAverage(exchange), err
	}
	return r.Table.IndustryAverage(exchange), nil
}
