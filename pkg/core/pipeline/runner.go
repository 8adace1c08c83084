// Package pipeline runs one analysis: statement document -> text -> dataset
// -> metrics -> report.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"equiintel/pkg/core/align"
	"equiintel/pkg/core/benchmark"
	"equiintel/pkg/core/calc"
	"equiintel/pkg/core/config"
	"equiintel/pkg/core/extract"
	"equiintel/pkg/core/locate"
	"equiintel/pkg/core/ocr"
	"equiintel/pkg/core/prices"
	"equiintel/pkg/core/source"
	"equiintel/pkg/core/store"

	"github.com/google/uuid"
)

// Request is one analysis run's input. Only Statement is required.
type Request struct {
	Statement source.Document
	// Prices is the price history CSV; without it the stock return is absent.
	Prices []byte
	// Table is an optional pre-structured financial table (JSON, Hjson, CSV).
	Table     []byte
	TableName string
	Exchange  string
	Overrides extract.OverrideProvider
	// Labels defaults to extract.Required.
	Labels []extract.Label
}

// Report is the outcome of one run. It is never persisted.
type Report struct {
	RunID       string           `json:"run_id"`
	Fingerprint string           `json:"fingerprint"`
	Strategy    string           `json:"strategy"`
	CacheHit    bool             `json:"cache_hit"`
	Pages       int              `json:"pages"`
	Preview     string           `json:"preview"`
	Dates       []string         `json:"dates,omitempty"`
	Dataset     *extract.Dataset `json:"dataset"`
	Metrics     calc.Metrics     `json:"metrics"`
	Verdict     calc.Verdict     `json:"verdict"`
	Warnings    []string         `json:"warnings,omitempty"`
	Duration    time.Duration    `json:"duration_ns"`
}

// Deps are the collaborators a Runner is wired with. All are optional.
type Deps struct {
	Engines   *ocr.Registry
	Cache     store.TextCache
	Benchmark *benchmark.Resolver
	Remote    extract.SeriesSource
	Logger    *slog.Logger
}

// Runner executes analysis runs. It is safe for concurrent use.
type Runner struct {
	// Adapter, when set, is used instead of building one from Engines.
	Adapter source.Adapter

	sourceOpts source.Options
	version    string
	locator    *locate.Locator
	aligner    align.Strategy
	workers    int
	deps       Deps
}

// NewRunner wires a runner from configuration.
func NewRunner(cfg *config.Config, deps Deps) (*Runner, error) {
	aligner, err := align.ByName(cfg.Extraction.Aligner)
	if err != nil {
		return nil, err
	}
	if deps.Cache == nil {
		deps.Cache = store.NopCache{}
	}
	if deps.Benchmark == nil {
		deps.Benchmark = benchmark.NewResolver(benchmark.NewTable(cfg.Benchmark.Averages), nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	workers := 1
	if cfg.Extraction.Parallel {
		workers = cfg.Extraction.Workers
	}
	loc := locate.New(locate.ParseMode(cfg.Extraction.Mode))

	return &Runner{
		sourceOpts: source.Options{
			Strategy:     cfg.Extraction.Strategy,
			MinTextChars: cfg.Extraction.MinTextChars,
			PreviewChars: cfg.Extraction.PreviewChars,
		},
		version:    cfg.Extraction.Version,
		locator:    loc,
		aligner:    aligner,
		workers:    workers,
		deps:       deps,
	}, nil
}

// adapter returns the document adapter and the strategy label used in the
// cache key. The active OCR engine is read per run so it can be switched
// while the service is up.
func (r *Runner) adapter() (source.Adapter, string) {
	if r.Adapter != nil {
		return r.Adapter, r.sourceOpts.Strategy
	}
	var engine ocr.Engine
	name := ocr.None
	if r.deps.Engines != nil {
		if e, err := r.deps.Engines.Active(); err == nil {
			engine, name = e, e.Name()
		}
	}
	a := source.NewAdapter(engine, r.sourceOpts).WithLogger(r.deps.Logger)
	return a, a.Strategy() + "+" + name
}

// Run executes one analysis. Document-level failures (unreadable statement,
// invalid table or price history) abort the run; per-label gaps and engine
// problems are reported as warnings.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	rep := &Report{RunID: uuid.NewString()}
	logCtx := r.deps.Logger.With("run", rep.RunID, "document", req.Statement.Name)
	warn := func(err error) {
		rep.Warnings = append(rep.Warnings, err.Error())
	}

	et, err := r.extractText(ctx, req.Statement, rep, logCtx)
	if err != nil {
		return nil, err
	}
	for _, w := range et.Warnings {
		warn(w)
	}
	rep.Strategy = et.Strategy
	rep.Pages = et.Pages()
	rep.Preview = et.Preview(r.sourceOpts.PreviewChars)

	var sources []extract.SeriesSource
	if len(bytes.TrimSpace(req.Table)) > 0 {
		table, err := extract.ParseTable(req.TableName, req.Table)
		if err != nil {
			return nil, fmt.Errorf("invalid financial table: %w", err)
		}
		sources = append(sources, table)
	}
	textSrc := extract.NewTextSource(et, r.locator, r.aligner)
	for _, d := range textSrc.Dates() {
		rep.Dates = append(rep.Dates, d.Date)
	}
	sources = append(sources, textSrc)
	if r.deps.Remote != nil {
		sources = append(sources, r.deps.Remote)
	}

	labels := req.Labels
	if len(labels) == 0 {
		labels = extract.Required
	}
	opts := []extract.Option{extract.WithParallel(r.workers), extract.WithLogger(logCtx)}
	if req.Overrides != nil {
		opts = append(opts, extract.WithOverrides(req.Overrides))
	}
	ds, labelWarnings, err := extract.NewOrchestrator(sources, opts...).Extract(ctx, labels)
	if err != nil {
		return nil, err
	}
	for _, w := range labelWarnings {
		warn(w)
	}
	rep.Dataset = ds

	stockReturn := calc.Absent()
	if len(req.Prices) > 0 {
		h, err := prices.LoadCSV(bytes.NewReader(req.Prices))
		if err != nil {
			return nil, fmt.Errorf("invalid price history: %w", err)
		}
		stockReturn = h.MeanReturn()
	} else {
		warn(fmt.Errorf("no price history supplied; stock return unavailable"))
	}

	bench, err := r.deps.Benchmark.Resolve(ctx, req.Exchange)
	if err != nil {
		warn(err)
	}
	if !bench.IsPresent() {
		warn(fmt.Errorf("no benchmark return for exchange %q", req.Exchange))
	}

	rep.Metrics = calc.Evaluate(ds, stockReturn, bench)
	rep.Verdict = rep.Metrics.Verdict
	rep.Duration = time.Since(start)

	logCtx.Info("Analysis finished.",
		"verdict", string(rep.Verdict),
		"missing", len(ds.Missing()),
		"warnings", len(rep.Warnings),
		"cacheHit", rep.CacheHit,
		"duration", rep.Duration.String(),
	)
	return rep, nil
}

// extractText serves the document text from the cache or runs the adapter.
// Text extracted with warnings is not cached so a later run can retry OCR.
func (r *Runner) extractText(ctx context.Context, doc source.Document, rep *Report, logCtx *slog.Logger) (*source.ExtractedText, error) {
	adapter, strategy := r.adapter()
	rep.Fingerprint = store.Fingerprint(doc.Data)
	key := store.Key(rep.Fingerprint, strategy, r.version)

	cached, err := r.deps.Cache.Get(ctx, key)
	if err != nil {
		logCtx.Warn("Text cache read failed.", "error", err)
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("text cache unavailable: %v", err))
	}
	if cached != nil {
		rep.CacheHit = true
		logCtx.Info("Text served from cache.", "key", key)
		return &source.ExtractedText{
			Text:        cached.Text,
			PageOffsets: cached.PageOffsets,
			Strategy:    cached.Strategy,
		}, nil
	}

	et, err := adapter.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %s: %w", doc.Name, err)
	}

	if len(et.Warnings) == 0 {
		entry := &store.CachedText{
			Key:         key,
			Fingerprint: rep.Fingerprint,
			Strategy:    et.Strategy,
			Text:        et.Text,
			PageOffsets: et.PageOffsets,
		}
		if err := r.deps.Cache.Put(ctx, entry); err != nil {
			logCtx.Warn("Text cache write failed.", "error", err)
		}
	}
	return et, nil
}

// ClearCache drops cached text; an empty fingerprint clears everything.
// Anything other than a sha256 hex digest is rejected with
// store.ErrInvalidFingerprint.
func (r *Runner) ClearCache(ctx context.Context, fingerprint string) error {
	if fingerprint == "" {
		return r.deps.Cache.Clear(ctx)
	}
	if !store.ValidFingerprint(fingerprint) {
		return fmt.Errorf("%w: %q", store.ErrInvalidFingerprint, fingerprint)
	}
	return r.deps.Cache.Invalidate(ctx, fingerprint)
}
