package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// OverrideProvider supplies a manual value for a label that no source could
// resolve. ok is false when the user declines.
type OverrideProvider interface {
	Override(ctx context.Context, label Label, contexts []string) (raw string, ok bool, err error)
}

// MapOverrides serves overrides from a fixed label -> raw value map.
type MapOverrides map[Label]string

// Override implements OverrideProvider.
func (m MapOverrides) Override(_ context.Context, label Label, _ []string) (string, bool, error) {
	raw, ok := m[label]
	return raw, ok, nil
}

// ParseOverrides reads "Label=value" pairs separated by ';' or newlines.
func ParseOverrides(s string) (MapOverrides, error) {
	out := MapOverrides{}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '\n' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("override %q: expected Label=value", part)
		}
		label, ok := ParseLabel(name)
		if !ok {
			return nil, fmt.Errorf("override %q: unknown label %q", part, strings.TrimSpace(name))
		}
		out[label] = strings.TrimSpace(value)
	}
	return out, nil
}

// Orchestrator resolves labels against an ordered list of sources. The first
// source returning a non-empty series wins.
type Orchestrator struct {
	sources   []SeriesSource
	workers   int
	overrides OverrideProvider
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithParallel resolves up to n labels concurrently. n <= 1 is sequential.
func WithParallel(n int) Option {
	return func(o *Orchestrator) { o.workers = n }
}

// WithOverrides enables the manual override step for unresolved labels.
func WithOverrides(p OverrideProvider) Option {
	return func(o *Orchestrator) { o.overrides = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an orchestrator over sources in priority order.
func NewOrchestrator(sources []SeriesSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{sources: sources, workers: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type resolved struct {
	entry    *Entry
	warnings []error
}

// Extract builds a dataset containing every label. Gaps and source failures
// are returned as warnings; the dataset is always complete in its keys. Only
// context cancellation aborts the run.
func (o *Orchestrator) Extract(ctx context.Context, labels []Label) (*Dataset, []error, error) {
	ds := NewDataset(labels)
	order := ds.Labels()
	results := make([]resolved, len(order))

	g, gctx := errgroup.WithContext(ctx)
	if o.workers > 1 {
		g.SetLimit(o.workers)
	} else {
		g.SetLimit(1)
	}
	for i, label := range order {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.resolve(gctx, label)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("extraction cancelled: %w", err)
	}

	var warnings []error
	for i, label := range order {
		r := results[i]
		warnings = append(warnings, r.warnings...)
		if err := ds.Set(label, r.entry); err != nil {
			return nil, nil, err
		}
	}

	// overrides may prompt a human, so they stay sequential and in label order
	for _, label := range ds.Missing() {
		entry, _ := ds.Entry(label)
		warnings = append(warnings, &LabelNotFoundWarning{Label: label, Contexts: entry.Contexts, HintLine: entry.HintLine})
		if o.overrides == nil {
			continue
		}
		if err := o.applyOverride(ctx, ds, label, entry); err != nil {
			if ctx.Err() != nil {
				return nil, nil, fmt.Errorf("extraction cancelled: %w", ctx.Err())
			}
			warnings = append(warnings, err)
		}
	}

	o.logger.Info("Extraction finished.",
		"labels", len(order), "missing", len(ds.Missing()), "warnings", len(warnings))
	return ds, warnings, nil
}

func (o *Orchestrator) resolve(ctx context.Context, label Label) resolved {
	var (
		r        resolved
		contexts []string
		hint     int
	)
	for _, src := range o.sources {
		lk, err := src.FetchSeries(ctx, label)
		if err != nil {
			o.logger.Warn("Source failed.", "source", src.Name(), "label", label, "error", err)
			r.warnings = append(r.warnings, fmt.Errorf("%s source: %w", src.Name(), err))
			continue
		}
		if len(lk.Series) > 0 {
			o.logger.Debug("Label resolved.", "label", label, "source", src.Name(), "points", len(lk.Series))
			r.entry = &Entry{Series: lk.Series, Source: src.Name()}
			return r
		}
		if contexts == nil && len(lk.Contexts) > 0 {
			contexts, hint = lk.Contexts, lk.HintLine
		}
	}
	r.entry = &Entry{Contexts: contexts, HintLine: hint}
	return r
}

func (o *Orchestrator) applyOverride(ctx context.Context, ds *Dataset, label Label, entry *Entry) error {
	raw, ok, err := o.overrides.Override(ctx, label, entry.Contexts)
	if err != nil {
		return fmt.Errorf("override for %s: %w", label, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := ds.ApplyOverride(label, raw); err != nil {
		return err
	}
	o.logger.Info("Manual override applied.", "label", label, "value", raw)
	return nil
}
