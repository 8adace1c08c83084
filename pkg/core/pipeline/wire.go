package pipeline

import (
	"context"
	"fmt"

	"equiintel/pkg/core/benchmark"
	"equiintel/pkg/core/config"
	"equiintel/pkg/core/extract"
	"equiintel/pkg/core/fetch"
	"equiintel/pkg/core/ocr"
	"equiintel/pkg/core/store"
)

// NewEngines registers every OCR engine and selects the configured one.
// With engine "none" OCR starts switched off; runs read the selection each
// time, so switching an engine on later takes effect on the next run.
func NewEngines(cfg config.OCRConfig) (*ocr.Registry, error) {
	tess := ocr.NewTesseractEngine(cfg.TesseractPath)
	if cfg.Language != "" {
		tess.Language = cfg.Language
	}
	tess.PageSegMode = cfg.PageSegMode
	if cfg.Timeout > 0 {
		tess.Timeout = cfg.Timeout
	}

	reg := ocr.NewRegistry(tess, ocr.NewGeminiEngine(cfg.GeminiModel))
	if cfg.Engine != "" {
		if err := reg.SetActive(cfg.Engine); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Build wires a Runner and its collaborators from configuration. The
// returned cleanup releases cache connections.
func Build(ctx context.Context, cfg *config.Config) (*Runner, *ocr.Registry, func(), error) {
	engines, err := NewEngines(cfg.OCR)
	if err != nil {
		return nil, nil, nil, err
	}

	cache, err := store.Open(ctx, store.Options{
		Backend:     cfg.Cache.Backend,
		Dir:         cfg.Cache.Dir,
		DatabaseURL: cfg.Cache.DatabaseURL,
		RedisURL:    cfg.Cache.RedisURL,
		TTL:         cfg.Cache.TTL,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open %s text cache: %w", cfg.Cache.Backend, err)
	}
	cleanup := func() {
		if rc, ok := cache.(*store.RedisCache); ok {
			_ = rc.Close()
		}
		if cfg.Cache.Backend == store.BackendPostgres {
			store.Close()
		}
	}

	var fetcher *benchmark.Fetcher
	if cfg.Benchmark.URL != "" {
		fetcher = benchmark.NewFetcher(cfg.Benchmark.URL, cfg.Benchmark.Attempts, cfg.Benchmark.Delay)
	}

	var remote extract.SeriesSource
	if cfg.Remote.URL != "" {
		remote = extract.NewRemoteSource(cfg.Remote.URL, cfg.Remote.Symbol, fetch.NewClient(1, 0))
	}

	runner, err := NewRunner(cfg, Deps{
		Engines:   engines,
		Cache:     cache,
		Benchmark: benchmark.NewResolver(benchmark.NewTable(cfg.Benchmark.Averages), fetcher),
		Remote:    remote,
	})
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return runner, engines, cleanup, nil
}
