// Package config loads the service configuration: a YAML file, then
// environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "config/equiintel.yaml"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Extraction ExtractionConfig `yaml:"extraction"`
	OCR        OCRConfig        `yaml:"ocr"`
	Cache      CacheConfig      `yaml:"cache"`
	Benchmark  BenchmarkConfig  `yaml:"benchmark"`
	Remote     RemoteConfig     `yaml:"remote"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr" validate:"required"`
	MaxUploadMB   int64  `yaml:"max_upload_mb" validate:"gte=1"`
	AllowedOrigin string `yaml:"allowed_origin"`
}

type ExtractionConfig struct {
	Strategy     string `yaml:"strategy" validate:"oneof=auto text ocr"`
	MinTextChars int    `yaml:"min_text_chars" validate:"gte=0"`
	PreviewChars int    `yaml:"preview_chars" validate:"gte=0"`
	Mode         string `yaml:"mode" validate:"oneof=single all"`
	Aligner      string `yaml:"aligner" validate:"oneof=positional nearest_line"`
	Parallel     bool   `yaml:"parallel"`
	Workers      int    `yaml:"workers" validate:"gte=1,lte=64"`
	// Version is part of the text cache key; bump it when extraction changes.
	Version string `yaml:"version" validate:"required"`
}

type OCRConfig struct {
	Engine        string        `yaml:"engine" validate:"oneof=tesseract gemini none"`
	TesseractPath string        `yaml:"tesseract_path"`
	Language      string        `yaml:"language"`
	PageSegMode   int           `yaml:"page_seg_mode" validate:"gte=0,lte=13"`
	Timeout       time.Duration `yaml:"timeout"`
	GeminiModel   string        `yaml:"gemini_model"`
}

type CacheConfig struct {
	Backend     string        `yaml:"backend" validate:"oneof=none file postgres redis"`
	Dir         string        `yaml:"dir"`
	DatabaseURL string        `yaml:"database_url" validate:"required_if=Backend postgres"`
	RedisURL    string        `yaml:"redis_url" validate:"required_if=Backend redis"`
	TTL         time.Duration `yaml:"ttl"`
}

type BenchmarkConfig struct {
	URL      string             `yaml:"url" validate:"omitempty,url"`
	Attempts int                `yaml:"attempts" validate:"gte=1,lte=10"`
	Delay    time.Duration      `yaml:"delay"`
	Averages map[string]float64 `yaml:"averages"`
}

type RemoteConfig struct {
	URL    string `yaml:"url" validate:"omitempty,url"`
	Symbol string `yaml:"symbol" validate:"required_with=URL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", MaxUploadMB: 32, AllowedOrigin: "*"},
		Extraction: ExtractionConfig{
			Strategy:     "auto",
			MinTextChars: 50,
			PreviewChars: 2000,
			Mode:         "single",
			Aligner:      "positional",
			Workers:      4,
			Version:      "1",
		},
		OCR: OCRConfig{
			Engine:      "tesseract",
			Language:    "eng",
			Timeout:     60 * time.Second,
			GeminiModel: "gemini-2.5-flash",
		},
		Cache:     CacheConfig{Backend: "none", Dir: ".cache/equiintel/text", TTL: 24 * time.Hour},
		Benchmark: BenchmarkConfig{Attempts: 3, Delay: 2 * time.Second},
	}
}

// Load reads path (DefaultPath when empty) over the defaults. A missing file
// is not an error. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		fmt.Printf("[CONFIG] %s not found, using defaults\n", path)
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("EQUIINTEL_ADDR", &c.Server.Addr)
	setString("EQUIINTEL_STRATEGY", &c.Extraction.Strategy)
	setString("EQUIINTEL_MODE", &c.Extraction.Mode)
	setString("EQUIINTEL_ALIGNER", &c.Extraction.Aligner)
	setString("EQUIINTEL_OCR_ENGINE", &c.OCR.Engine)
	setString("TESSERACT_PATH", &c.OCR.TesseractPath)
	setString("EQUIINTEL_CACHE_BACKEND", &c.Cache.Backend)
	setString("EQUIINTEL_CACHE_DIR", &c.Cache.Dir)
	setString("DATABASE_URL", &c.Cache.DatabaseURL)
	setString("REDIS_URL", &c.Cache.RedisURL)
	setString("EQUIINTEL_BENCHMARK_URL", &c.Benchmark.URL)
	setString("EQUIINTEL_REMOTE_URL", &c.Remote.URL)
	setString("EQUIINTEL_REMOTE_SYMBOL", &c.Remote.Symbol)

	if v := os.Getenv("EQUIINTEL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EQUIINTEL_WORKERS: %w", err)
		}
		c.Extraction.Workers = n
	}
	if v := os.Getenv("EQUIINTEL_PARALLEL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EQUIINTEL_PARALLEL: %w", err)
		}
		c.Extraction.Parallel = b
	}
	return nil
}
