package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Extraction, cfg.Extraction)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equiintel.yaml")
	yml := `
server:
  addr: ":9090"
extraction:
  strategy: ocr
  mode: all
  aligner: nearest_line
  parallel: true
  workers: 8
ocr:
  engine: gemini
  timeout: 90s
cache:
  backend: file
  dir: /tmp/cache
benchmark:
  attempts: 5
  delay: 500ms
  averages:
    LSE: 0.03
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))
	t.Setenv("EQUIINTEL_WORKERS", "2")
	t.Setenv("EQUIINTEL_OCR_ENGINE", "none")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "ocr", cfg.Extraction.Strategy)
	assert.Equal(t, "all", cfg.Extraction.Mode)
	assert.Equal(t, "nearest_line", cfg.Extraction.Aligner)
	assert.True(t, cfg.Extraction.Parallel)
	assert.Equal(t, 2, cfg.Extraction.Workers)
	assert.Equal(t, "none", cfg.OCR.Engine)
	assert.Equal(t, 90*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Benchmark.Delay)
	assert.Equal(t, 0.03, cfg.Benchmark.Averages["LSE"])
	// untouched keys keep their defaults
	assert.Equal(t, 2000, cfg.Extraction.PreviewChars)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad strategy", func(c *Config) { c.Extraction.Strategy = "magic" }},
		{"zero workers", func(c *Config) { c.Extraction.Workers = 0 }},
		{"bad engine", func(c *Config) { c.OCR.Engine = "abbyy" }},
		{"postgres without url", func(c *Config) { c.Cache.Backend = "postgres" }},
		{"redis without url", func(c *Config) { c.Cache.Backend = "redis" }},
		{"bad benchmark url", func(c *Config) { c.Benchmark.URL = "not a url" }},
		{"remote without symbol", func(c *Config) { c.Remote.URL = "http://series.local" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("EQUIINTEL_WORKERS", "many")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
