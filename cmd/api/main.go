package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"equiintel/pkg/api/analysis"
	apiconfig "equiintel/pkg/api/config"
	"equiintel/pkg/core/config"
	"equiintel/pkg/core/ocr"
	"equiintel/pkg/core/pipeline"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML configuration")
	flag.Parse()

	// Load environment variables
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	runner, engines, cleanup, err := pipeline.Build(context.Background(), cfg)
	if err != nil {
		fmt.Printf("[FATAL] Failed to initialize pipeline: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()
	if engine, err := engines.Active(); err == nil {
		fmt.Printf("[OCR] Active engine: %s (available: %v)\n", ocr.Describe(context.Background(), engine), engines.Names())
	} else {
		fmt.Printf("[OCR] Active engine: %s (available: %v)\n", engines.ActiveName(), engines.Names())
	}
	fmt.Printf("[CACHE] Backend: %s\n", cfg.Cache.Backend)

	mux := http.NewServeMux()

	// Config endpoints
	configHandler := apiconfig.NewHandler(engines)
	mux.HandleFunc("/api/config", configHandler.HandleConfig)
	mux.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	// Analysis endpoints
	analysisHandler := analysis.NewHandler(runner)
	analysisHandler.MaxUploadMB = cfg.Server.MaxUploadMB
	analysisHandler.AllowedOrigin = cfg.Server.AllowedOrigin
	analysisHandler.Register(mux)

	fmt.Printf("API server starting on %s...\n", cfg.Server.Addr)
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")
	fmt.Println("  - POST /api/analyze  (multipart: statement, prices, table, exchange, overrides)")
	fmt.Println("  - GET  /api/labels")
	fmt.Println("  - POST /api/cache/clear")

	if err := http.ListenAndServe(cfg.Server.Addr, mux); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		cleanup()
		os.Exit(1)
	}
}
