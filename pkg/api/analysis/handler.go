package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"equiintel/pkg/core/extract"
	"equiintel/pkg/core/pipeline"
	"equiintel/pkg/core/source"
	"equiintel/pkg/core/store"
)

// Analyzer is the part of pipeline.Runner the handler needs.
type Analyzer interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
	ClearCache(ctx context.Context, fingerprint string) error
}

// Handler serves the analysis endpoints.
type Handler struct {
	Runner        Analyzer
	MaxUploadMB   int64
	AllowedOrigin string
}

// NewHandler creates a handler with a 32MB upload limit.
func NewHandler(runner Analyzer) *Handler {
	return &Handler{Runner: runner, MaxUploadMB: 32, AllowedOrigin: "*"}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/analyze", h.HandleAnalyze)
	mux.HandleFunc("/api/labels", h.HandleLabels)
	mux.HandleFunc("/api/cache/clear", h.HandleClearCache)
}

func (h *Handler) cors(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", h.AllowedOrigin)
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleAnalyze runs one analysis from a multipart upload. Fields:
// statement (file, required), prices (file), table (file), exchange,
// overrides (JSON object label -> value).
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	h.cors(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(h.MaxUploadMB << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("Upload exceeds %d MB", h.MaxUploadMB), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("Invalid multipart form: %v", err), http.StatusBadRequest)
		return
	}

	statement, statementName, err := readPart(r, "statement")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if statement == nil {
		http.Error(w, "Missing statement file", http.StatusBadRequest)
		return
	}
	prices, _, err := readPart(r, "prices")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	table, tableName, err := readPart(r, "table")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := pipeline.Request{
		Statement: source.Document{Name: statementName, Data: statement},
		Prices:    prices,
		Table:     table,
		TableName: tableName,
		Exchange:  strings.TrimSpace(r.FormValue("exchange")),
	}
	if raw := strings.TrimSpace(r.FormValue("overrides")); raw != "" {
		overrides, err := parseOverrides(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Overrides = overrides
	}

	report, err := h.Runner.Run(r.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		var unreadable *source.UnreadableDocumentError
		if errors.As(err, &unreadable) {
			status = http.StatusUnprocessableEntity
		}
		fmt.Printf("[ANALYZE] %s failed: %v\n", statementName, err)
		http.Error(w, fmt.Sprintf("Analysis failed: %v", err), status)
		return
	}

	fmt.Printf("[ANALYZE] %s -> %s (%d warnings)\n", statementName, report.Verdict, len(report.Warnings))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// HandleLabels lists the line items the extractor looks for.
func (h *Handler) HandleLabels(w http.ResponseWriter, r *http.Request) {
	h.cors(w, "GET, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"labels": extract.Required,
	})
}

// HandleClearCache drops cached document text. An optional "fingerprint"
// query parameter limits it to one document.
func (h *Handler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	h.cors(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fp := r.URL.Query().Get("fingerprint")
	if fp != "" && !store.ValidFingerprint(fp) {
		http.Error(w, "fingerprint must be a 64-character sha256 hex digest", http.StatusBadRequest)
		return
	}
	if err := h.Runner.ClearCache(r.Context(), fp); err != nil {
		if errors.Is(err, store.ErrInvalidFingerprint) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to clear cache: %v", err), http.StatusInternalServerError)
		return
	}

	msg := "Cache cleared"
	if fp != "" {
		msg = fmt.Sprintf("Cache cleared for %s", fp)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": msg,
	})
}

// readPart returns the content and filename of an uploaded file, or nil when
// the field is absent.
func readPart(r *http.Request, field string) ([]byte, string, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("invalid %s upload: %w", field, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", field, err)
	}
	return data, hdr.Filename, nil
}

func parseOverrides(raw string) (extract.MapOverrides, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("overrides must be a JSON object of label to value: %w", err)
	}
	out := extract.MapOverrides{}
	for name, value := range m {
		label, ok := extract.ParseLabel(name)
		if !ok {
			return nil, fmt.Errorf("unknown label in overrides: %q", name)
		}
		out[label] = value
	}
	return out, nil
}
