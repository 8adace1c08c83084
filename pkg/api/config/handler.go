// Package config serves the OCR engine selection used by analysis runs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"equiintel/pkg/core/ocr"
)

// Response describes the engine the next analysis run will use.
type Response struct {
	ActiveEngine string   `json:"active_engine"`
	Available    []string `json:"available"`
	// Ready is false when OCR is off or the engine cannot run (binary
	// missing, no API key). Image pages then extract as empty text.
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

type SwitchRequest struct {
	Engine string `json:"engine"`
}

// Handler exposes the OCR engine selection.
type Handler struct {
	Engines *ocr.Registry
}

// NewHandler creates a new config handler
func NewHandler(engines *ocr.Registry) *Handler {
	return &Handler{
		Engines: engines,
	}
}

func (h *Handler) cors(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleConfig reports the current selection. GET only.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	h.cors(w, "GET, OPTIONS")
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeState(w, r)
}

// HandleSwitch selects another engine ("none" turns OCR off) and answers
// with the new state. POST only.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	h.cors(w, "POST, OPTIONS")
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	name := strings.ToLower(strings.TrimSpace(req.Engine))
	if name == "" {
		http.Error(w, "engine is required", http.StatusBadRequest)
		return
	}
	if err := h.Engines.SetActive(name); err != nil {
		http.Error(w, fmt.Sprintf("%v (choices: %s)", err, strings.Join(h.Engines.Choices(), ", ")), http.StatusBadRequest)
		return
	}

	fmt.Printf("[CONFIG] OCR engine switched to %s\n", name)
	h.writeState(w, r)
}

func (h *Handler) writeState(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		ActiveEngine: h.Engines.ActiveName(),
		Available:    h.Engines.Choices(),
	}
	engine, err := h.Engines.Active()
	if err == nil {
		err = engine.Available(r.Context())
	}
	switch {
	case err == nil:
		resp.Ready = true
	case errors.Is(err, ocr.ErrNoEngine):
		resp.Reason = "OCR is switched off"
	default:
		resp.Reason = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
