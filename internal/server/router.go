package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/receipt-ingest/internal/export"
	"github.com/joseph-ayodele/receipt-ingest/internal/pipeline"
)

// Router wraps the mux router with the pipeline and export services.
type Router struct {
	*mux.Router
	pipeline       *pipeline.Service
	exporter       *export.Service
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewRouter creates the HTTP router with all routes.
func NewRouter(p *pipeline.Service, e *export.Service, maxUploadBytes int64, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	r := &Router{
		Router:         mux.NewRouter(),
		pipeline:       p,
		exporter:       e,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}

	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	r.HandleFunc("/upload", r.upload).Methods("POST")
	r.HandleFunc("/validate", r.validate).Methods("POST")
	r.HandleFunc("/process", r.process).Methods("POST")

	r.HandleFunc("/receipts", r.listReceipts).Methods("GET")
	r.HandleFunc("/receipts/export", r.exportReceipts).Methods("GET")
	r.HandleFunc("/receipts/{id}", r.getReceipt).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
