// Package server exposes the dispatcher's HTTP surface: delta intake, the
// manual reconciliation trigger, and a health probe.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/orgraph/dispatch/internal/changeset"
	"github.com/orgraph/dispatch/internal/dispatch"
)

// Pipeline is the dispatch surface the server fronts.
type Pipeline interface {
	HandleChangesets(ctx context.Context, sets []changeset.Changeset) ([]dispatch.Result, error)
	Scan(ctx context.Context, includeDeletes bool) ([]dispatch.Result, error)
}

// HealthChecker probes the backing store.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server wires the HTTP handlers.
type Server struct {
	pipeline Pipeline
	health   HealthChecker
}

// New creates the HTTP surface.
func New(pipeline Pipeline, health HealthChecker) *Server {
	return &Server{pipeline: pipeline, health: health}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/delta", s.handleDelta)
	mux.HandleFunc("/reconcile", s.handleReconcile)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

type outcomeBody struct {
	Results    int                     `json:"results"`
	ByStatus   map[dispatch.Status]int `json:"byStatus"`
	Error      string                  `json:"error,omitempty"`
	DurationMS int64                   `json:"durationMs"`
}

func writeOutcome(w http.ResponseWriter, status int, results []dispatch.Result, started time.Time, runErr error) {
	body := outcomeBody{
		Results:    len(results),
		ByStatus:   dispatch.Summary(results),
		DurationMS: time.Since(started).Milliseconds(),
	}
	if runErr != nil {
		body.Error = runErr.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// handleDelta accepts an ordered array of changesets in the upstream wire
// format and runs them through the pipeline synchronously. The call blocks
// on the serializer gate; callers arriving while a pipeline runs queue in
// arrival order.
func (s *Server) handleDelta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	sets, err := changeset.Decode(payload)
	if err != nil {
		http.Error(w, fmt.Sprintf("bad changesets: %v", err), http.StatusBadRequest)
		return
	}

	started := time.Now()
	results, runErr := s.pipeline.HandleChangesets(r.Context(), sets)
	if runErr != nil {
		slog.Warn("Server: delta run failed", "error", runErr, "results", len(results))
		// Committed results are reported alongside the failure; nothing
		// was rolled back.
		writeOutcome(w, http.StatusInternalServerError, results, started, runErr)
		return
	}
	writeOutcome(w, http.StatusOK, results, started, nil)
}

// handleReconcile is the zero-argument external trigger: a full scan of
// both staging graphs.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	started := time.Now()
	results, runErr := s.pipeline.Scan(r.Context(), true)
	if runErr != nil {
		slog.Warn("Server: reconcile scan failed", "error", runErr)
		writeOutcome(w, http.StatusInternalServerError, results, started, runErr)
		return
	}
	writeOutcome(w, http.StatusOK, results, started, nil)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.health.Ping(ctx); err != nil {
		http.Error(w, fmt.Sprintf("store unreachable: %v", err), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
