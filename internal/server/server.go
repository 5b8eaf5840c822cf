// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novatechflow/statescan/pkg/archive"
	"github.com/novatechflow/statescan/pkg/scan"
)

// SnapshotFunc returns the live view of the running scan.
type SnapshotFunc func() scan.Progress

// HealthFunc returns the source health view. Only archived sources have one.
type HealthFunc func() archive.HealthSnapshot

// Options carries the ops-server dependencies.
type Options struct {
	Snapshot SnapshotFunc
	Health   HealthFunc
	Logger   *slog.Logger
}

// Start launches the ops HTTP server and returns immediately. The server
// drains when ctx is canceled. Listen failures are logged, not returned;
// a scan without its ops surface still produces a report.
func Start(ctx context.Context, addr string, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{Addr: addr, Handler: NewMux(opts)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info("ops server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()
}

// NewMux constructs the ops mux: prometheus metrics, health, and the live
// scan snapshot.
func NewMux(opts Options) http.Handler {
	mux := http.NewServeMux()
	h := &handlers{snapshot: opts.Snapshot, health: opts.Health}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/statusz", h.handleStatus)
	return mux
}

type handlers struct {
	snapshot SnapshotFunc
	health   HealthFunc
}

type statusResponse struct {
	Scan   scan.Progress           `json:"scan"`
	Source *archive.HealthSnapshot `json:"source,omitempty"`
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	running := false
	if h.snapshot != nil {
		running = h.snapshot().Running
	}
	if h.health != nil {
		fmt.Fprintf(w, "ok running=%t source=%s\n", running, h.health().State)
		return
	}
	fmt.Fprintf(w, "ok running=%t\n", running)
}

func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.snapshot == nil {
		http.Error(w, "no scan attached", http.StatusServiceUnavailable)
		return
	}
	resp := statusResponse{Scan: h.snapshot()}
	if h.health != nil {
		snap := h.health()
		resp.Source = &snap
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}
