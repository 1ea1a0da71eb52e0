// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/specialistvlad/lakegrid/internal/ctxlog"
)

func (a *App) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/runs", a.runsHandler)
	return mux
}

// healthHandler reports OK while the process is up.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(a.ctx).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// runsHandler lists recent runs on GET and requests a manual run on POST.
// Manual runs are only picked up in serve mode.
func (a *App) runsHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(a.ctx)
	switch r.Method {
	case http.MethodGet:
		runs, err := a.runs.ListRuns(r.Context(), a.model.Pipeline.Name, 20)
		if err != nil {
			logger.Error("Failed to list runs.", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(runs)
	case http.MethodPost:
		if !a.config.Serve {
			http.Error(w, "manual runs require serve mode", http.StatusConflict)
			return
		}
		if !a.manual.Fire() {
			http.Error(w, "a manual run is already pending", http.StatusTooManyRequests)
			return
		}
		logger.Info("Manual run requested.", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusAccepted)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
