// Copyright 2025 Costwatch Contributors
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

package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/nextdoor/costwatch/internal/cache"
)

// DebugHandler provides HTTP endpoints for inspecting recently collected sync
// records. These endpoints are useful for checking what the exporter parsed
// without querying Prometheus.
//
// Available endpoints:
//   - GET /debug/sync/                 - Index of available endpoints
//   - GET /debug/sync/recent           - List recent sync records, newest first
//   - GET /debug/sync/recent?limit=<n> - Limit the number of records returned
//   - GET /debug/sync/stats            - Show history statistics
type DebugHandler struct {
	History *cache.SyncHistory

	// StaleAfter is how long the history may go without a new record before
	// stats reports it as stale. Defaults to DefaultStaleAfter.
	StaleAfter time.Duration
}

// DefaultStaleAfter suits a budget sync that runs once a day.
const DefaultStaleAfter = 25 * time.Hour

// NewDebugHandler creates a new DebugHandler serving the provided history.
func NewDebugHandler(history *cache.SyncHistory, staleAfter time.Duration) *DebugHandler {
	return &DebugHandler{History: history, StaleAfter: staleAfter}
}

// ServeHTTP implements http.Handler interface.
func (h *DebugHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/debug/sync"), "/")

	switch path {
	case "recent":
		h.handleRecent(w, r)
	case "stats":
		h.handleStats(w, r)
	default:
		h.handleIndex(w, r)
	}
}

// handleIndex shows available endpoints.
func (h *DebugHandler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	response := map[string]interface{}{
		"endpoints": []string{
			"/debug/sync/recent           - List recent sync records",
			"/debug/sync/recent?limit=<n> - Limit the number of records",
			"/debug/sync/stats            - Show history statistics",
		},
	}
	_ = json.NewEncoder(w).Encode(response) // Best-effort encoding for debug endpoint
}

// handleRecent returns held sync records, newest first.
func (h *DebugHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		http.Error(w, "Sync history not available", http.StatusServiceUnavailable)
		return
	}

	limit := -1
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "Invalid parameter: limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	recent := h.History.Recent()
	records := make([]interface{}, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if limit >= 0 && len(records) == limit {
			break
		}
		rec := recent[i]
		records = append(records, map[string]interface{}{
			"recorded_at":       rec.RecordedAt,
			"status":            rec.Record.Status,
			"duration_seconds":  rec.Record.DurationSeconds,
			"services_synced":   rec.Record.ServicesSynced,
			"total_services":    rec.Record.TotalServices(),
			"budgets_created":   rec.Record.BudgetsCreated,
			"budgets_failed":    rec.Record.BudgetsFailed,
			"alerts_configured": rec.Record.AlertsConfigured,
			"alerts_failed":     rec.Record.AlertsFailed,
			"warnings":          rec.Record.Warnings,
		})
	}

	response := map[string]interface{}{
		"total_count": len(records),
		"last_update": h.History.GetLastUpdate(),
		"age_seconds": h.History.GetAge().Seconds(),
		"records":     records,
	}
	_ = json.NewEncoder(w).Encode(response) // Best-effort encoding for debug endpoint
}

// handleStats returns history statistics.
func (h *DebugHandler) handleStats(w http.ResponseWriter, _ *http.Request) {
	if h.History == nil {
		http.Error(w, "Sync history not available", http.StatusServiceUnavailable)
		return
	}

	stats := h.History.GetStats()
	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[string(status)] = n
	}

	response := map[string]interface{}{
		"held_records":        stats.Count,
		"total_records":       stats.Total,
		"by_status":           byStatus,
		"last_update":         h.History.GetLastUpdate(),
		"age_seconds":         h.History.GetAge().Seconds(),
		"stale":               h.History.IsStale(h.staleAfter()),
		"stale_after_seconds": h.staleAfter().Seconds(),
	}
	if latest, ok := h.History.Latest(); ok {
		response["latest"] = map[string]interface{}{
			"recorded_at":      latest.RecordedAt,
			"status":           latest.Record.Status,
			"duration_seconds": latest.Record.DurationSeconds,
		}
	}
	_ = json.NewEncoder(w).Encode(response) // Best-effort encoding for debug endpoint
}

func (h *DebugHandler) staleAfter() time.Duration {
	if h.StaleAfter <= 0 {
		return DefaultStaleAfter
	}
	return h.StaleAfter
}

// RegisterDebugEndpoints registers debug endpoints on the provided mux.
//
// Example usage:
//
//	mux := http.NewServeMux()
//	controller.RegisterDebugEndpoints(mux, history, 0, log)
func RegisterDebugEndpoints(mux *http.ServeMux, history *cache.SyncHistory, staleAfter time.Duration, log logr.Logger) {
	handler := NewDebugHandler(history, staleAfter)

	mux.HandleFunc("/debug/sync/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})

	log.Info("registered debug endpoints",
		"index", "/debug/sync/",
		"recent", "/debug/sync/recent",
		"stats", "/debug/sync/stats")
}
