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
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextdoor/costwatch/internal/cache"
	"github.com/nextdoor/costwatch/pkg/synclog"
)

func newDebugServer(t *testing.T, history *cache.SyncHistory) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	RegisterDebugEndpoints(mux, history, time.Hour, logr.Discard())
	return mux
}

func getJSON(t *testing.T, mux *http.ServeMux, path string) (int, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusOK {
		return rec.Code, nil
	}
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestDebugHandler_Index(t *testing.T) {
	mux := newDebugServer(t, cache.NewSyncHistory(5))

	code, body := getJSON(t, mux, "/debug/sync/")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["endpoints"], 3)
}

func TestDebugHandler_Recent(t *testing.T) {
	history := cache.NewSyncHistory(5)
	RecordExamples(history, noAPICalls{})
	mux := newDebugServer(t, history)

	code, body := getJSON(t, mux, "/debug/sync/recent")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["total_count"])

	records := body["records"].([]interface{})
	require.Len(t, records, 2)
	newest := records[0].(map[string]interface{})
	assert.Equal(t, "failure", newest["status"], "newest record first")
	assert.Equal(t, float64(3), newest["budgets_failed"])

	code, body = getJSON(t, mux, "/debug/sync/recent?limit=1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total_count"])
}

func TestDebugHandler_RecentInvalidLimit(t *testing.T) {
	mux := newDebugServer(t, cache.NewSyncHistory(5))

	code, _ := getJSON(t, mux, "/debug/sync/recent?limit=-3")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = getJSON(t, mux, "/debug/sync/recent?limit=abc")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDebugHandler_Stats(t *testing.T) {
	history := cache.NewSyncHistory(5)
	history.RecordSync(synclog.Record{Status: synclog.StatusSuccess})
	history.RecordSync(synclog.Record{Status: synclog.StatusSuccess})
	history.RecordSync(synclog.Record{Status: synclog.StatusTimeout})
	mux := newDebugServer(t, history)

	code, body := getJSON(t, mux, "/debug/sync/stats")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["held_records"])
	assert.Equal(t, map[string]interface{}{"success": float64(2), "timeout": float64(1)}, body["by_status"])
	assert.Equal(t, false, body["stale"], "just recorded")
	assert.Equal(t, float64(3600), body["stale_after_seconds"])

	latest, ok := body["latest"].(map[string]interface{})
	require.True(t, ok, "latest record reported")
	assert.Equal(t, "timeout", latest["status"])
}

func TestDebugHandler_StatsEmptyHistoryIsStale(t *testing.T) {
	mux := newDebugServer(t, cache.NewSyncHistory(5))

	code, body := getJSON(t, mux, "/debug/sync/stats")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["stale"])
	assert.NotContains(t, body, "latest")
}

func TestDebugHandler_DefaultStaleAfter(t *testing.T) {
	h := NewDebugHandler(cache.NewSyncHistory(5), 0)
	assert.Equal(t, DefaultStaleAfter, h.staleAfter())
}

func TestDebugHandler_NoHistory(t *testing.T) {
	mux := newDebugServer(t, nil)

	code, _ := getJSON(t, mux, "/debug/sync/recent")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = getJSON(t, mux, "/debug/sync/stats")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestDebugHandler_MethodNotAllowed(t *testing.T) {
	mux := newDebugServer(t, cache.NewSyncHistory(5))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/sync/recent", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type noAPICalls struct{}

func (noAPICalls) RecordAPICall(synclog.APICall) {}
