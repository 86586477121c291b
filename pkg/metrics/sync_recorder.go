/*
Copyright 2025 Costwatch Contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nextdoor/costwatch/pkg/synclog"
)

// SyncRecorder records budget-sync operations and Apptio API calls.
// It implements synclog.Recorder.
type SyncRecorder struct {
	Backend Backend
	Log     logr.Logger

	// Now returns the current time for budget_sync_last_timestamp.
	// Defaults to time.Now.
	Now func() time.Time
}

// NewSyncRecorder creates a SyncRecorder writing to backend.
func NewSyncRecorder(backend Backend, log logr.Logger) *SyncRecorder {
	return &SyncRecorder{Backend: backend, Log: log}
}

// RecordSync records one sync operation:
//   - duration is observed and budget_sync_total incremented under its status
//   - services per environment set both services gauges
//   - budget and alert outcomes are added to their counters
//   - budget_sync_last_timestamp is set for successful syncs only
//
// Backend errors, including the one raised by a negative failure count, are
// logged and do not stop the remaining updates.
func (r *SyncRecorder) RecordSync(rec synclog.Record) {
	status := prometheus.Labels{LabelStatus: string(rec.Status)}

	r.check(r.Backend.ObserveHistogram(MetricBudgetSyncDurationSeconds, status, rec.DurationSeconds))
	r.check(r.Backend.IncrementCounter(MetricBudgetSyncTotal, status, 1))

	for env, count := range rec.ServicesSynced {
		env := prometheus.Labels{LabelEnvironment: env}
		r.check(r.Backend.SetGauge(MetricBudgetSyncServicesCount, env, float64(count)))
		r.check(r.Backend.SetGauge(MetricBudgetSyncCompletedServices, env, float64(count)))
	}

	r.addOutcomes(MetricBudgetCreationTotal, rec.BudgetsCreated, rec.BudgetsFailed)
	r.addOutcomes(MetricAlertConfigTotal, rec.AlertsConfigured, rec.AlertsFailed)

	if rec.Status == synclog.StatusSuccess {
		r.check(r.Backend.SetGauge(MetricBudgetSyncLastTimestamp, nil, float64(r.now().Unix())))
	}

	r.Log.Info("recorded sync operation",
		"status", rec.Status,
		"duration_seconds", rec.DurationSeconds,
		"services", rec.TotalServices(),
		"budgets_created", rec.BudgetsCreated,
		"budgets_total", rec.BudgetsCreated+rec.BudgetsFailed,
		"alerts_configured", rec.AlertsConfigured,
		"alerts_total", rec.AlertsConfigured+rec.AlertsFailed)
}

// RecordAPICall records the latency and count of one Apptio API request.
func (r *SyncRecorder) RecordAPICall(call synclog.APICall) {
	labels := prometheus.Labels{
		LabelEndpoint: call.Endpoint,
		LabelMethod:   call.Method,
		LabelStatus:   StatusLabel(call.StatusCode),
	}
	r.check(r.Backend.ObserveHistogram(MetricApptioAPIRequestDurationSeconds, labels, call.DurationSeconds))
	r.check(r.Backend.IncrementCounter(MetricApptioAPIRequestTotal, labels, 1))
}

func (r *SyncRecorder) addOutcomes(name string, succeeded, failed int) {
	r.check(r.Backend.IncrementCounter(name, prometheus.Labels{LabelStatus: StatusSuccess}, float64(succeeded)))
	r.check(r.Backend.IncrementCounter(name, prometheus.Labels{LabelStatus: StatusFailure}, float64(failed)))
}

func (r *SyncRecorder) check(err error) {
	if err != nil {
		r.Log.Error(err, "failed to update metric")
	}
}

func (r *SyncRecorder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
