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
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nextdoor/costwatch/pkg/fleet"
	"github.com/nextdoor/costwatch/pkg/labels"
)

// ValidationRecorder records cost-label validation tallies. It implements
// labels.InvalidLabelRecorder so the validator can count malformed labels as
// they are found.
type ValidationRecorder struct {
	Backend Backend
	Log     logr.Logger

	// Now returns the current time for cost_label_validation_timestamp.
	// Defaults to time.Now.
	Now func() time.Time
}

var _ labels.InvalidLabelRecorder = (*ValidationRecorder)(nil)

// NewValidationRecorder creates a ValidationRecorder writing to backend.
func NewValidationRecorder(backend Backend, log logr.Logger) *ValidationRecorder {
	return &ValidationRecorder{Backend: backend, Log: log}
}

// RecordInvalidLabel increments invalid_label_format_total{label_type, reason}.
func (r *ValidationRecorder) RecordInvalidLabel(key string, reason labels.Reason) {
	r.check(r.Backend.IncrementCounter(MetricInvalidLabelFormatTotal, prometheus.Labels{
		LabelLabelType: key,
		LabelReason:    string(reason),
	}, 1))
}

// RecordValidation sets the per-kind gauges from a tally. Every required key
// gets a missing-count sample, zero included, so dashboards see explicit
// zeros instead of absent series.
func (r *ValidationRecorder) RecordValidation(tally fleet.Tally) {
	var missing, valid string
	switch tally.Kind {
	case fleet.ResourceKindPod:
		missing, valid = MetricPodsMissingCostLabel, MetricPodsWithValidLabels
	case fleet.ResourceKindDeployment:
		missing, valid = MetricDeploymentsMissingCostLabel, MetricDeploymentsWithValidLabels
	default:
		r.Log.Info("ignoring tally for unsupported resource kind", "warning", "unsupported kind",
			"resource_type", tally.Kind)
		return
	}

	for _, key := range tally.RequiredKeys {
		r.check(r.Backend.SetGauge(missing, prometheus.Labels{LabelLabelType: key},
			float64(tally.MissingCount[key])))
	}
	r.check(r.Backend.SetGauge(valid, nil, float64(tally.ValidCount)))

	for env, count := range tally.ByEnvironment {
		r.check(r.Backend.SetGauge(MetricPodsByEnvironment, prometheus.Labels{LabelEnvironment: env},
			float64(count)))
	}

	ratio := tally.CompletenessRatio()
	r.check(r.Backend.SetGauge(MetricCostLabelCompletenessRatio,
		prometheus.Labels{LabelResourceType: string(tally.Kind)}, ratio))

	r.Log.Info("recorded cost label validation",
		"resource_type", tally.Kind,
		"total", tally.Total,
		"valid", tally.ValidCount,
		"completeness_percent", ratio*100)
}

// RecordRunCompleted sets cost_label_validation_timestamp to now.
func (r *ValidationRecorder) RecordRunCompleted() {
	r.check(r.Backend.SetGauge(MetricCostLabelValidationTimestamp, nil, float64(r.now().Unix())))
}

// Push delivers the recorded metrics through the backend.
func (r *ValidationRecorder) Push(ctx context.Context) error {
	return r.Backend.Push(ctx)
}

func (r *ValidationRecorder) check(err error) {
	if err != nil {
		r.Log.Error(err, "failed to update metric")
	}
}

func (r *ValidationRecorder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
