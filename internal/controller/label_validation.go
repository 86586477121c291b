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
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/nextdoor/costwatch/pkg/fleet"
	"github.com/nextdoor/costwatch/pkg/kube"
)

// +kubebuilder:rbac:groups=core,resources=pods,verbs=list
// +kubebuilder:rbac:groups=apps,resources=deployments,verbs=list

// ResourceLister lists the resources whose cost labels are validated.
// kube.ClusterLister is the production implementation.
type ResourceLister interface {
	ListPods(ctx context.Context) iter.Seq2[kube.Resource, error]
	ListDeployments(ctx context.Context) iter.Seq2[kube.Resource, error]
}

// ValidationMetrics receives validation results.
// metrics.ValidationRecorder is the production implementation.
type ValidationMetrics interface {
	RecordValidation(tally fleet.Tally)
	RecordRunCompleted()
	Push(ctx context.Context) error
}

// PassResult is the outcome of validating one resource kind.
type PassResult struct {
	Kind fleet.ResourceKind

	// Tally is the (possibly partial) tally of the pass.
	Tally fleet.Tally

	// Err is the listing error that ended the pass early, if any.
	Err error

	// Recorded is true when the tally was handed to the metrics recorder.
	Recorded bool
}

// ValidationRun summarizes one run of the validation job.
type ValidationRun struct {
	Passes   []PassResult
	PushErr  error
	Duration time.Duration
}

// ProducedData reports whether at least one pass recorded a tally. The job
// binary exits non-zero when it did not.
func (r ValidationRun) ProducedData() bool {
	for _, p := range r.Passes {
		if p.Recorded {
			return true
		}
	}
	return false
}

// LabelValidationJob validates cost labels across the cluster and pushes the
// results. It runs once per invocation; scheduling is left to the CronJob
// that launches the binary.
//
// Pods get full validation (presence and value format). Deployments are
// checked for label presence on their pod template only.
type LabelValidationJob struct {
	// Lister provides the pods and deployments to validate.
	Lister ResourceLister

	// Aggregator builds the per-kind tallies. Defaults to an Aggregator
	// using the standard required keys.
	Aggregator *fleet.Aggregator

	// Metrics records tallies and pushes them at the end of the run.
	Metrics ValidationMetrics

	// Log
	Log logr.Logger

	// ListTimeout bounds the listing of one resource kind. Zero means no
	// per-pass deadline beyond the parent context.
	ListTimeout time.Duration
}

// Run validates pods, then deployments, then records the run timestamp and
// pushes the metrics.
//
// A listing failure ends only the affected pass: its partial tally is still
// recorded when at least one resource was scanned, and the other pass runs
// regardless. The run timestamp is always set, so a stale timestamp means
// the job did not run at all. The returned error combines every pass and
// push failure.
func (j *LabelValidationJob) Run(ctx context.Context) (ValidationRun, error) {
	log := j.Log.WithValues("job", "cost-label-validation")
	log.Info("starting cost label validation")
	startTime := time.Now()

	if j.Aggregator == nil {
		j.Aggregator = &fleet.Aggregator{Log: j.Log}
	}

	var run ValidationRun
	var errs error

	passes := []struct {
		kind      fleet.ResourceKind
		list      func(context.Context) iter.Seq2[kube.Resource, error]
		aggregate func(iter.Seq2[kube.Resource, error]) (fleet.Tally, error)
	}{
		{fleet.ResourceKindPod, j.Lister.ListPods, j.Aggregator.AggregatePods},
		{fleet.ResourceKindDeployment, j.Lister.ListDeployments, j.Aggregator.AggregateDeployments},
	}

	for _, p := range passes {
		result := j.runPass(ctx, log, p.kind, p.list, p.aggregate)
		run.Passes = append(run.Passes, result)
		errs = multierr.Append(errs, result.Err)
	}

	j.Metrics.RecordRunCompleted()

	if err := j.Metrics.Push(ctx); err != nil {
		log.Error(err, "failed to push validation metrics")
		run.PushErr = err
		errs = multierr.Append(errs, err)
	} else {
		log.Info("pushed validation metrics")
	}

	run.Duration = time.Since(startTime)
	log.Info("validation completed",
		"duration_seconds", run.Duration.Seconds(),
		"produced_data", run.ProducedData(),
		"error_count", len(multierr.Errors(errs)))

	return run, errs
}

func (j *LabelValidationJob) runPass(
	ctx context.Context,
	log logr.Logger,
	kind fleet.ResourceKind,
	list func(context.Context) iter.Seq2[kube.Resource, error],
	aggregate func(iter.Seq2[kube.Resource, error]) (fleet.Tally, error),
) PassResult {
	log = log.WithValues("resource_type", kind)
	log.Info("validating resources")

	passCtx := ctx
	if j.ListTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, j.ListTimeout)
		defer cancel()
	}

	tally, err := aggregate(list(passCtx))
	result := PassResult{Kind: kind, Tally: tally}
	if err != nil {
		result.Err = fmt.Errorf("%s validation: %w", kind, err)
		log.Error(err, "resource validation ended early", "scanned", tally.Total)
		if tally.Total == 0 {
			return result
		}
	}

	j.Metrics.RecordValidation(tally)
	result.Recorded = true
	return result
}
