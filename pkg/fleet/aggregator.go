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

// Package fleet aggregates per-resource label validation results into
// per-kind tallies: missing counts per label, valid resource count, pods per
// environment, and the completeness ratio.
package fleet

import (
	"errors"
	"fmt"
	"iter"

	"github.com/go-logr/logr"

	"github.com/nextdoor/costwatch/pkg/kube"
	"github.com/nextdoor/costwatch/pkg/labels"
)

// ErrListFailed wraps any error yielded by the resource sequence.
var ErrListFailed = errors.New("resource listing failed")

// Aggregator runs the label validator over a fleet of resources.
type Aggregator struct {
	// Validator checks each resource. Defaults to labels.NewValidator(nil).
	Validator *labels.Validator

	// Log receives listing failures and per-kind debug output.
	Log logr.Logger
}

// AggregatePods validates pods for presence and value format, and counts
// pods per environment.
//
// The environment bucket comes from the cost.environment label, or
// labels.UnknownEnvironment when the label is absent or empty. Buckets are
// counted for every pod, valid or not, so the raw fleet shape stays visible
// even when labels are broken.
//
// If the sequence yields an error, the partial tally accumulated so far is
// returned together with an error wrapping ErrListFailed.
func (a *Aggregator) AggregatePods(resources iter.Seq2[kube.Resource, error]) (Tally, error) {
	v := a.validator()
	return a.aggregate(ResourceKindPod, resources, v.Validate, func(t *Tally, r kube.Resource) {
		env := r.Labels[labels.KeyEnvironment]
		if env == "" {
			env = labels.UnknownEnvironment
		}
		t.ByEnvironment[env]++
	})
}

// AggregateDeployments validates deployment pod templates for label presence
// only. Value format is not checked for deployments.
func (a *Aggregator) AggregateDeployments(resources iter.Seq2[kube.Resource, error]) (Tally, error) {
	v := a.validator()
	return a.aggregate(ResourceKindDeployment, resources, v.CheckPresence, nil)
}

func (a *Aggregator) aggregate(
	kind ResourceKind,
	resources iter.Seq2[kube.Resource, error],
	check func(map[string]string) labels.Result,
	observe func(*Tally, kube.Resource),
) (Tally, error) {
	log := a.Log.WithValues("resource_type", kind)
	tally := NewTally(kind, a.validator().Keys())

	for resource, err := range resources {
		if err != nil {
			log.Error(err, "failed to list resources, returning partial tally",
				"scanned", tally.Total)
			return tally, fmt.Errorf("%w: %s: %w", ErrListFailed, kind, err)
		}

		tally.Total++
		if observe != nil {
			observe(&tally, resource)
		}

		result := check(resource.Labels)
		if result.AllValid() {
			tally.ValidCount++
			continue
		}

		for _, key := range result.Missing {
			tally.MissingCount[key]++
		}

		log.V(1).Info("resource has incomplete cost labels",
			"namespace", resource.Namespace,
			"name", resource.Name,
			"missing", result.Missing,
			"invalid", len(result.Invalid))
	}

	return tally, nil
}

func (a *Aggregator) validator() *labels.Validator {
	if a.Validator == nil {
		a.Validator = labels.NewValidator(nil)
	}
	return a.Validator
}
