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

package fleet

// ResourceKind identifies the kind of resource a Tally was built from.
// The value is used as the resource_type label on cost_label_completeness_ratio.
type ResourceKind string

const (
	ResourceKindPod        ResourceKind = "pod"
	ResourceKindDeployment ResourceKind = "deployment"
)

// Tally is the accumulated validation outcome for one resource kind in one run.
type Tally struct {
	Kind ResourceKind

	// RequiredKeys is the key order used to build MissingCount.
	RequiredKeys []string

	// MissingCount maps every required key to the number of invalid resources
	// missing it. Every required key is present, even at zero, so consumers
	// always see a stable label set.
	MissingCount map[string]int

	// ValidCount is the number of resources passing every check.
	ValidCount int

	// Total is the number of resources scanned.
	Total int

	// ByEnvironment counts pods per cost.environment value, independent of
	// validity. Nil for deployments.
	ByEnvironment map[string]int
}

// NewTally returns a zeroed tally with MissingCount entries for every key.
func NewTally(kind ResourceKind, requiredKeys []string) Tally {
	t := Tally{
		Kind:         kind,
		RequiredKeys: requiredKeys,
		MissingCount: make(map[string]int, len(requiredKeys)),
	}
	for _, key := range requiredKeys {
		t.MissingCount[key] = 0
	}
	if kind == ResourceKindPod {
		t.ByEnvironment = make(map[string]int)
	}
	return t
}

// CompletenessRatio is ValidCount/Total, or 1.0 when nothing was scanned.
func (t Tally) CompletenessRatio() float64 {
	if t.Total == 0 {
		return 1.0
	}
	return float64(t.ValidCount) / float64(t.Total)
}
