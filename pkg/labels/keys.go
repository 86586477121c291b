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

// Package labels implements the cost-attribution label rules and the
// per-resource validator used by the cost-label validation job.
//
// Every workload in the cluster is expected to carry five cost labels that
// attribute its spend to a service, team, environment, cost center, and
// business unit. The rule set in this package decides whether a single label
// value is acceptable; the Validator applies the rule set to one resource's
// label map and reports which keys are missing and which are malformed.
package labels

// Required cost label keys.
const (
	KeyService      = "cost.service"
	KeyTeam         = "cost.team"
	KeyEnvironment  = "cost.environment"
	KeyCostCenter   = "cost.costCenter"
	KeyBusinessUnit = "cost.businessUnit"
)

// RequiredKeys is the fixed, ordered list of labels every resource must carry.
// The order does not affect tallying but keeps iteration (and therefore log
// output and test expectations) deterministic.
var RequiredKeys = []string{
	KeyService,
	KeyTeam,
	KeyEnvironment,
	KeyCostCenter,
	KeyBusinessUnit,
}

// Environments is the closed set of values accepted for cost.environment.
var Environments = []string{
	"int-stable",
	"pre-stable",
	"prod",
}

// UnknownEnvironment is the bucket used for pods without a cost.environment label.
const UnknownEnvironment = "unknown"
