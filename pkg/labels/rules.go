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

package labels

import (
	"regexp"
	"slices"
)

// Reason explains why a label value was rejected. The value is used verbatim
// as the "reason" label on invalid_label_format_total.
type Reason string

const (
	// ReasonNone is returned alongside a valid value.
	ReasonNone Reason = ""

	// ReasonEmptyValue is returned for an empty value on any key.
	// The empty check runs before every key-specific rule.
	ReasonEmptyValue Reason = "empty_value"

	// ReasonInvalidCostCenter is returned when cost.costCenter is not CC-XXXXX.
	ReasonInvalidCostCenter Reason = "invalid_cc_format"

	// ReasonInvalidEnvironment is returned when cost.environment is outside
	// the closed environment set.
	ReasonInvalidEnvironment Reason = "invalid_environment"

	// ReasonEmptyBusinessUnit is the business unit specific form of an empty value.
	// Not reachable through ValidateValue: the generic empty check fires first.
	ReasonEmptyBusinessUnit Reason = "empty_business_unit"
)

// costCenterPattern matches "CC-" followed by exactly five ASCII digits.
var costCenterPattern = regexp.MustCompile(`^CC-[0-9]{5}$`)

// rule validates a non-empty value for one key.
type rule func(value string) (bool, Reason)

// rules holds the key-specific checks. Keys without an entry only need to be
// non-empty.
var rules = map[string]rule{
	KeyCostCenter: func(value string) (bool, Reason) {
		if !costCenterPattern.MatchString(value) {
			return false, ReasonInvalidCostCenter
		}
		return true, ReasonNone
	},
	KeyEnvironment: func(value string) (bool, Reason) {
		if !slices.Contains(Environments, value) {
			return false, ReasonInvalidEnvironment
		}
		return true, ReasonNone
	},
	KeyBusinessUnit: func(value string) (bool, Reason) {
		if len(value) == 0 {
			return false, ReasonEmptyBusinessUnit
		}
		return true, ReasonNone
	},
}

// ValidateValue checks a single label value against the rule for its key.
//
// An empty value is always invalid (ReasonEmptyValue), regardless of key.
// Otherwise the key-specific rule decides; keys without a rule accept any
// non-empty value. The function is pure and never fails.
//
// Example:
//
//	ok, reason := labels.ValidateValue(labels.KeyCostCenter, "CC-123")
//	// ok == false, reason == labels.ReasonInvalidCostCenter
func ValidateValue(key, value string) (bool, Reason) {
	if value == "" {
		return false, ReasonEmptyValue
	}

	if check, ok := rules[key]; ok {
		return check(value)
	}
	return true, ReasonNone
}
