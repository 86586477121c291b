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

// InvalidLabel is a required label that is present but has a rejected value.
type InvalidLabel struct {
	Key    string
	Reason Reason
}

// Result is the outcome of validating one resource's labels.
type Result struct {
	// Missing lists required keys absent from the resource, in RequiredKeys order.
	Missing []string

	// Invalid lists required keys that are present with a rejected value.
	Invalid []InvalidLabel
}

// AllValid reports whether the resource carries every required label with an
// acceptable value. A resource with no labels at all is not valid: its keys
// are all missing.
func (r Result) AllValid() bool {
	return len(r.Missing) == 0 && len(r.Invalid) == 0
}

// InvalidLabelRecorder receives every invalid label detected by Validate.
// metrics.ValidationRecorder implements it by incrementing
// invalid_label_format_total{label_type, reason}.
type InvalidLabelRecorder interface {
	RecordInvalidLabel(key string, reason Reason)
}

// Validator applies the rule set to resource label maps.
type Validator struct {
	// RequiredKeys is the list of keys to check. Defaults to RequiredKeys.
	RequiredKeys []string

	// Recorder is notified of each invalid label as soon as it is found.
	// May be nil.
	Recorder InvalidLabelRecorder
}

// NewValidator creates a validator for the standard required keys.
func NewValidator(recorder InvalidLabelRecorder) *Validator {
	return &Validator{
		RequiredKeys: RequiredKeys,
		Recorder:     recorder,
	}
}

// Validate checks presence and value format of every required key.
//
// Invalid values are reported to the Recorder immediately, so the
// invalid_label_format_total counter reflects every malformed label seen
// even if the surrounding scan later fails. A nil map is treated as empty.
func (v *Validator) Validate(resourceLabels map[string]string) Result {
	var result Result
	for _, key := range v.Keys() {
		value, ok := resourceLabels[key]
		if !ok {
			result.Missing = append(result.Missing, key)
			continue
		}

		if valid, reason := ValidateValue(key, value); !valid {
			result.Invalid = append(result.Invalid, InvalidLabel{Key: key, Reason: reason})
			if v.Recorder != nil {
				v.Recorder.RecordInvalidLabel(key, reason)
			}
		}
	}
	return result
}

// CheckPresence checks that every required key is present, without looking
// at values. Deployment templates are validated this way; the Invalid list
// of the returned Result is always empty.
func (v *Validator) CheckPresence(resourceLabels map[string]string) Result {
	var result Result
	for _, key := range v.Keys() {
		if _, ok := resourceLabels[key]; !ok {
			result.Missing = append(result.Missing, key)
		}
	}
	return result
}

// Keys returns the keys checked by this validator.
func (v *Validator) Keys() []string {
	if len(v.RequiredKeys) == 0 {
		return RequiredKeys
	}
	return v.RequiredKeys
}
