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

// Metric label name constants.
const (
	// Budget sync labels
	LabelStatus      = "status"
	LabelEnvironment = "environment"

	// Apptio API labels
	LabelEndpoint = "endpoint"
	LabelMethod   = "method"

	// Label validation labels
	LabelLabelType    = "label_type"
	LabelReason       = "reason"
	LabelResourceType = "resource_type"
)

// Status label values for budget_creation_total, alert_config_total and the
// Apptio API metrics.
const (
	StatusSuccess     = "success"
	StatusFailure     = "failure"
	StatusRateLimited = "rate_limited"
	StatusClientError = "client_error"
	StatusServerError = "server_error"
	StatusUnknown     = "unknown"
)

// StatusLabel maps an HTTP status code to the status label of the Apptio API
// metrics. 429 is checked before the generic 4xx range.
func StatusLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return StatusSuccess
	case code == 429:
		return StatusRateLimited
	case code >= 400 && code < 500:
		return StatusClientError
	case code >= 500 && code < 600:
		return StatusServerError
	default:
		return StatusUnknown
	}
}
