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

// This file exports metric name constants for dashboards and alert rules
// that need to query Costwatch metrics programmatically.
//
// For metric label names, see labels.go.
//
// Example usage:
//
//	import "github.com/nextdoor/costwatch/pkg/metrics"
//
//	query := fmt.Sprintf("%s{%s=%q}",
//	    metrics.MetricCostLabelCompletenessRatio,
//	    metrics.LabelResourceType, "pod")
//
// Budget Sync Metrics
//
// These metrics are derived from the budget-sync Cloud Function's completion
// log lines and describe each sync of team budgets into Apptio.

const (
	// MetricBudgetSyncDurationSeconds measures how long each sync took.
	// Buckets cover 1 second to 5 minutes.
	// Type: Histogram
	// Labels: status
	MetricBudgetSyncDurationSeconds = "budget_sync_duration_seconds"

	// MetricBudgetSyncTotal counts sync operations by outcome.
	// Type: Counter
	// Labels: status
	MetricBudgetSyncTotal = "budget_sync_total"

	// MetricBudgetSyncServicesCount is the number of services synced per
	// environment in the last recorded operation.
	// Type: Gauge
	// Labels: environment
	MetricBudgetSyncServicesCount = "budget_sync_services_count"

	// MetricBudgetSyncCompletedServices is the number of services with
	// successfully synced budgets per environment.
	// Type: Gauge
	// Labels: environment
	MetricBudgetSyncCompletedServices = "budget_sync_completed_services"

	// MetricBudgetSyncLastTimestamp is the Unix time of the last successful
	// sync. It is not touched by failed or timed out syncs, so
	// time() - budget_sync_last_timestamp is the age of the last good sync.
	// Type: Gauge
	// Labels: none
	MetricBudgetSyncLastTimestamp = "budget_sync_last_timestamp"

	// MetricBudgetCreationTotal counts budget creation attempts in Apptio.
	// Type: Counter
	// Labels: status (success, failure)
	MetricBudgetCreationTotal = "budget_creation_total"

	// MetricAlertConfigTotal counts alert configuration attempts.
	// Type: Counter
	// Labels: status (success, failure)
	MetricAlertConfigTotal = "alert_config_total"
)

// Apptio API Metrics

const (
	// MetricApptioAPIRequestDurationSeconds measures Apptio API latency.
	// Type: Histogram
	// Labels: endpoint, method, status
	MetricApptioAPIRequestDurationSeconds = "apptio_api_request_duration_seconds"

	// MetricApptioAPIRequestTotal counts Apptio API requests.
	// Type: Counter
	// Labels: endpoint, method, status
	MetricApptioAPIRequestTotal = "apptio_api_request_total"
)

// Cost Label Validation Metrics
//
// These metrics are pushed to the Pushgateway by each run of the
// cost-label-validator job. Gauges describe the fleet as of that run.

const (
	// MetricPodsMissingCostLabel is the number of pods lacking each required label.
	// Type: Gauge
	// Labels: label_type
	MetricPodsMissingCostLabel = "pods_missing_cost_label"

	// MetricDeploymentsMissingCostLabel is the number of deployment pod
	// templates lacking each required label.
	// Type: Gauge
	// Labels: label_type
	MetricDeploymentsMissingCostLabel = "deployments_missing_cost_label"

	// MetricPodsWithValidLabels is the number of pods carrying every required
	// label with an acceptable value.
	// Type: Gauge
	// Labels: none
	MetricPodsWithValidLabels = "pods_with_valid_labels"

	// MetricDeploymentsWithValidLabels is the number of deployments whose pod
	// template carries every required label.
	// Type: Gauge
	// Labels: none
	MetricDeploymentsWithValidLabels = "deployments_with_valid_labels"

	// MetricInvalidLabelFormatTotal counts labels present with a rejected value.
	// Type: Counter
	// Labels: label_type, reason
	MetricInvalidLabelFormatTotal = "invalid_label_format_total"

	// MetricCostLabelCompletenessRatio is valid resources over total resources,
	// 1.0 for an empty fleet.
	// Type: Gauge
	// Labels: resource_type
	MetricCostLabelCompletenessRatio = "cost_label_completeness_ratio"

	// MetricPodsByEnvironment is the number of pods per cost.environment value.
	// Pods without the label are counted under "unknown".
	// Type: Gauge
	// Labels: environment
	MetricPodsByEnvironment = "pods_by_environment"

	// MetricCostLabelValidationTimestamp is the Unix time the last validation
	// run finished, whether or not every pass succeeded.
	// Type: Gauge
	// Labels: none
	MetricCostLabelValidationTimestamp = "cost_label_validation_timestamp"
)
