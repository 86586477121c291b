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

var (
	// SyncDurationBuckets cover 1 second to 5 minutes.
	SyncDurationBuckets = []float64{1, 5, 10, 15, 30, 60, 120, 300}

	// APIDurationBuckets cover 500ms to 1 minute.
	APIDurationBuckets = []float64{0.5, 1, 2, 5, 10, 20, 30, 60}
)

// SyncDefinitions returns the metrics served by the budget-sync exporter.
func SyncDefinitions() []Definition {
	return []Definition{
		{
			Name:    MetricBudgetSyncDurationSeconds,
			Help:    "Time taken to sync budgets to Apptio",
			Kind:    KindHistogram,
			Labels:  []string{LabelStatus},
			Buckets: SyncDurationBuckets,
		},
		{
			Name:   MetricBudgetSyncTotal,
			Help:   "Total number of budget sync operations",
			Kind:   KindCounter,
			Labels: []string{LabelStatus},
		},
		{
			Name:   MetricBudgetSyncServicesCount,
			Help:   "Number of services synced in last operation",
			Kind:   KindGauge,
			Labels: []string{LabelEnvironment},
		},
		{
			Name:   MetricBudgetSyncCompletedServices,
			Help:   "Number of services with successfully synced budgets",
			Kind:   KindGauge,
			Labels: []string{LabelEnvironment},
		},
		{
			Name: MetricBudgetSyncLastTimestamp,
			Help: "Unix timestamp of last successful sync",
			Kind: KindGauge,
		},
		{
			Name:   MetricBudgetCreationTotal,
			Help:   "Total number of budget creation attempts in Apptio",
			Kind:   KindCounter,
			Labels: []string{LabelStatus},
		},
		{
			Name:   MetricAlertConfigTotal,
			Help:   "Total number of alert configuration attempts",
			Kind:   KindCounter,
			Labels: []string{LabelStatus},
		},
		{
			Name:    MetricApptioAPIRequestDurationSeconds,
			Help:    "Apptio API request duration",
			Kind:    KindHistogram,
			Labels:  []string{LabelEndpoint, LabelMethod, LabelStatus},
			Buckets: APIDurationBuckets,
		},
		{
			Name:   MetricApptioAPIRequestTotal,
			Help:   "Total Apptio API requests",
			Kind:   KindCounter,
			Labels: []string{LabelEndpoint, LabelMethod, LabelStatus},
		},
	}
}

// ValidationDefinitions returns the metrics pushed by the cost-label validator.
func ValidationDefinitions() []Definition {
	return []Definition{
		{
			Name:   MetricPodsMissingCostLabel,
			Help:   "Number of pods without required cost labels",
			Kind:   KindGauge,
			Labels: []string{LabelLabelType},
		},
		{
			Name:   MetricDeploymentsMissingCostLabel,
			Help:   "Number of deployments without required cost labels",
			Kind:   KindGauge,
			Labels: []string{LabelLabelType},
		},
		{
			Name: MetricPodsWithValidLabels,
			Help: "Number of pods with all required cost labels correctly formatted",
			Kind: KindGauge,
		},
		{
			Name: MetricDeploymentsWithValidLabels,
			Help: "Number of deployments with all required cost labels",
			Kind: KindGauge,
		},
		{
			Name:   MetricInvalidLabelFormatTotal,
			Help:   "Number of incorrectly formatted cost labels detected",
			Kind:   KindCounter,
			Labels: []string{LabelLabelType, LabelReason},
		},
		{
			Name:   MetricCostLabelCompletenessRatio,
			Help:   "Ratio of resources with complete and valid cost labels",
			Kind:   KindGauge,
			Labels: []string{LabelResourceType},
		},
		{
			Name:   MetricPodsByEnvironment,
			Help:   "Total number of pods by environment",
			Kind:   KindGauge,
			Labels: []string{LabelEnvironment},
		},
		{
			Name: MetricCostLabelValidationTimestamp,
			Help: "Unix timestamp of last validation run",
			Kind: KindGauge,
		},
	}
}
