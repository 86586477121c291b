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
	"github.com/nextdoor/costwatch/pkg/synclog"
)

// APICallRecorder receives Apptio API call observations.
// metrics.SyncRecorder is the production implementation.
type APICallRecorder interface {
	RecordAPICall(call synclog.APICall)
}

// ExampleSyncs are the sync operations recorded by RecordExamples: one
// successful run across three environments and one partially failed run.
var ExampleSyncs = []struct {
	Record   synclog.Record
	APICalls []synclog.APICall
}{
	{
		Record: synclog.Record{
			Status:          synclog.StatusSuccess,
			DurationSeconds: 15.2,
			ServicesSynced: map[string]int{
				"int-stable": 5,
				"pre-stable": 10,
				"prod":       15,
			},
			BudgetsCreated:   30,
			AlertsConfigured: 30,
		},
		APICalls: []synclog.APICall{
			{Endpoint: "/budgets", Method: "POST", StatusCode: 201, DurationSeconds: 0.5},
			{Endpoint: "/budgets", Method: "POST", StatusCode: 201, DurationSeconds: 0.3},
			{Endpoint: "/alerts", Method: "POST", StatusCode: 201, DurationSeconds: 0.4},
			{Endpoint: "/alerts", Method: "POST", StatusCode: 201, DurationSeconds: 0.6},
		},
	},
	{
		Record: synclog.Record{
			Status:          synclog.StatusFailure,
			DurationSeconds: 5.1,
			ServicesSynced:  map[string]int{"int-stable": 2},
			BudgetsCreated:  2,
			BudgetsFailed:   3,
			AlertsFailed:    3,
		},
		APICalls: []synclog.APICall{
			{Endpoint: "/budgets", Method: "POST", StatusCode: 500, DurationSeconds: 0.5},
			{Endpoint: "/budgets", Method: "POST", StatusCode: 500, DurationSeconds: 0.4},
		},
	},
}

// RecordExamples records ExampleSyncs and returns the number of sync
// operations recorded. Used by the exporter's --example flag to populate
// dashboards without a Cloud Logging project.
func RecordExamples(syncs synclog.Recorder, calls APICallRecorder) int {
	for _, ex := range ExampleSyncs {
		syncs.RecordSync(ex.Record)
		for _, call := range ex.APICalls {
			calls.RecordAPICall(call)
		}
	}
	return len(ExampleSyncs)
}
