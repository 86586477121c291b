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

// Package synclog turns the budget-sync Cloud Function's completion log
// lines into structured sync records.
//
// The function logs one summary line per run, for example:
//
//	Sync operation completed: status=success, duration=15.2s,
//	services={int-stable: 5, pre-stable: 10, prod: 15}, budgets=30/30, alerts=30/30
//
// Parse extracts each field with its own matcher so a line missing one of
// the optional sections still produces a record. The Collector reads recent
// entries through a LogReader and hands every parsed record to a Recorder.
package synclog

// Status is the outcome reported by a sync operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusTimeout Status = "timeout"
)

// Known reports whether s is one of the statuses the sync function emits.
func (s Status) Known() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusTimeout:
		return true
	}
	return false
}

// Record is one parsed sync operation.
type Record struct {
	Status          Status
	DurationSeconds float64

	// ServicesSynced maps environment to the number of services synced there.
	ServicesSynced map[string]int

	BudgetsCreated   int
	BudgetsFailed    int
	AlertsConfigured int
	AlertsFailed     int

	// Warnings lists anomalies that were tolerated while parsing, such as a
	// malformed services entry or a created count above the total. The
	// Collector logs them; the record itself is never corrected.
	Warnings []string
}

// TotalServices sums ServicesSynced.
func (r Record) TotalServices() int {
	total := 0
	for _, count := range r.ServicesSynced {
		total += count
	}
	return total
}

// APICall is one request made by the budget-sync function to the Apptio API.
type APICall struct {
	// Endpoint is the API path, e.g. "/budgets" or "/alerts".
	Endpoint string

	// Method is the HTTP method, e.g. "POST".
	Method string

	// StatusCode is the HTTP response status code.
	StatusCode int

	DurationSeconds float64
}
