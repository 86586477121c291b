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

package synclog

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Record
	}{
		{
			name: "successful sync",
			text: "status=success, duration=15.2s, services={int-stable: 5, pre-stable: 10, prod: 15}, budgets=30/30, alerts=30/30",
			want: Record{
				Status:           StatusSuccess,
				DurationSeconds:  15.2,
				ServicesSynced:   map[string]int{"int-stable": 5, "pre-stable": 10, "prod": 15},
				BudgetsCreated:   30,
				AlertsConfigured: 30,
			},
		},
		{
			name: "partial failure",
			text: "status=failure, duration=5.1s, services={int-stable: 2}, budgets=2/5, alerts=0/3",
			want: Record{
				Status:          StatusFailure,
				DurationSeconds: 5.1,
				ServicesSynced:  map[string]int{"int-stable": 2},
				BudgetsCreated:  2,
				BudgetsFailed:   3,
				AlertsFailed:    3,
			},
		},
		{
			name: "prefixed completion line",
			text: "Sync operation completed: status=timeout, duration=300s, services={prod: 1}, budgets=1/1, alerts=1/1",
			want: Record{
				Status:           StatusTimeout,
				DurationSeconds:  300,
				ServicesSynced:   map[string]int{"prod": 1},
				BudgetsCreated:   1,
				AlertsConfigured: 1,
			},
		},
		{
			name: "optional fields absent",
			text: "status=success, duration=1.0s",
			want: Record{
				Status:          StatusSuccess,
				DurationSeconds: 1.0,
				ServicesSynced:  map[string]int{},
			},
		},
		{
			name: "empty services",
			text: "status=success, duration=2s, services={}, budgets=0/0",
			want: Record{
				Status:          StatusSuccess,
				DurationSeconds: 2,
				ServicesSynced:  map[string]int{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_MandatoryFields(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
	}{
		{name: "no status", text: "duration=15.2s, budgets=30/30", field: "status"},
		{name: "no duration", text: "status=success, budgets=30/30", field: "duration"},
		{name: "duration without unit", text: "status=success, duration=15.2", field: "duration"},
		{name: "duration not a number", text: "status=success, duration=1.2.3s", field: "duration"},
		{name: "empty text", text: "", field: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.field, parseErr.Field)
			assert.Equal(t, tt.text, parseErr.Text)
		})
	}
}

func TestParse_MalformedServiceEntriesAreSkipped(t *testing.T) {
	rec, err := Parse("status=success, duration=3s, services={int-stable: 5, garbage, prod: x, pre-stable: 7}")

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"int-stable": 5, "pre-stable": 7}, rec.ServicesSynced)
	assert.Len(t, rec.Warnings, 2)
	assert.Equal(t, 12, rec.TotalServices())
}

func TestParse_NegativeFailureCountIsKept(t *testing.T) {
	rec, err := Parse("status=success, duration=3s, budgets=7/5, alerts=1/1")

	require.NoError(t, err)
	assert.Equal(t, 7, rec.BudgetsCreated)
	assert.Equal(t, -2, rec.BudgetsFailed)
	assert.Zero(t, rec.AlertsFailed)
	require.Len(t, rec.Warnings, 1)
	assert.Contains(t, rec.Warnings[0], "budgets")
}

func TestParse_OverflowingCountIsIgnored(t *testing.T) {
	rec, err := Parse("status=success, duration=3s, budgets=99999999999999999999/1, alerts=2/3")

	require.NoError(t, err)
	assert.Zero(t, rec.BudgetsCreated)
	assert.Zero(t, rec.BudgetsFailed)
	assert.Equal(t, 2, rec.AlertsConfigured)
	assert.Equal(t, 1, rec.AlertsFailed)
	require.Len(t, rec.Warnings, 1)
	assert.Contains(t, rec.Warnings[0], "ignored budgets")
}

func TestParse_UnknownStatusIsKept(t *testing.T) {
	rec, err := Parse("status=partial, duration=3s")

	require.NoError(t, err)
	assert.Equal(t, Status("partial"), rec.Status)
	assert.False(t, rec.Status.Known())
	assert.Len(t, rec.Warnings, 1)
}
