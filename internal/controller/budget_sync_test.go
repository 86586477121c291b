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
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextdoor/costwatch/pkg/synclog"
)

// fakeCollector returns a fixed result and counts passes.
type fakeCollector struct {
	mu        sync.Mutex
	result    synclog.CollectResult
	err       error
	calls     int
	deadlines []bool
}

func (f *fakeCollector) Collect(ctx context.Context) (synclog.CollectResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	_, ok := ctx.Deadline()
	f.deadlines = append(f.deadlines, ok)
	return f.result, f.err
}

func (f *fakeCollector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// TestBudgetSyncReconcile_Success tests a successful pass marks readiness.
func TestBudgetSyncReconcile_Success(t *testing.T) {
	collector := &fakeCollector{result: synclog.CollectResult{Entries: 3, Recorded: 2, Skipped: 1}}
	readiness := NewCollectionReadiness()
	r := &BudgetSyncReconciler{
		Collector: collector,
		Readiness: readiness,
		Log:       logr.Discard(),
	}

	require.NoError(t, r.Reconcile(context.Background()))
	assert.Equal(t, 1, collector.calls)
	assert.NoError(t, readiness.Check(nil))
	assert.Equal(t, []bool{false}, collector.deadlines, "no timeout configured")
}

// TestBudgetSyncReconcile_Failure tests a failed pass is returned and makes
// the exporter unready.
func TestBudgetSyncReconcile_Failure(t *testing.T) {
	queryErr := errors.New("permission denied")
	readiness := NewCollectionReadiness()
	r := &BudgetSyncReconciler{
		Collector: &fakeCollector{err: queryErr},
		Readiness: readiness,
		Log:       logr.Discard(),
	}

	err := r.Reconcile(context.Background())
	require.ErrorIs(t, err, queryErr)

	checkErr := readiness.Check(nil)
	require.Error(t, checkErr)
	assert.ErrorIs(t, checkErr, queryErr)
}

// TestBudgetSyncReconcile_PartialFailure tests a pass that recorded some
// entries before the query failed still reports the failure.
func TestBudgetSyncReconcile_PartialFailure(t *testing.T) {
	queryErr := errors.New("stream reset")
	readiness := NewCollectionReadiness()
	r := &BudgetSyncReconciler{
		Collector: &fakeCollector{
			result: synclog.CollectResult{Entries: 2, Recorded: 2},
			err:    queryErr,
		},
		Readiness: readiness,
		Log:       logr.Discard(),
	}

	require.ErrorIs(t, r.Reconcile(context.Background()), queryErr)
	assert.ErrorIs(t, readiness.Check(nil), queryErr)
}

// TestBudgetSyncReconcile_QueryTimeout verifies the pass context carries a
// deadline when a timeout is configured.
func TestBudgetSyncReconcile_QueryTimeout(t *testing.T) {
	collector := &fakeCollector{}
	r := &BudgetSyncReconciler{
		Collector:    collector,
		Log:          logr.Discard(),
		QueryTimeout: time.Second,
	}

	require.NoError(t, r.Reconcile(context.Background()))
	assert.Equal(t, []bool{true}, collector.deadlines)
}

// TestBudgetSyncReconcile_NilReadiness verifies readiness is optional.
func TestBudgetSyncReconcile_NilReadiness(t *testing.T) {
	r := &BudgetSyncReconciler{Collector: &fakeCollector{}, Log: logr.Discard()}
	assert.NoError(t, r.Reconcile(context.Background()))
}

// TestBudgetSyncRun_CollectsUntilCancelled tests the initial pass, at least
// one scheduled pass, and shutdown on cancellation.
func TestBudgetSyncRun_CollectsUntilCancelled(t *testing.T) {
	collector := &fakeCollector{err: errors.New("transient")}
	r := &BudgetSyncReconciler{
		Collector: collector,
		Log:       logr.Discard(),
		Interval:  10 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return collector.callCount() >= 3 },
		2*time.Second, 5*time.Millisecond, "failed passes should not stop the loop")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
