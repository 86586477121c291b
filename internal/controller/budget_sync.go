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
	"time"

	"github.com/go-logr/logr"

	"github.com/nextdoor/costwatch/pkg/synclog"
)

// DefaultSyncInterval is how often budget-sync logs are collected when
// BudgetSyncReconciler.Interval is unset.
const DefaultSyncInterval = 60 * time.Second

// SyncCollector performs one collection pass over budget-sync logs.
// *synclog.Collector is the production implementation.
type SyncCollector interface {
	Collect(ctx context.Context) (synclog.CollectResult, error)
}

// BudgetSyncReconciler periodically reads budget-sync completion logs and
// records them as metrics.
//
// Each pass queries the most recent completion entries. Entries that fail to
// parse are skipped by the collector. When a query fails partway through, the
// entries read before the failure are still recorded, the pass is reported as
// failed, and the next tick tries again.
type BudgetSyncReconciler struct {
	// Collector reads and records sync entries.
	Collector SyncCollector

	// Readiness is updated after every pass. May be nil.
	Readiness *CollectionReadiness

	// Log
	Log logr.Logger

	// Interval between passes. Defaults to DefaultSyncInterval.
	Interval time.Duration

	// QueryTimeout bounds a single pass. Zero means no deadline beyond the
	// parent context.
	QueryTimeout time.Duration
}

// Reconcile performs a single collection pass.
func (r *BudgetSyncReconciler) Reconcile(ctx context.Context) error {
	log := r.Log.WithValues("reconciler", "budget-sync")
	log.V(1).Info("starting budget sync collection")
	startTime := time.Now()

	passCtx := ctx
	if r.QueryTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, r.QueryTimeout)
		defer cancel()
	}

	result, err := r.Collector.Collect(passCtx)
	if r.Readiness != nil {
		r.Readiness.MarkPass(err)
	}
	if err != nil {
		if result.Recorded > 0 {
			log.Info("budget sync collection recorded partial results",
				"entries", result.Entries,
				"recorded", result.Recorded)
		}
		return err
	}

	log.Info("budget sync collection completed",
		"entries", result.Entries,
		"recorded", result.Recorded,
		"skipped", result.Skipped,
		"duplicates", result.Duplicates,
		"duration_seconds", time.Since(startTime).Seconds())
	return nil
}

// Run runs the reconciler with timer-based collection.
//
// Uses a simple time.Ticker for periodic collection. Collects immediately on
// startup, continues running even if individual passes fail, and stops
// gracefully when the context is cancelled.
func (r *BudgetSyncReconciler) Run(ctx context.Context) error {
	log := r.Log
	log.Info("starting budget sync reconciler")

	log.Info("running initial collection")
	if err := r.Reconcile(ctx); err != nil {
		log.Error(err, "initial collection failed")
		// Don't exit - continue with periodic collection
	}

	interval := r.Interval
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	log.Info("configured collection interval", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down budget sync reconciler")
			return ctx.Err()
		case <-ticker.C:
			log.V(1).Info("running scheduled collection")
			if err := r.Reconcile(ctx); err != nil {
				log.Error(err, "scheduled collection failed")
				// Don't exit - continue with next cycle
			}
		}
	}
}
