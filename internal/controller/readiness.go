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
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrNotCollected is returned by CollectionReadiness.Check before the first
// collection pass has finished.
var ErrNotCollected = errors.New("no collection pass has completed yet")

// CollectionReadiness provides readiness check functionality for the
// budget-sync exporter. It implements the controller-runtime healthz.Checker
// signature and is served as the /readyz probe.
//
// The exporter is not ready until one collection pass has completed, and
// stops being ready while the most recent pass fails to query logs. Metrics
// are still served in that state; readiness only reports whether they are
// current.
type CollectionReadiness struct {
	mu       sync.RWMutex
	passed   bool
	lastErr  error
	lastPass time.Time
}

// NewCollectionReadiness creates a readiness checker with no passes recorded.
func NewCollectionReadiness() *CollectionReadiness {
	return &CollectionReadiness{}
}

// Name returns the name of this health checker for logging purposes.
func (c *CollectionReadiness) Name() string {
	return "budget-sync-collection"
}

// MarkPass records the outcome of a collection pass.
func (c *CollectionReadiness) MarkPass(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passed = true
	c.lastErr = err
	c.lastPass = time.Now()
}

// Check returns nil once a pass has completed and the latest pass succeeded.
// This method is called by the health probe server.
func (c *CollectionReadiness) Check(_ *http.Request) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.passed {
		return ErrNotCollected
	}
	if c.lastErr != nil {
		return fmt.Errorf("last collection pass at %s failed: %w",
			c.lastPass.UTC().Format(time.RFC3339), c.lastErr)
	}
	return nil
}
