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

// Package cache provides thread-safe in-memory state kept by the exporter
// between collection passes.
//
// This file implements BaseCache, which provides:
// - Thread-safety with RWMutex
// - Timestamp tracking and staleness checks
//
// Caches embed BaseCache and keep their domain-specific storage themselves.
package cache

import (
	"sync"
	"time"
)

// BaseCache provides common cache infrastructure: thread-safety and update
// metadata. It does NOT store the actual data - that's handled by the
// embedding struct.
//
// Example:
//
//	type MyCache struct {
//	    BaseCache
//	    data []MyData
//	}
//
//	func (c *MyCache) Add(d MyData) {
//	    c.Lock()
//	    defer c.Unlock()
//	    c.data = append(c.data, d)
//	    c.MarkUpdated()
//	}
type BaseCache struct {
	// mu protects the embedding struct's data fields
	mu sync.RWMutex

	lastUpdate time.Time

	// now returns the current time. Defaults to time.Now.
	now func() time.Time
}

// Lock acquires the write lock. Use when modifying cache data.
// Must be paired with Unlock().
func (b *BaseCache) Lock() {
	b.mu.Lock()
}

// Unlock releases the write lock.
func (b *BaseCache) Unlock() {
	b.mu.Unlock()
}

// RLock acquires the read lock. Use when reading cache data.
// Multiple readers can hold the lock simultaneously.
// Must be paired with RUnlock().
func (b *BaseCache) RLock() {
	b.mu.RLock()
}

// RUnlock releases the read lock.
func (b *BaseCache) RUnlock() {
	b.mu.RUnlock()
}

// MarkUpdated sets the last update timestamp to now.
// Call this after successful data modifications.
//
// IMPORTANT: Caller must hold the write lock when calling this method.
func (b *BaseCache) MarkUpdated() {
	b.lastUpdate = b.clock()
}

// GetLastUpdate returns when the cache was last modified.
// Returns zero time if never updated.
// Thread-safe.
func (b *BaseCache) GetLastUpdate() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdate
}

// IsStale returns true if the cache hasn't been updated within maxAge.
// Returns true if the cache has never been updated (zero time).
// Thread-safe.
func (b *BaseCache) IsStale(maxAge time.Duration) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.lastUpdate.IsZero() {
		return true // Never updated
	}
	return b.clock().Sub(b.lastUpdate) > maxAge
}

// GetAge returns the duration since the last update.
// Returns 0 if never updated.
// Thread-safe.
func (b *BaseCache) GetAge() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.lastUpdate.IsZero() {
		return 0
	}
	return b.clock().Sub(b.lastUpdate)
}

func (b *BaseCache) clock() time.Time {
	if b.now == nil {
		return time.Now()
	}
	return b.now()
}
