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

package cache

import (
	"time"

	"github.com/nextdoor/costwatch/pkg/synclog"
)

// DefaultHistorySize is the number of sync records kept by NewSyncHistory
// when size is not positive.
const DefaultHistorySize = 50

// RecordedSync is one sync record and the time it was recorded.
type RecordedSync struct {
	RecordedAt time.Time
	Record     synclog.Record
}

// Stats summarizes the history.
type Stats struct {
	// Count is the number of records currently held.
	Count int

	// Total is the number of records ever added, including evicted ones.
	Total int

	// ByStatus counts held records per status.
	ByStatus map[synclog.Status]int
}

// SyncHistory keeps the most recent sync records, newest last. It implements
// synclog.Recorder so it can sit next to the metrics recorder.
type SyncHistory struct {
	BaseCache

	size    int
	records []RecordedSync
	total   int
}

var _ synclog.Recorder = (*SyncHistory)(nil)

// NewSyncHistory creates a history holding at most size records.
func NewSyncHistory(size int) *SyncHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &SyncHistory{
		size:    size,
		records: make([]RecordedSync, 0, size),
	}
}

// RecordSync appends rec, evicting the oldest record when full.
// Thread-safe.
func (h *SyncHistory) RecordSync(rec synclog.Record) {
	h.Lock()
	defer h.Unlock()

	if len(h.records) == h.size {
		copy(h.records, h.records[1:])
		h.records = h.records[:h.size-1]
	}
	h.MarkUpdated()
	h.records = append(h.records, RecordedSync{RecordedAt: h.lastUpdate, Record: rec})
	h.total++
}

// Recent returns a copy of the held records, newest last.
// Thread-safe.
func (h *SyncHistory) Recent() []RecordedSync {
	h.RLock()
	defer h.RUnlock()

	out := make([]RecordedSync, len(h.records))
	copy(out, h.records)
	return out
}

// Latest returns the most recent record, if any.
// Thread-safe.
func (h *SyncHistory) Latest() (RecordedSync, bool) {
	h.RLock()
	defer h.RUnlock()

	if len(h.records) == 0 {
		return RecordedSync{}, false
	}
	return h.records[len(h.records)-1], true
}

// GetStats returns summary counts for the held records.
// Thread-safe.
func (h *SyncHistory) GetStats() Stats {
	h.RLock()
	defer h.RUnlock()

	stats := Stats{
		Count:    len(h.records),
		Total:    h.total,
		ByStatus: make(map[synclog.Status]int),
	}
	for _, r := range h.records {
		stats.ByStatus[r.Record.Status]++
	}
	return stats
}
