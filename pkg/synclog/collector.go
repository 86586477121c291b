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
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// DefaultMaxResults is the number of log entries read per collection pass
// when Collector.MaxResults is unset.
const DefaultMaxResults = 10

// Entry is one log entry returned by a LogReader.
type Entry struct {
	// InsertID is the log service's unique id for the entry. May be empty.
	InsertID string

	Timestamp time.Time
	Text      string
}

// key identifies the entry across passes.
func (e Entry) key() string {
	if e.InsertID != "" {
		return e.InsertID
	}
	return e.Timestamp.UTC().Format(time.RFC3339Nano) + "|" + e.Text
}

// LogReader returns the most recent log entries that match filter, newest
// first, at most maxResults of them. On a failure partway through it returns
// the entries read so far together with the error.
// cloudlogging.Reader is the production implementation.
type LogReader interface {
	QueryRecentEntries(ctx context.Context, filter string, maxResults int) ([]Entry, error)
}

// Recorder receives each parsed sync record.
type Recorder interface {
	RecordSync(rec Record)
}

// Recorders fans each record out to every recorder in order.
type Recorders []Recorder

// RecordSync implements Recorder.
func (rs Recorders) RecordSync(rec Record) {
	for _, r := range rs {
		r.RecordSync(rec)
	}
}

// CollectResult summarizes one collection pass.
type CollectResult struct {
	// Entries is the number of log entries returned by the reader.
	Entries int

	// Recorded is the number of entries parsed and handed to the Recorder.
	Recorded int

	// Skipped is the number of entries that failed to parse.
	Skipped int

	// Duplicates is the number of entries already recorded by an earlier
	// pass that ended with a query error.
	Duplicates int
}

// Collector reads sync completion entries and records them.
type Collector struct {
	Reader   LogReader
	Recorder Recorder
	Log      logr.Logger

	// Filter selects sync completion entries. See cloudlogging.BuildFilter.
	Filter string

	// MaxResults bounds the entries read per pass. Defaults to DefaultMaxResults.
	MaxResults int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// since is the start time of the last successful query. Later passes only
	// read entries logged at or after it, so a sync is not recorded twice.
	since time.Time

	// pending holds the keys of entries recorded by passes that ended with a
	// query error. since does not move on such a pass, so the next pass reads
	// them again and skips them. Cleared after a successful pass.
	pending map[string]struct{}
}

// Collect runs one collection pass. An entry that fails to parse is logged
// and skipped; the remaining entries are still recorded. When the reader
// fails partway through, the entries it returned are recorded and the
// wrapped reader error is returned with the partial result.
func (c *Collector) Collect(ctx context.Context) (CollectResult, error) {
	start := c.now()

	entries, queryErr := c.Reader.QueryRecentEntries(ctx, c.filter(), c.maxResults())

	result := CollectResult{Entries: len(entries)}
	for i, entry := range entries {
		key := entry.key()
		if _, seen := c.pending[key]; seen {
			result.Duplicates++
			continue
		}

		rec, err := Parse(entry.Text)
		if err != nil {
			c.Log.Info("skipping unparsable sync log entry", "warning", err.Error(), "entry_index", i)
			result.Skipped++
			continue
		}

		for _, w := range rec.Warnings {
			c.Log.Info("sync log entry parsed with anomalies", "warning", w, "status", rec.Status)
		}
		c.Recorder.RecordSync(rec)
		result.Recorded++
		if queryErr != nil {
			if c.pending == nil {
				c.pending = make(map[string]struct{})
			}
			c.pending[key] = struct{}{}
		}
	}

	if queryErr != nil {
		c.Log.Info("sync log query failed, recorded partial results",
			"warning", queryErr.Error(),
			"entries", result.Entries,
			"recorded", result.Recorded)
		return result, fmt.Errorf("failed to query sync log entries: %w", queryErr)
	}
	c.since = start
	c.pending = nil

	c.Log.V(1).Info("collected sync log entries",
		"entries", result.Entries,
		"recorded", result.Recorded,
		"skipped", result.Skipped,
		"duplicates", result.Duplicates)
	return result, nil
}

func (c *Collector) filter() string {
	if c.since.IsZero() {
		return c.Filter
	}
	bound := fmt.Sprintf("timestamp>=%q", c.since.UTC().Format(time.RFC3339Nano))
	if c.Filter == "" {
		return bound
	}
	return c.Filter + " AND " + bound
}

func (c *Collector) maxResults() int {
	if c.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return c.MaxResults
}

func (c *Collector) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
