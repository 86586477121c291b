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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrParse is matched (via errors.Is) by every *ParseError.
var ErrParse = errors.New("unparsable log entry")

// ParseError reports a log entry missing a mandatory field.
type ParseError struct {
	// Field is the name of the mandatory field that could not be extracted.
	Field string

	// Text is the raw log entry.
	Text string

	// Err is the conversion error, if the field matched but did not parse.
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s in log entry: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("missing %s in log entry", e.Field)
}

// Is makes errors.Is(err, ErrParse) true for any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	statusPattern   = regexp.MustCompile(`status=(\w+)`)
	durationPattern = regexp.MustCompile(`duration=([\d.]+)s`)
	servicesPattern = regexp.MustCompile(`services=\{([^}]*)\}`)
	budgetsPattern  = regexp.MustCompile(`budgets=(\d+)/(\d+)`)
	alertsPattern   = regexp.MustCompile(`alerts=(\d+)/(\d+)`)
)

// fieldMatcher extracts one field of a sync record. apply returns false when
// the field's pattern is absent from the text, and an error when it is
// present but cannot be converted.
type fieldMatcher struct {
	name     string
	required bool
	apply    func(text string, rec *Record) (bool, error)
}

// syncMatchers run in order over the same input. Only status and duration
// are mandatory; every other field defaults to zero when absent.
var syncMatchers = []fieldMatcher{
	{name: "status", required: true, apply: matchStatus},
	{name: "duration", required: true, apply: matchDuration},
	{name: "services", apply: matchServices},
	{name: "budgets", apply: matchRatio(budgetsPattern, "budgets", func(r *Record, done, failed int) {
		r.BudgetsCreated, r.BudgetsFailed = done, failed
	})},
	{name: "alerts", apply: matchRatio(alertsPattern, "alerts", func(r *Record, done, failed int) {
		r.AlertsConfigured, r.AlertsFailed = done, failed
	})},
}

// Parse extracts a Record from a sync completion log line.
//
// A missing or malformed status or duration fails the whole parse with a
// *ParseError. Every other field is optional: when absent its counts stay
// zero, and when malformed the field is skipped with a warning on the
// returned Record. Failed counts are derived as total minus succeeded and
// are never corrected; a negative result is reported as a warning.
func Parse(text string) (Record, error) {
	rec := Record{ServicesSynced: map[string]int{}}

	for _, m := range syncMatchers {
		matched, err := m.apply(text, &rec)
		switch {
		case m.required && err != nil:
			return Record{}, &ParseError{Field: m.name, Text: text, Err: err}
		case m.required && !matched:
			return Record{}, &ParseError{Field: m.name, Text: text}
		case err != nil:
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("ignored %s: %v", m.name, err))
		}
	}

	if !rec.Status.Known() {
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("unrecognized status %q", rec.Status))
	}
	return rec, nil
}

func matchStatus(text string, rec *Record) (bool, error) {
	m := statusPattern.FindStringSubmatch(text)
	if m == nil {
		return false, nil
	}
	rec.Status = Status(m[1])
	return true, nil
}

func matchDuration(text string, rec *Record) (bool, error) {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return false, nil
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return true, err
	}
	rec.DurationSeconds = seconds
	return true, nil
}

// matchServices parses "services={env: count, ...}". Entries are parsed
// independently; a malformed entry is skipped with a warning and the rest
// are kept.
func matchServices(text string, rec *Record) (bool, error) {
	m := servicesPattern.FindStringSubmatch(text)
	if m == nil {
		return false, nil
	}

	for _, entry := range strings.Split(m[1], ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		env, countText, ok := strings.Cut(entry, ":")
		env = strings.TrimSpace(env)
		if !ok || env == "" {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("ignored services entry %q", entry))
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(countText))
		if err != nil {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("ignored services entry %q: %v", entry, err))
			continue
		}
		rec.ServicesSynced[env] = count
	}
	return true, nil
}

// matchRatio builds a matcher for "<name>=<done>/<total>" fields.
func matchRatio(pattern *regexp.Regexp, name string, set func(r *Record, done, failed int)) func(string, *Record) (bool, error) {
	return func(text string, rec *Record) (bool, error) {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			return false, nil
		}
		done, err := strconv.Atoi(m[1])
		if err != nil {
			return true, err
		}
		total, err := strconv.Atoi(m[2])
		if err != nil {
			return true, err
		}

		failed := total - done
		if failed < 0 {
			rec.Warnings = append(rec.Warnings,
				fmt.Sprintf("%s succeeded count %d exceeds total %d", name, done, total))
		}
		set(rec, done, failed)
		return true, nil
	}
}
