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

package cloudlogging

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/logging"
	"cloud.google.com/go/logging/logadmin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nextdoor/costwatch/pkg/synclog"
)

type sliceIterator struct {
	entries []*logging.Entry
	err     error
	calls   int
}

func (s *sliceIterator) Next() (*logging.Entry, error) {
	s.calls++
	if len(s.entries) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, iterator.Done
	}
	e := s.entries[0]
	s.entries = s.entries[1:]
	return e, nil
}

func readerFor(it *sliceIterator, gotOpts *int) *Reader {
	return &Reader{entries: func(_ context.Context, opts ...logadmin.EntriesOption) entryIterator {
		if gotOpts != nil {
			*gotOpts = len(opts)
		}
		return it
	}}
}

func texts(entries []synclog.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}

func TestBuildFilter(t *testing.T) {
	assert.Equal(t,
		`resource.type="cloud_function" AND resource.labels.function_name="budget-sync" AND severity="INFO" AND textPayload=~"Sync operation completed"`,
		BuildFilter("budget-sync"))
}

func TestQueryRecentEntries(t *testing.T) {
	jsonPayload, err := structpb.NewStruct(map[string]any{"message": "status=failure, duration=2s"})
	require.NoError(t, err)

	it := &sliceIterator{entries: []*logging.Entry{
		{Payload: "status=success, duration=1s"},
		{Payload: jsonPayload},
		{Payload: 42},
		{Payload: ""},
	}}
	var nOpts int

	entries, err := readerFor(it, &nOpts).QueryRecentEntries(context.Background(), "f", 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"status=success, duration=1s", "status=failure, duration=2s"}, texts(entries))
	assert.Equal(t, 2, nOpts, "newest first and filter")
}

func TestQueryRecentEntries_StopsAtMax(t *testing.T) {
	it := &sliceIterator{entries: []*logging.Entry{
		{Payload: "a"}, {Payload: "b"}, {Payload: "c"},
	}}

	entries, err := readerFor(it, nil).QueryRecentEntries(context.Background(), "", 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts(entries))
	assert.Equal(t, 2, it.calls)
}

func TestQueryRecentEntries_IteratorError(t *testing.T) {
	boom := errors.New("rpc error")
	it := &sliceIterator{entries: []*logging.Entry{{Payload: "a"}}, err: boom}

	entries, err := readerFor(it, nil).QueryRecentEntries(context.Background(), "", 10)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, texts(entries))
}

func TestQueryRecentEntries_CarriesEntryIdentity(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	it := &sliceIterator{entries: []*logging.Entry{
		{InsertID: "abc123", Timestamp: ts, Payload: "status=success, duration=1s"},
	}}

	entries, err := readerFor(it, nil).QueryRecentEntries(context.Background(), "", 10)

	require.NoError(t, err)
	assert.Equal(t, []synclog.Entry{
		{InsertID: "abc123", Timestamp: ts, Text: "status=success, duration=1s"},
	}, entries)
}

func TestPayloadText(t *testing.T) {
	alt, err := structpb.NewStruct(map[string]any{"textPayload": "hello"})
	require.NoError(t, err)
	empty, err := structpb.NewStruct(map[string]any{"severity": "INFO"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload any
		want    string
		ok      bool
	}{
		{name: "text", payload: "line", want: "line", ok: true},
		{name: "struct textPayload", payload: alt, want: "hello", ok: true},
		{name: "struct without text", payload: empty},
		{name: "nil", payload: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := payloadText(tt.payload)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewReader_RequiresProject(t *testing.T) {
	_, err := NewReader(context.Background(), "")
	require.Error(t, err)
}

func TestReader_CloseWithoutClient(t *testing.T) {
	assert.NoError(t, (&Reader{}).Close())
}
