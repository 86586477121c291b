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

// Package cloudlogging reads budget-sync function log entries from Google
// Cloud Logging.
package cloudlogging

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/logging"
	"cloud.google.com/go/logging/logadmin"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nextdoor/costwatch/pkg/synclog"
)

// CompletionMarker is the text every sync completion entry contains.
const CompletionMarker = "Sync operation completed"

// BuildFilter returns the Cloud Logging filter selecting the completion
// entries of the named Cloud Function.
func BuildFilter(functionName string) string {
	return fmt.Sprintf(
		`resource.type="cloud_function" AND resource.labels.function_name=%q AND severity="INFO" AND textPayload=~%q`,
		functionName, CompletionMarker)
}

// entryIterator is the subset of *logadmin.EntryIterator the reader uses.
type entryIterator interface {
	Next() (*logging.Entry, error)
}

type entrySource func(ctx context.Context, opts ...logadmin.EntriesOption) entryIterator

// Reader implements synclog.LogReader on top of a logadmin client.
type Reader struct {
	client  *logadmin.Client
	entries entrySource
}

var _ synclog.LogReader = (*Reader)(nil)

// NewReader creates a Reader for projectID. Credentials come from the
// environment (Application Default Credentials) unless given in opts.
func NewReader(ctx context.Context, projectID string, opts ...option.ClientOption) (*Reader, error) {
	if projectID == "" {
		return nil, errors.New("project id is required")
	}
	client, err := logadmin.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create logadmin client: %w", err)
	}
	return &Reader{
		client: client,
		entries: func(ctx context.Context, opts ...logadmin.EntriesOption) entryIterator {
			return client.Entries(ctx, opts...)
		},
	}, nil
}

// QueryRecentEntries returns up to maxResults entries matching filter, newest
// first. Entries whose payload carries no text are skipped. If the iterator
// fails, the entries read so far are returned with the error.
func (r *Reader) QueryRecentEntries(ctx context.Context, filter string, maxResults int) ([]synclog.Entry, error) {
	opts := []logadmin.EntriesOption{logadmin.NewestFirst()}
	if filter != "" {
		opts = append(opts, logadmin.Filter(filter))
	}

	it := r.entries(ctx, opts...)
	var entries []synclog.Entry
	for maxResults <= 0 || len(entries) < maxResults {
		entry, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return entries, fmt.Errorf("failed to read log entries: %w", err)
		}
		if text, ok := payloadText(entry.Payload); ok {
			entries = append(entries, synclog.Entry{
				InsertID:  entry.InsertID,
				Timestamp: entry.Timestamp,
				Text:      text,
			})
		}
	}
	return entries, nil
}

// Close releases the underlying client.
func (r *Reader) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// payloadText extracts the log line from an entry payload. Text payloads are
// returned as is; structured payloads use their "message" field, the key the
// Cloud Functions runtime writes.
func payloadText(payload any) (string, bool) {
	switch p := payload.(type) {
	case string:
		return p, p != ""
	case *structpb.Struct:
		for _, key := range []string{"message", "textPayload"} {
			if v, ok := p.GetFields()[key]; ok {
				if s := v.GetStringValue(); s != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}
