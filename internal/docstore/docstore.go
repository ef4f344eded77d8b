// Package docstore provides abstractions for per-user document storage.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Fields holds a document's payload as loosely typed key/value pairs,
// serialized as JSON by the backing store.
type Fields map[string]any

// Document is one stored record. ID and CreatedAt are assigned by the
// store on Create and never change.
type Document struct {
	ID        string
	CreatedAt time.Time
	Fields    Fields
}

// Decode unmarshals the document's fields into v, then the caller is
// expected to copy ID and CreatedAt from the document itself.
func (d *Document) Decode(v any) error {
	raw, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	return nil
}

// Filter restricts a query to documents whose field equals the value.
type Filter struct {
	Field string
	Value any
}

// Order sorts query results by a single field. The reserved field name
// "createdAt" sorts by the store-assigned creation time.
type Order struct {
	Field string
	Desc  bool
}

// Snapshot is the full result set of a subscribed query at one point
// in time. Subscribers always receive complete snapshots, never diffs.
type Snapshot []Document

// increment is the sentinel carried by Increment values.
type increment struct {
	Delta float64
}

// Increment returns a field value that, when passed to Update, adds
// delta to the stored numeric field atomically instead of replacing it.
// A missing field is treated as zero.
func Increment(delta float64) any {
	return increment{Delta: delta}
}

// IncrementDelta reports whether v was produced by Increment and, if
// so, returns the delta it carries. Store implementations use it to
// resolve increments against the stored value.
func IncrementDelta(v any) (float64, bool) {
	inc, ok := v.(increment)
	return inc.Delta, ok
}

// WriteBatch accumulates deletions that are applied as a single
// all-or-nothing commit.
type WriteBatch interface {
	// Delete schedules the removal of one document.
	Delete(userID, collection, id string)

	// Commit applies every scheduled deletion atomically: either all
	// of them take effect or none do.
	Commit(ctx context.Context) error
}

// Store defines the document store operations used by the services.
// Every path is namespaced per user: users/{userId}/{collection}/{id}.
// This abstraction allows swapping storage backends (SQLite, Postgres,
// a hosted document database) without changing the service layer.
type Store interface {
	// Create inserts a document into the user's collection and returns
	// the store-assigned ID. CreatedAt is set server-side.
	Create(ctx context.Context, userID, collection string, fields Fields) (string, error)

	// Get retrieves a single document by ID.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, userID, collection, id string) (*Document, error)

	// Query returns a point-in-time read of the documents matching
	// every filter, sorted by order (insertion order if nil).
	Query(ctx context.Context, userID, collection string, filters []Filter, order *Order) ([]Document, error)

	// Update merges fields into an existing document. Increment values
	// are applied atomically. Returns ErrNotFound for missing documents.
	Update(ctx context.Context, userID, collection, id string, fields Fields) error

	// Delete removes a single document. Deleting a missing document is
	// not an error.
	Delete(ctx context.Context, userID, collection, id string) error

	// Batch starts a new atomic write batch.
	Batch() WriteBatch

	// Subscribe registers a live query: fn receives the current result
	// set immediately and a fresh Snapshot after every mutation that
	// touches the collection. The returned cancel func must be called
	// on teardown; fn is never invoked after cancel returns.
	Subscribe(userID, collection string, filters []Filter, order *Order, fn func(Snapshot)) (cancel func(), err error)

	// Close releases any resources held by the store.
	Close() error
}
