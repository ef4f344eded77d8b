// Package lists implements the checklist domain: list and item
// persistence plus the cascade delete that removes a list together
// with every item referencing it.
//
// The document store has no referential integrity, so deleting a list
// on its own would strand its items; the cascade exists to close that
// gap with a single atomic batch.
package lists

import (
	"context"
	"errors"
	"fmt"

	"github.com/prasetyo/multitool/internal/docstore"
	"github.com/prasetyo/multitool/internal/models"
)

const (
	// Collection holds the parent lists.
	Collection = "lists"

	// ItemCollection holds every user's list items, flat; items point
	// at their parent through the listId field.
	ItemCollection = "listItems"
)

var (
	// ErrListNotFound is returned when the target list is absent from
	// the caller's known set. No store round-trip is attempted.
	ErrListNotFound = errors.New("list not found")

	// ErrNoUser is returned when no authenticated user ID is available.
	ErrNoUser = errors.New("authenticated user required")
)

// Protocol deletes lists and their items against a document store.
// It keeps no state across invocations; concurrent cascades on
// different lists interact only through the store.
type Protocol struct {
	store docstore.Store
}

// NewProtocol creates a cascade delete protocol backed by the store.
func NewProtocol(store docstore.Store) *Protocol {
	return &Protocol{store: store}
}

// DeleteListCascade removes the list and every item referencing it in
// one atomic batch: either the list and all its items are deleted, or
// nothing is.
//
// The target is resolved from the caller-supplied known set; a missing
// list fails with ErrListNotFound before any store call. The item set
// comes from a point-in-time query, so an item inserted into the list
// between that query and the commit is not part of the batch and ends
// up orphaned. No retry is attempted on commit failure; the error
// surfaces to the caller with the list fully intact.
func (p *Protocol) DeleteListCascade(ctx context.Context, userID, listID string, known []models.List) error {
	if userID == "" {
		return ErrNoUser
	}

	found := false
	for _, l := range known {
		if l.ID == listID {
			found = true
			break
		}
	}
	if !found {
		return ErrListNotFound
	}

	items, err := p.queryItems(ctx, userID, listID)
	if err != nil {
		return err
	}

	batch := p.store.Batch()
	batch.Delete(userID, Collection, listID)
	for _, item := range items {
		batch.Delete(userID, ItemCollection, item.ID)
	}
	return batch.Commit(ctx)
}

// ClearItems empties a list without deleting it: one point-in-time
// query for the list's items, one atomic batch deleting them all.
// Carries the same insertion-window caveat as DeleteListCascade.
func (p *Protocol) ClearItems(ctx context.Context, userID, listID string) error {
	if userID == "" {
		return ErrNoUser
	}

	items, err := p.queryItems(ctx, userID, listID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	batch := p.store.Batch()
	for _, item := range items {
		batch.Delete(userID, ItemCollection, item.ID)
	}
	return batch.Commit(ctx)
}

func (p *Protocol) queryItems(ctx context.Context, userID, listID string) ([]docstore.Document, error) {
	items, err := p.store.Query(ctx, userID, ItemCollection,
		[]docstore.Filter{{Field: "listId", Value: listID}}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query list items: %w", err)
	}
	return items, nil
}

// Lists returns the user's lists, newest first.
func (p *Protocol) Lists(ctx context.Context, userID string) ([]models.List, error) {
	docs, err := p.store.Query(ctx, userID, Collection, nil, &docstore.Order{Field: "createdAt", Desc: true})
	if err != nil {
		return nil, err
	}

	lists := make([]models.List, 0, len(docs))
	for _, doc := range docs {
		var l models.List
		if err := doc.Decode(&l); err != nil {
			return nil, fmt.Errorf("failed to decode list %s: %w", doc.ID, err)
		}
		l.ID = doc.ID
		l.CreatedAt = doc.CreatedAt
		lists = append(lists, l)
	}
	return lists, nil
}

// Items returns a list's items, oldest first (entry order).
func (p *Protocol) Items(ctx context.Context, userID, listID string) ([]models.ListItem, error) {
	docs, err := p.store.Query(ctx, userID, ItemCollection,
		[]docstore.Filter{{Field: "listId", Value: listID}},
		&docstore.Order{Field: "createdAt"})
	if err != nil {
		return nil, err
	}

	items := make([]models.ListItem, 0, len(docs))
	for _, doc := range docs {
		var item models.ListItem
		if err := doc.Decode(&item); err != nil {
			return nil, fmt.Errorf("failed to decode list item %s: %w", doc.ID, err)
		}
		item.ID = doc.ID
		item.CreatedAt = doc.CreatedAt
		items = append(items, item)
	}
	return items, nil
}
