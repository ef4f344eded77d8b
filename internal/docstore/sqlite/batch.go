package sqlite

import (
	"context"
	"fmt"

	"github.com/prasetyo/multitool/internal/docstore"
)

// batchDelete is one pending deletion inside a write batch.
type batchDelete struct {
	userID     string
	collection string
	id         string
}

// writeBatch implements docstore.WriteBatch on top of a SQL
// transaction. Deletions are buffered in memory until Commit.
type writeBatch struct {
	store   *Store
	deletes []batchDelete
}

// Batch starts a new atomic write batch.
func (s *Store) Batch() docstore.WriteBatch {
	return &writeBatch{store: s}
}

// Delete schedules the removal of one document.
func (b *writeBatch) Delete(userID, collection, id string) {
	b.deletes = append(b.deletes, batchDelete{userID: userID, collection: collection, id: id})
}

// Commit applies every scheduled deletion in a single transaction.
// On any error the transaction rolls back and no deletion takes
// effect; the batch performs no retries of its own.
func (b *writeBatch) Commit(ctx context.Context) error {
	if len(b.deletes) == 0 {
		return nil
	}

	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, del := range b.deletes {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM documents WHERE user_id = ? AND collection = ? AND id = ?",
			del.userID, del.collection, del.id,
		)
		if err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Notify each touched collection once, after the commit landed.
	seen := make(map[string]bool, len(b.deletes))
	for _, del := range b.deletes {
		key := collectionKey(del.userID, del.collection)
		if seen[key] {
			continue
		}
		seen[key] = true
		b.store.subs.notify(b.store, del.userID, del.collection)
	}
	return nil
}
