package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyo/multitool/internal/docstore"
	"github.com/prasetyo/multitool/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "user-1", "prompts", docstore.Fields{
		"title": "Greeting",
		"text":  "Hello there",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := store.Get(ctx, "user-1", "prompts", id)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "Greeting", doc.Fields["title"])
	assert.False(t, doc.CreatedAt.IsZero())

	// Wrong namespace must not see the document.
	_, err = store.Get(ctx, "user-2", "prompts", id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	_, err = store.Get(ctx, "user-1", "links", id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestQueryFiltersAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, item := range []struct {
		text   string
		listID string
	}{
		{"Beras", "list-a"},
		{"Gula", "list-a"},
		{"Interstellar", "list-b"},
	} {
		_, err := store.Create(ctx, "user-1", "listItems", docstore.Fields{
			"text":   item.text,
			"listId": item.listID,
		})
		require.NoError(t, err)
	}

	docs, err := store.Query(ctx, "user-1", "listItems",
		[]docstore.Filter{{Field: "listId", Value: "list-a"}},
		&docstore.Order{Field: "createdAt"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Beras", docs[0].Fields["text"])
	assert.Equal(t, "Gula", docs[1].Fields["text"])

	// Order by a JSON field, descending.
	docs, err = store.Query(ctx, "user-1", "listItems", nil, &docstore.Order{Field: "text", Desc: true})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "Interstellar", docs[0].Fields["text"])

	// Hostile field names are rejected, not spliced into SQL.
	_, err = store.Query(ctx, "user-1", "listItems",
		[]docstore.Filter{{Field: "x') --", Value: 1}}, nil)
	assert.Error(t, err)
}

func TestUpdateMergesFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "user-1", "links", docstore.Fields{
		"title": "Docs",
		"url":   "https://example.com",
	})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, "user-1", "links", id, docstore.Fields{
		"title": "Example Docs",
	}))

	doc, err := store.Get(ctx, "user-1", "links", id)
	require.NoError(t, err)
	assert.Equal(t, "Example Docs", doc.Fields["title"])
	assert.Equal(t, "https://example.com", doc.Fields["url"], "untouched fields survive")

	err = store.Update(ctx, "user-1", "links", "missing", docstore.Fields{"title": "x"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestIncrement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "user-1", "counters", docstore.Fields{
		"name":  "Push-ups",
		"count": 0,
	})
	require.NoError(t, err)

	// Concurrent bumps must all land.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, "user-1", "counters", id, docstore.Fields{
				"count": docstore.Increment(1),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.NoError(t, store.Update(ctx, "user-1", "counters", id, docstore.Fields{
		"count": docstore.Increment(-3),
	}))

	doc, err := store.Get(ctx, "user-1", "counters", id)
	require.NoError(t, err)
	assert.Equal(t, 7.0, doc.Fields["count"])
}

func TestBatchCommitIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		id, err := store.Create(ctx, "user-1", "lists", docstore.Fields{"name": name})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	t.Run("commit deletes everything", func(t *testing.T) {
		batch := store.Batch()
		for _, id := range ids[:2] {
			batch.Delete("user-1", "lists", id)
		}
		require.NoError(t, batch.Commit(ctx))

		docs, err := store.Query(ctx, "user-1", "lists", nil, nil)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "c", docs[0].Fields["name"])
	})

	t.Run("failed commit deletes nothing", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		batch := store.Batch()
		batch.Delete("user-1", "lists", ids[2])
		require.Error(t, batch.Commit(canceled))

		docs, err := store.Query(ctx, "user-1", "lists", nil, nil)
		require.NoError(t, err)
		assert.Len(t, docs, 1, "failed batch must not delete documents")
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, store.Batch().Commit(ctx))
	})
}

func TestSubscribe(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snapshots := make(chan docstore.Snapshot, 16)
	cancel, err := store.Subscribe("user-1", "prompts", nil, &docstore.Order{Field: "createdAt"}, func(snap docstore.Snapshot) {
		snapshots <- snap
	})
	require.NoError(t, err)
	defer cancel()

	waitFor := func(size int) docstore.Snapshot {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case snap := <-snapshots:
				if len(snap) == size {
					return snap
				}
			case <-deadline:
				t.Fatalf("timed out waiting for snapshot of size %d", size)
			}
		}
	}

	// Initial snapshot is empty.
	waitFor(0)

	id, err := store.Create(ctx, "user-1", "prompts", docstore.Fields{"title": "One"})
	require.NoError(t, err)
	snap := waitFor(1)
	assert.Equal(t, "One", snap[0].Fields["title"])

	// Writes to other collections or users do not wake the subscriber;
	// the next delivery must come from this collection.
	_, err = store.Create(ctx, "user-2", "prompts", docstore.Fields{"title": "Other"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "user-1", "links", docstore.Fields{"title": "Link"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "user-1", "prompts", id))
	waitFor(0)
}

func TestSubscribeCancel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var mu sync.Mutex
	deliveries := 0
	cancel, err := store.Subscribe("user-1", "prompts", nil, nil, func(docstore.Snapshot) {
		mu.Lock()
		deliveries++
		mu.Unlock()
	})
	require.NoError(t, err)

	cancel()
	cancel() // canceling twice is safe

	mu.Lock()
	after := deliveries
	mu.Unlock()

	_, err = store.Create(ctx, "user-1", "prompts", docstore.Fields{"title": "One"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, after, deliveries, "no deliveries after cancel")
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	user := models.NewUser("alice@example.com", "Alice", "hash")
	require.NoError(t, store.CreateUser(ctx, user))

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "Alice", byEmail.DisplayName)

	byID, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice@example.com", byID.Email)

	// Email addresses are unique.
	dup := models.NewUser("alice@example.com", "Alice Again", "hash")
	assert.Error(t, store.CreateUser(ctx, dup))
}
