package sqlite

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prasetyo/multitool/internal/docstore"
)

// subscriber is one live query. Each subscriber owns a goroutine that
// re-runs the query whenever its collection is touched and hands the
// full result set to fn. Snapshots are coalesced: a burst of writes
// may produce a single delivery with the final state.
type subscriber struct {
	userID     string
	collection string
	filters    []docstore.Filter
	order      *docstore.Order
	fn         func(docstore.Snapshot)

	trigger chan struct{} // capacity 1, latest-wins
	done    chan struct{}
	stopped chan struct{}
}

// subscriptions tracks the live queries registered on a store.
type subscriptions struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscriber
}

func newSubscriptions() *subscriptions {
	return &subscriptions{subs: make(map[int]*subscriber)}
}

// Subscribe registers a live query against the store.
// The callback receives an initial snapshot shortly after registration
// and a fresh one after every mutation touching the collection.
func (s *Store) Subscribe(userID, collection string, filters []docstore.Filter, order *docstore.Order, fn func(docstore.Snapshot)) (func(), error) {
	// Validate field names up front so a bad subscription fails fast
	// instead of erroring on every delivery.
	for _, f := range filters {
		if _, err := fieldExpr(f.Field); err != nil {
			return nil, err
		}
	}
	if order != nil {
		if _, err := fieldExpr(order.Field); err != nil {
			return nil, err
		}
	}

	sub := &subscriber{
		userID:     userID,
		collection: collection,
		filters:    filters,
		order:      order,
		fn:         fn,
		trigger:    make(chan struct{}, 1),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	sub.trigger <- struct{}{} // initial snapshot

	s.subs.mu.Lock()
	id := s.subs.next
	s.subs.next++
	s.subs.subs[id] = sub
	s.subs.mu.Unlock()

	go s.runSubscriber(sub)

	cancel := func() {
		s.subs.mu.Lock()
		_, active := s.subs.subs[id]
		delete(s.subs.subs, id)
		s.subs.mu.Unlock()
		if !active {
			return
		}
		close(sub.done)
		<-sub.stopped // fn is never called after cancel returns
	}
	return cancel, nil
}

// runSubscriber delivers snapshots until the subscription is canceled.
func (s *Store) runSubscriber(sub *subscriber) {
	defer close(sub.stopped)
	for {
		select {
		case <-sub.done:
			return
		case <-sub.trigger:
			docs, err := s.Query(context.Background(), sub.userID, sub.collection, sub.filters, sub.order)
			if err != nil {
				slog.Warn("live query failed", "collection", sub.collection, "error", err)
				continue
			}
			sub.fn(docs)
		}
	}
}

// notify wakes every subscriber watching the given collection.
func (subs *subscriptions) notify(s *Store, userID, collection string) {
	key := collectionKey(userID, collection)

	subs.mu.Lock()
	defer subs.mu.Unlock()
	for _, sub := range subs.subs {
		if collectionKey(sub.userID, sub.collection) != key {
			continue
		}
		select {
		case sub.trigger <- struct{}{}:
		default: // a refresh is already pending
		}
	}
}

// closeAll cancels every live subscription; used on store close.
func (subs *subscriptions) closeAll() {
	subs.mu.Lock()
	active := make([]*subscriber, 0, len(subs.subs))
	for id, sub := range subs.subs {
		active = append(active, sub)
		delete(subs.subs, id)
	}
	subs.mu.Unlock()

	for _, sub := range active {
		close(sub.done)
		<-sub.stopped
	}
}
