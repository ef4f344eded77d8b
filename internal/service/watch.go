package service

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prasetyo/multitool/internal/docstore"
	"github.com/prasetyo/multitool/internal/middleware"
)

// watchCollection returns a handler streaming live snapshots of one
// collection as server-sent events. Every event carries the full
// current result set; consumers replace their state wholesale instead
// of patching diffs. The stream never restarts on its own: when the
// client goes away the subscription is torn down and a new request
// starts a fresh one.
func watchCollection(store docstore.Store, collection string, order *docstore.Order) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		// Latest-wins buffer: if the client reads slower than writes
		// arrive, intermediate snapshots are dropped.
		snapshots := make(chan docstore.Snapshot, 1)
		cancel, err := store.Subscribe(userID, collection, nil, order, func(snap docstore.Snapshot) {
			select {
			case snapshots <- snap:
			default:
				select {
				case <-snapshots:
				default:
				}
				snapshots <- snap
			}
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case snap := <-snapshots:
				payload, err := json.Marshal(snapshotBody(snap))
				if err != nil {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}

// snapshotBody flattens documents for the wire: payload fields plus
// the store-assigned id and creation time.
func snapshotBody(snap docstore.Snapshot) []map[string]any {
	out := make([]map[string]any, 0, len(snap))
	for _, doc := range snap {
		entry := make(map[string]any, len(doc.Fields)+2)
		for k, v := range doc.Fields {
			entry[k] = v
		}
		entry["id"] = doc.ID
		entry["createdAt"] = doc.CreatedAt
		out = append(out, entry)
	}
	return out
}
