package service

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/prasetyo/multitool/internal/docstore"
	"github.com/prasetyo/multitool/internal/lists"
	"github.com/prasetyo/multitool/internal/middleware"
)

// ListService manages a user's checklists and their items, delegating
// the multi-document deletions to the cascade protocol.
type ListService struct {
	store    docstore.Store
	protocol *lists.Protocol
}

// NewListService creates a new ListService with the given store.
func NewListService(store docstore.Store) *ListService {
	return &ListService{
		store:    store,
		protocol: lists.NewProtocol(store),
	}
}

// Routes registers the list and list-item endpoints.
func (s *ListService) Routes(r chi.Router) {
	r.Get("/lists", s.listLists)
	r.Post("/lists", s.createList)
	r.Delete("/lists/{id}", s.deleteList)
	r.Post("/lists/{id}/clear", s.clearList)
	r.Get("/lists/watch", watchCollection(s.store, lists.Collection, &docstore.Order{Field: "createdAt", Desc: true}))

	r.Get("/lists/{id}/items", s.listItems)
	r.Post("/lists/{id}/items", s.createItem)
	r.Delete("/lists/{id}/items/{itemId}", s.deleteItem)
}

func (s *ListService) listLists(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	all, err := s.protocol.Lists(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list lists", "user_id", userID, "error", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *ListService) createList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := s.store.Create(r.Context(), userID, lists.Collection, docstore.Fields{
		"name": req.Name,
	})
	if err != nil {
		slog.Error("failed to create list", "user_id", userID, "error", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// deleteList removes the list and all of its items in one atomic
// batch. The protocol resolves the target against the lists currently
// in the store, mirroring the UI resolving against its loaded set.
func (s *ListService) deleteList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	listID := chi.URLParam(r, "id")

	known, err := s.protocol.Lists(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	err = s.protocol.DeleteListCascade(r.Context(), userID, listID, known)
	if err != nil {
		if errors.Is(err, lists.ErrListNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("cascade delete failed", "user_id", userID, "list_id", listID, "error", err)
		writeStoreError(w, err)
		return
	}

	slog.Info("list deleted", "user_id", userID, "list_id", listID)
	writeJSON(w, http.StatusOK, map[string]string{"id": listID})
}

// clearList deletes every item in the list while keeping the list.
func (s *ListService) clearList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	listID := chi.URLParam(r, "id")

	if err := s.protocol.ClearItems(r.Context(), userID, listID); err != nil {
		slog.Error("clear list failed", "user_id", userID, "list_id", listID, "error", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": listID})
}

func (s *ListService) listItems(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	listID := chi.URLParam(r, "id")

	items, err := s.protocol.Items(r.Context(), userID, listID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *ListService) createItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	listID := chi.URLParam(r, "id")

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	id, err := s.store.Create(r.Context(), userID, lists.ItemCollection, docstore.Fields{
		"text":   req.Text,
		"listId": listID,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *ListService) deleteItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	itemID := chi.URLParam(r, "itemId")

	if err := s.store.Delete(r.Context(), userID, lists.ItemCollection, itemID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": itemID})
}
