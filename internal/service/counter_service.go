package service

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/prasetyo/multitool/internal/docstore"
	"github.com/prasetyo/multitool/internal/middleware"
	"github.com/prasetyo/multitool/internal/models"
)

const (
	counterCollection  = "counters"
	categoryCollection = "categories"
)

// CounterService manages a user's tally counters and their categories.
type CounterService struct {
	store docstore.Store
}

// NewCounterService creates a new CounterService with the given store.
func NewCounterService(store docstore.Store) *CounterService {
	return &CounterService{store: store}
}

// Routes registers the counter and category endpoints.
func (s *CounterService) Routes(r chi.Router) {
	r.Get("/counters", s.listCounters)
	r.Post("/counters", s.createCounter)
	r.Post("/counters/{id}/increment", s.increment)
	r.Delete("/counters/{id}", s.deleteCounter)
	r.Get("/counters/watch", watchCollection(s.store, counterCollection, &docstore.Order{Field: "name"}))

	r.Get("/categories", s.listCategories)
	r.Post("/categories", s.createCategory)
	r.Delete("/categories/{id}", s.deleteCategory)
}

type counterRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
}

type incrementRequest struct {
	// Delta is the amount to add; negative values decrement.
	// Zero-valued requests default to +1.
	Delta float64 `json:"delta"`
}

func (s *CounterService) listCounters(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	// Optional category filter, matching the UI's dropdown.
	var filters []docstore.Filter
	if cat := r.URL.Query().Get("categoryId"); cat != "" {
		filters = append(filters, docstore.Filter{Field: "categoryId", Value: cat})
	}

	docs, err := s.store.Query(r.Context(), userID, counterCollection, filters, &docstore.Order{Field: "name"})
	if err != nil {
		slog.Error("failed to list counters", "user_id", userID, "error", err)
		writeStoreError(w, err)
		return
	}

	counters := make([]models.Counter, 0, len(docs))
	for _, doc := range docs {
		var c models.Counter
		if err := doc.Decode(&c); err != nil {
			writeStoreError(w, err)
			return
		}
		c.ID = doc.ID
		counters = append(counters, c)
	}
	writeJSON(w, http.StatusOK, counters)
}

func (s *CounterService) createCounter(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req counterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := s.store.Create(r.Context(), userID, counterCollection, docstore.Fields{
		"name":       req.Name,
		"count":      0,
		"categoryId": req.CategoryID,
	})
	if err != nil {
		slog.Error("failed to create counter", "user_id", userID, "error", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// increment bumps a counter through the store's atomic increment, so
// two concurrent bumps both land instead of one overwriting the other.
func (s *CounterService) increment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	req := incrementRequest{}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Delta == 0 {
		req.Delta = 1
	}

	err := s.store.Update(r.Context(), userID, counterCollection, id, docstore.Fields{
		"count": docstore.Increment(req.Delta),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *CounterService) deleteCounter(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(r.Context(), userID, counterCollection, id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *CounterService) listCategories(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	docs, err := s.store.Query(r.Context(), userID, categoryCollection, nil, &docstore.Order{Field: "name"})
	if err != nil {
		slog.Error("failed to list categories", "user_id", userID, "error", err)
		writeStoreError(w, err)
		return
	}

	categories := make([]models.Category, 0, len(docs))
	for _, doc := range docs {
		var c models.Category
		if err := doc.Decode(&c); err != nil {
			writeStoreError(w, err)
			return
		}
		c.ID = doc.ID
		categories = append(categories, c)
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *CounterService) createCategory(w http.ResponseWriter, r *http.Request) {
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

	id, err := s.store.Create(r.Context(), userID, categoryCollection, docstore.Fields{
		"name": req.Name,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// deleteCategory removes only the category document. Counters keep
// their categoryId; the UI shows them as uncategorized.
func (s *CounterService) deleteCategory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(r.Context(), userID, categoryCollection, id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}
