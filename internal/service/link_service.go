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

// linkCollection is the document store collection for bookmarks.
const linkCollection = "links"

// LinkService manages a user's saved bookmarks.
type LinkService struct {
	store docstore.Store
}

// NewLinkService creates a new LinkService with the given store.
func NewLinkService(store docstore.Store) *LinkService {
	return &LinkService{store: store}
}

// Routes registers the bookmark endpoints.
func (s *LinkService) Routes(r chi.Router) {
	r.Get("/links", s.list)
	r.Post("/links", s.create)
	r.Put("/links/{id}", s.update)
	r.Delete("/links/{id}", s.delete)
	r.Get("/links/watch", watchCollection(s.store, linkCollection, &docstore.Order{Field: "createdAt", Desc: true}))
}

// NormalizeURL prefixes bare host URLs with https:// so stored links
// are always absolute. Already-schemed URLs pass through untouched.
func NormalizeURL(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

type linkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (s *LinkService) list(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	docs, err := s.store.Query(r.Context(), userID, linkCollection, nil, &docstore.Order{Field: "createdAt", Desc: true})
	if err != nil {
		slog.Error("failed to list links", "user_id", userID, "error", err)
		writeStoreError(w, err)
		return
	}

	links := make([]models.Link, 0, len(docs))
	for _, doc := range docs {
		var l models.Link
		if err := doc.Decode(&l); err != nil {
			writeStoreError(w, err)
			return
		}
		l.ID = doc.ID
		l.CreatedAt = doc.CreatedAt
		links = append(links, l)
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *LinkService) create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req linkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "title and url are required")
		return
	}

	id, err := s.store.Create(r.Context(), userID, linkCollection, docstore.Fields{
		"title": req.Title,
		"url":   NormalizeURL(req.URL),
	})
	if err != nil {
		slog.Error("failed to create link", "user_id", userID, "error", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *LinkService) update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	var req linkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "title and url are required")
		return
	}

	err := s.store.Update(r.Context(), userID, linkCollection, id, docstore.Fields{
		"title": req.Title,
		"url":   NormalizeURL(req.URL),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *LinkService) delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(r.Context(), userID, linkCollection, id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}
