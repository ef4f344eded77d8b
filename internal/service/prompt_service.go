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

// promptCollection is the document store collection for prompts.
const promptCollection = "prompts"

// PromptService manages a user's text prompts.
type PromptService struct {
	store docstore.Store
}

// NewPromptService creates a new PromptService with the given store.
func NewPromptService(store docstore.Store) *PromptService {
	return &PromptService{store: store}
}

// Routes registers the prompt endpoints.
func (s *PromptService) Routes(r chi.Router) {
	r.Get("/prompts", s.list)
	r.Post("/prompts", s.create)
	r.Put("/prompts/{id}", s.update)
	r.Delete("/prompts/{id}", s.delete)
	r.Get("/prompts/watch", watchCollection(s.store, promptCollection, &docstore.Order{Field: "createdAt", Desc: true}))
}

type promptRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (s *PromptService) list(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	docs, err := s.store.Query(r.Context(), userID, promptCollection, nil, &docstore.Order{Field: "createdAt", Desc: true})
	if err != nil {
		slog.Error("failed to list prompts", "user_id", userID, "error", err)
		writeStoreError(w, err)
		return
	}

	prompts := make([]models.Prompt, 0, len(docs))
	for _, doc := range docs {
		var p models.Prompt
		if err := doc.Decode(&p); err != nil {
			writeStoreError(w, err)
			return
		}
		p.ID = doc.ID
		p.CreatedAt = doc.CreatedAt
		prompts = append(prompts, p)
	}
	writeJSON(w, http.StatusOK, prompts)
}

func (s *PromptService) create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req promptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "title and text are required")
		return
	}

	id, err := s.store.Create(r.Context(), userID, promptCollection, docstore.Fields{
		"title": req.Title,
		"text":  req.Text,
	})
	if err != nil {
		slog.Error("failed to create prompt", "user_id", userID, "error", err)
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *PromptService) update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	var req promptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "title and text are required")
		return
	}

	err := s.store.Update(r.Context(), userID, promptCollection, id, docstore.Fields{
		"title": req.Title,
		"text":  req.Text,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *PromptService) delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(r.Context(), userID, promptCollection, id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}
