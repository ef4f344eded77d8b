// Package service exposes the per-user tools over a JSON HTTP API.
// Each service owns one resource collection, takes its collaborators
// at construction time, and registers its routes on a chi router.
package service

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prasetyo/multitool/internal/docstore"
)

// Response is the standard JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// writeStoreError maps store failures onto HTTP statuses and writes
// the response. Failures are surfaced as-is; nothing is retried.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// decodeJSON parses the request body into v, rejecting unknown noise
// with a generic message so malformed payloads do not leak internals.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
