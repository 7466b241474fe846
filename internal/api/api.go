// Package api serves a store.Store as the hosted document-store JSON API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"todolist/internal/models"
	"todolist/internal/store"
)

// API holds the document-store handlers and their dependencies.
type API struct {
	store  store.Store
	logger *zap.Logger
}

// New creates a new API over the given backend.
func New(s store.Store, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{store: s, logger: logger.Named("api")}
}

// Routes registers the collection routes on r.
func (a *API) Routes(r chi.Router) {
	r.Route("/v1/"+store.Collection, func(r chi.Router) {
		r.Get("/", a.List)
		r.Post("/", a.Create)
		r.Patch("/{id}", a.Update)
		r.Delete("/{id}", a.Delete)
	})
}

// List handles GET /v1/todos.
func (a *API) List(w http.ResponseWriter, r *http.Request) {
	todos, err := a.store.List(r.Context())
	if err != nil {
		a.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, todos)
}

// Create handles POST /v1/todos.
func (a *API) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		respondError(w, http.StatusBadRequest, store.ErrEmptyText.Error())
		return
	}

	todo, err := a.store.Create(r.Context(), payload.Text)
	if err != nil {
		a.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, todo)
}

// Update handles PATCH /v1/todos/{id}.
func (a *API) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := patch.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, store.ErrEmptyText.Error())
		return
	}

	if err := a.store.Update(r.Context(), id, patch); err != nil {
		a.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /v1/todos/{id}.
func (a *API) Delete(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, store.ErrNotFound.Error())
	case errors.Is(err, store.ErrEmptyText):
		respondError(w, http.StatusBadRequest, store.ErrEmptyText.Error())
	default:
		a.logger.Error("store call failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}
