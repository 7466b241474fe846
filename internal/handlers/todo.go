package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"todolist/internal/models"
)

// CreateTodo adds a new todo. On failure the typed text is kept in the
// input so the user can retry.
func (h *Handlers) CreateTodo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	text := r.FormValue("text")
	draft := ""
	if _, err := h.holder.Add(r.Context(), text); err != nil {
		h.logger.Debug("add failed", zap.Error(err))
		draft = text
	}

	data := newAppData(h.holder.Snapshot(), "")
	data.Draft = draft
	h.renderPartial(w, data)
}

// EditTodo renders the app with the given todo in edit mode.
func (h *Handlers) EditTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snap := h.holder.Snapshot()
	if _, ok := findTodo(snap.Todos, id); !ok {
		respondError(w, http.StatusNotFound, "todo not found")
		return
	}

	h.renderPartial(w, newAppData(snap, id))
}

// ShowTodo closes the editor for a todo without saving.
func (h *Handlers) ShowTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snap := h.holder.Snapshot()
	if _, ok := findTodo(snap.Todos, id); !ok {
		respondError(w, http.StatusNotFound, "todo not found")
		return
	}

	h.renderPartial(w, newAppData(snap, ""))
}

// UpdateTodo saves an edit. Blank or unchanged text is not sent to the
// store; the editor closes and the previous text stays.
func (h *Handlers) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	current, ok := findTodo(h.holder.Snapshot().Todos, id)
	if !ok {
		respondError(w, http.StatusNotFound, "todo not found")
		return
	}

	text := strings.TrimSpace(r.FormValue("text"))
	if text != "" && text != current.Text {
		if err := h.holder.UpdateText(r.Context(), id, text); err != nil {
			h.logger.Debug("update failed", zap.String("id", id), zap.Error(err))
		}
	}

	h.renderPartial(w, newAppData(h.holder.Snapshot(), ""))
}

// ToggleTodo flips the completion status of a todo.
func (h *Handlers) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.holder.ToggleComplete(r.Context(), id); err != nil {
		h.logger.Debug("toggle failed", zap.String("id", id), zap.Error(err))
	}

	h.renderPartial(w, newAppData(h.holder.Snapshot(), ""))
}

// DeleteTodo deletes a todo.
func (h *Handlers) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.holder.Remove(r.Context(), id); err != nil {
		h.logger.Debug("delete failed", zap.String("id", id), zap.Error(err))
	}

	h.renderPartial(w, newAppData(h.holder.Snapshot(), ""))
}

func findTodo(todos []models.Todo, id string) (models.Todo, bool) {
	for _, t := range todos {
		if t.ID == id {
			return t, true
		}
	}
	return models.Todo{}, false
}
