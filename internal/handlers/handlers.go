package handlers

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"todolist/internal/state"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	holder    *state.Holder
	templates *template.Template
	logger    *zap.Logger
}

// New creates a new Handlers instance.
func New(holder *state.Holder, tmpl *template.Template, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		holder:    holder,
		templates: tmpl,
		logger:    logger.Named("handlers"),
	}
}

// Routes registers the web UI routes on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Post("/refresh", h.Refresh)
	r.Post("/error/clear", h.ClearError)

	r.Get("/todos", h.ListTodos)
	r.Post("/todos", h.CreateTodo)
	r.Get("/todos/{id}/edit", h.EditTodo)
	r.Get("/todos/{id}", h.ShowTodo)
	r.Put("/todos/{id}", h.UpdateTodo)
	r.Post("/todos/{id}/toggle", h.ToggleTodo)
	r.Delete("/todos/{id}", h.DeleteTodo)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(code)
	w.Write([]byte(message))
}

func (h *Handlers) respondServerError(w http.ResponseWriter, err error) {
	h.logger.Error("internal server error", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal server error")
}

func (h *Handlers) render(w http.ResponseWriter, name string, data interface{}) {
	if h.templates == nil {
		// For testing without templates
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.respondServerError(w, err)
	}
}

// renderPartial renders the #app partial (for htmx responses).
func (h *Handlers) renderPartial(w http.ResponseWriter, data AppData) {
	h.render(w, "todo_app.html", data)
}
