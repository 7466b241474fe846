package handlers

import (
	"net/http"

	"todolist/internal/models"
	"todolist/internal/state"
)

// AppData holds data for the todo app template.
type AppData struct {
	Title string
	State state.Snapshot
	Items []ItemData
	// Draft is echoed back into the add input, e.g. after a failed add.
	Draft   string
	Done    int
	Pending int
}

// ItemData holds data for a single todo item template.
type ItemData struct {
	Todo     models.Todo
	Editing  bool
	Updating bool
	Deleting bool
}

func newAppData(snap state.Snapshot, editing string) AppData {
	items := make([]ItemData, 0, len(snap.Todos))
	for _, todo := range snap.Todos {
		items = append(items, ItemData{
			Todo:     todo,
			Editing:  todo.ID == editing,
			Updating: todo.ID == snap.Updating,
			Deleting: todo.ID == snap.Deleting,
		})
	}
	done, pending := models.Counts(snap.Todos)

	return AppData{
		Title:   "Todo List",
		State:   snap,
		Items:   items,
		Done:    done,
		Pending: pending,
	}
}

// Home renders the full page. The first request triggers the initial load;
// requests arriving while it runs wait for it.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.holder.EnsureLoaded(r.Context())
	h.render(w, "index.html", newAppData(h.holder.Snapshot(), ""))
}

// ListTodos renders the app partial. It only calls the store when the
// first load has not run yet, and otherwise waits for it to finish.
func (h *Handlers) ListTodos(w http.ResponseWriter, r *http.Request) {
	h.holder.EnsureLoaded(r.Context())
	h.renderPartial(w, newAppData(h.holder.Snapshot(), ""))
}

// Refresh reloads the list from the store.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	h.holder.Load(r.Context())
	h.renderPartial(w, newAppData(h.holder.Snapshot(), ""))
}

// ClearError dismisses the error banner.
func (h *Handlers) ClearError(w http.ResponseWriter, r *http.Request) {
	h.holder.ClearError()
	h.renderPartial(w, newAppData(h.holder.Snapshot(), ""))
}
