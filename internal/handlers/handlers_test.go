package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"todolist/internal/models"
	"todolist/internal/state"
	"todolist/internal/store"
	"todolist/web"
)

// countingStore wraps a real store, counts calls and can be told to fail.
type countingStore struct {
	store.Store
	creates, updates, deletes int
	failDelete                bool
}

func (s *countingStore) Create(ctx context.Context, text string) (models.Todo, error) {
	s.creates++
	return s.Store.Create(ctx, text)
}

func (s *countingStore) Update(ctx context.Context, id string, patch models.Patch) error {
	s.updates++
	return s.Store.Update(ctx, id, patch)
}

func (s *countingStore) Delete(ctx context.Context, id string) error {
	s.deletes++
	if s.failDelete {
		return errors.New("connection reset")
	}
	return s.Store.Delete(ctx, id)
}

// gatedStore blocks its first List until release is closed.
type gatedStore struct {
	store.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) List(ctx context.Context) ([]models.Todo, error) {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.Store.List(ctx)
}

func setupTestHandlers(t *testing.T) (*Handlers, *countingStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	tmpl, err := web.ParseTemplates()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	cs := &countingStore{Store: s}
	holder := state.New(store.NewAdapter(cs, nil))
	holder.Load(context.Background())

	return New(holder, tmpl, nil), cs
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func addTodo(t *testing.T, h *Handlers, text string) models.Todo {
	t.Helper()
	todo, err := h.holder.Add(context.Background(), text)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return *todo
}

func TestHomeHandler_RendersEmptyState(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	h.Home(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "No tasks yet! Add some above.") {
		t.Errorf("expected empty state message, got: %s", body)
	}
	if !strings.Contains(body, "<title>Todo List</title>") {
		t.Errorf("expected page title, got: %s", body)
	}
}

func TestHomeHandler_TriggersInitialLoad(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.Create(context.Background(), "Preexisting"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tmpl, err := web.ParseTemplates()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}
	h := New(state.New(store.NewAdapter(s, nil)), tmpl, nil)

	rec := httptest.NewRecorder()
	h.Home(rec, httptest.NewRequest("GET", "/", nil))

	if !strings.Contains(rec.Body.String(), "Preexisting") {
		t.Errorf("expected loaded todo in page, got: %s", rec.Body.String())
	}
}

func TestHomeHandler_OverlappingFirstLoads(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.Create(context.Background(), "Preexisting"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tmpl, err := web.ParseTemplates()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}
	gs := &gatedStore{Store: s, entered: make(chan struct{}), release: make(chan struct{})}
	h := New(state.New(store.NewAdapter(gs, nil)), tmpl, nil)

	serve := func() chan *httptest.ResponseRecorder {
		done := make(chan *httptest.ResponseRecorder, 1)
		go func() {
			rec := httptest.NewRecorder()
			h.Home(rec, httptest.NewRequest("GET", "/", nil))
			done <- rec
		}()
		return done
	}

	first := serve()
	<-gs.entered
	second := serve()

	select {
	case <-second:
		t.Fatal("second page rendered before the first load finished")
	case <-time.After(50 * time.Millisecond):
	}
	close(gs.release)

	for i, done := range []chan *httptest.ResponseRecorder{first, second} {
		body := (<-done).Body.String()
		if strings.Contains(body, "Loading...") {
			t.Errorf("page %d still shows the loading indicator", i+1)
		}
		if !strings.Contains(body, "Preexisting") {
			t.Errorf("page %d is missing the loaded todo", i+1)
		}
	}
}

func TestListTodosHandler_LoadingStatePolls(t *testing.T) {
	tmpl, err := web.ParseTemplates()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	var buf strings.Builder
	data := newAppData(state.Snapshot{Loading: true}, "")
	if err := tmpl.ExecuteTemplate(&buf, "todo_app.html", data); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(buf.String(), `hx-trigger="load delay:500ms"`) {
		t.Errorf("expected loading indicator to poll /todos, got: %s", buf.String())
	}
}

func TestCreateTodoHandler_PrependsNewTodo(t *testing.T) {
	h, _ := setupTestHandlers(t)
	addTodo(t, h, "First")

	form := url.Values{}
	form.Set("text", "  Second  ")
	rec := httptest.NewRecorder()

	h.CreateTodo(rec, formRequest("POST", "/todos", form))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	todos := h.holder.Snapshot().Todos
	if len(todos) != 2 || todos[0].Text != "Second" {
		t.Fatalf("expected trimmed new todo first, got %+v", todos)
	}

	body := rec.Body.String()
	if strings.Index(body, "Second") > strings.Index(body, "First") {
		t.Errorf("expected Second to render before First")
	}
	if !strings.Contains(body, "0 done &middot; 2 pending") {
		t.Errorf("expected stats line, got: %s", body)
	}
}

func TestCreateTodoHandler_BlankTextSkipsStore(t *testing.T) {
	h, cs := setupTestHandlers(t)

	form := url.Values{}
	form.Set("text", "   ")
	rec := httptest.NewRecorder()

	h.CreateTodo(rec, formRequest("POST", "/todos", form))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if cs.creates != 0 {
		t.Errorf("expected no store call, got %d", cs.creates)
	}
}

func TestEditTodoHandler_RendersEditor(t *testing.T) {
	h, _ := setupTestHandlers(t)
	todo := addTodo(t, h, "Buy milk")

	rec := httptest.NewRecorder()
	h.EditTodo(rec, withID(httptest.NewRequest("GET", "/todos/"+todo.ID+"/edit", nil), todo.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `hx-put="/todos/`+todo.ID+`"`) {
		t.Errorf("expected edit form, got: %s", body)
	}
	if !strings.Contains(body, `hx-trigger="submit, focusout[!this.dataset.cancelled]"`) {
		t.Errorf("expected editor to save on blur, got: %s", body)
	}
	if !strings.Contains(body, `hx-get="/todos/`+todo.ID+`" hx-trigger="keyup[key=='Escape']"`) {
		t.Errorf("expected Escape to cancel the edit, got: %s", body)
	}
}

func TestEditTodoHandler_UnknownID(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := httptest.NewRecorder()
	h.EditTodo(rec, withID(httptest.NewRequest("GET", "/todos/nope/edit", nil), "nope"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestShowTodoHandler_ClosesEditor(t *testing.T) {
	h, _ := setupTestHandlers(t)
	todo := addTodo(t, h, "Buy milk")

	rec := httptest.NewRecorder()
	h.ShowTodo(rec, withID(httptest.NewRequest("GET", "/todos/"+todo.ID, nil), todo.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hx-put=") {
		t.Errorf("expected no edit form, got: %s", rec.Body.String())
	}
}

func TestUpdateTodoHandler_Success(t *testing.T) {
	h, cs := setupTestHandlers(t)
	todo := addTodo(t, h, "Original")

	form := url.Values{}
	form.Set("text", "Updated")
	rec := httptest.NewRecorder()

	h.UpdateTodo(rec, withID(formRequest("PUT", "/todos/"+todo.ID, form), todo.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if cs.updates != 1 {
		t.Errorf("expected 1 store update, got %d", cs.updates)
	}
	if got := h.holder.Snapshot().Todos[0].Text; got != "Updated" {
		t.Errorf("expected text Updated, got %q", got)
	}
}

func TestUpdateTodoHandler_SkipsBlankAndUnchangedText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"blank", "   "},
		{"unchanged", "Original"},
		{"unchanged after trim", "  Original "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, cs := setupTestHandlers(t)
			todo := addTodo(t, h, "Original")

			form := url.Values{}
			form.Set("text", tt.text)
			rec := httptest.NewRecorder()

			h.UpdateTodo(rec, withID(formRequest("PUT", "/todos/"+todo.ID, form), todo.ID))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
			}
			if cs.updates != 0 {
				t.Errorf("expected no store update, got %d", cs.updates)
			}
			if got := h.holder.Snapshot().Todos[0].Text; got != "Original" {
				t.Errorf("expected text to stay Original, got %q", got)
			}
		})
	}
}

func TestToggleTodoHandler_Success(t *testing.T) {
	h, _ := setupTestHandlers(t)
	todo := addTodo(t, h, "Walk dog")

	rec := httptest.NewRecorder()
	h.ToggleTodo(rec, withID(httptest.NewRequest("POST", "/todos/"+todo.ID+"/toggle", nil), todo.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !h.holder.Snapshot().Todos[0].Completed {
		t.Fatal("expected todo to be completed")
	}
	if !strings.Contains(rec.Body.String(), "1 done &middot; 0 pending") {
		t.Errorf("expected updated stats, got: %s", rec.Body.String())
	}
}

func TestDeleteTodoHandler_Success(t *testing.T) {
	h, _ := setupTestHandlers(t)
	todo := addTodo(t, h, "Temporary")

	rec := httptest.NewRecorder()
	h.DeleteTodo(rec, withID(httptest.NewRequest("DELETE", "/todos/"+todo.ID, nil), todo.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if n := len(h.holder.Snapshot().Todos); n != 0 {
		t.Errorf("expected empty list, got %d todos", n)
	}
}

func TestDeleteTodoHandler_FailureShowsBanner(t *testing.T) {
	h, cs := setupTestHandlers(t)
	todo := addTodo(t, h, "Sticky")
	cs.failDelete = true

	rec := httptest.NewRecorder()
	h.DeleteTodo(rec, withID(httptest.NewRequest("DELETE", "/todos/"+todo.ID, nil), todo.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "failed to delete todo") {
		t.Errorf("expected error banner, got: %s", body)
	}
	if strings.Contains(body, "connection reset") {
		t.Errorf("expected cause to stay hidden, got: %s", body)
	}
	if !strings.Contains(body, "Sticky") {
		t.Errorf("expected todo to remain listed, got: %s", body)
	}

	rec = httptest.NewRecorder()
	h.ClearError(rec, httptest.NewRequest("POST", "/error/clear", nil))

	if strings.Contains(rec.Body.String(), `role="alert"`) {
		t.Errorf("expected banner to be dismissed, got: %s", rec.Body.String())
	}
}

func TestRefreshHandler_ReloadsFromStore(t *testing.T) {
	h, cs := setupTestHandlers(t)

	if _, err := cs.Store.Create(context.Background(), "Added elsewhere"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest("POST", "/refresh", nil))

	if !strings.Contains(rec.Body.String(), "Added elsewhere") {
		t.Errorf("expected refreshed list, got: %s", rec.Body.String())
	}
}

func TestRoutes_DispatchThroughRouter(t *testing.T) {
	h, _ := setupTestHandlers(t)
	todo := addTodo(t, h, "Routed")

	r := chi.NewRouter()
	h.Routes(r)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/", http.StatusOK},
		{"GET", "/todos", http.StatusOK},
		{"GET", "/todos/" + todo.ID + "/edit", http.StatusOK},
		{"GET", "/todos/" + todo.ID, http.StatusOK},
		{"POST", "/todos/" + todo.ID + "/toggle", http.StatusOK},
		{"POST", "/error/clear", http.StatusOK},
		{"GET", "/todos/missing/edit", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.want, rec.Code)
		}
	}
}
