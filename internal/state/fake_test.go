package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"todolist/internal/models"
	"todolist/internal/store"
)

var errBackend = errors.New("backend unavailable")

// fakeBackend is an in-memory store.Store with failure injection and call
// counting. Tests wrap it in a store.Adapter so errors take the real shape.
type fakeBackend struct {
	mu    sync.Mutex
	todos []models.Todo
	seq   int
	clock time.Time
	calls map[store.Op]int

	fail map[store.Op]error
	// gate, when set for an id, blocks Update on that id until closed.
	gate    map[string]chan struct{}
	entered chan string
	// listGate, when set, blocks the next List until closed; listEntered
	// is closed once that List has started.
	listGate    chan struct{}
	listEntered chan struct{}
}

func newFakeBackend(seed ...models.Todo) *fakeBackend {
	return &fakeBackend{
		todos: append([]models.Todo{}, seed...),
		seq:   len(seed),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		calls: make(map[store.Op]int),
		fail:  make(map[store.Op]error),
		gate:  make(map[string]chan struct{}),
	}
}

func (f *fakeBackend) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeBackend) count(op store.Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) setFail(op store.Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeBackend) Create(ctx context.Context, text string) (models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[store.OpCreate]++
	if err := f.fail[store.OpCreate]; err != nil {
		return models.Todo{}, err
	}
	f.seq++
	now := f.tick()
	todo := models.Todo{ID: fmt.Sprint(f.seq), Text: text, CreatedAt: now, UpdatedAt: now}
	f.todos = append([]models.Todo{todo}, f.todos...)
	return todo, nil
}

func (f *fakeBackend) List(ctx context.Context) ([]models.Todo, error) {
	f.mu.Lock()
	f.calls[store.OpList]++
	gate, entered := f.listGate, f.listEntered
	f.listGate, f.listEntered = nil, nil
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[store.OpList]; err != nil {
		return nil, err
	}
	return append([]models.Todo{}, f.todos...), nil
}

func (f *fakeBackend) Update(ctx context.Context, id string, patch models.Patch) error {
	f.mu.Lock()
	f.calls[store.OpUpdate]++
	gate := f.gate[id]
	entered := f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- id
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[store.OpUpdate]; err != nil {
		return err
	}
	for i := range f.todos {
		if f.todos[i].ID == id {
			f.todos[i].Apply(patch, f.tick())
			return nil
		}
	}
	return fmt.Errorf("%w: %s", store.ErrNotFound, id)
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[store.OpDelete]++
	if err := f.fail[store.OpDelete]; err != nil {
		return err
	}
	todos := f.todos[:0]
	for _, t := range f.todos {
		if t.ID != id {
			todos = append(todos, t)
		}
	}
	f.todos = todos
	return nil
}

func ids(todos []models.Todo) []string {
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.ID)
	}
	return out
}
