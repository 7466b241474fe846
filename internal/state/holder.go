// Package state holds the client-side view of the todo list: the records,
// the busy flags of in-flight store calls and the last error message.
//
// Every action follows the same shape: raise a busy flag, call the store,
// reconcile the local list or record the error, lower the flag. Store calls
// run outside the holder's lock, so overlapping actions are not serialized;
// the last reconciliation to land wins.
package state

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"todolist/internal/models"
)

// Remote is the store the holder synchronizes with.
type Remote interface {
	Create(ctx context.Context, text string) (models.Todo, error)
	List(ctx context.Context) ([]models.Todo, error)
	Update(ctx context.Context, id string, patch models.Patch) error
	Delete(ctx context.Context, id string) error
}

// Snapshot is a copy of the holder's externally visible state.
type Snapshot struct {
	Todos   []models.Todo
	Loading bool
	Adding  bool
	// Updating and Deleting hold the id of the todo with an outstanding
	// call, or "" when idle. Only one id fits in each slot.
	Updating string
	Deleting string
	Error    string
}

// Holder is the single source of truth for the list shown to a
// presentation layer.
type Holder struct {
	remote Remote
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	started  bool
	todos    []models.Todo
	loading  bool
	adding   bool
	updating string
	deleting string
	errMsg   string

	// loaded is closed when the first Load finishes.
	loaded    chan struct{}
	firstLoad sync.Once

	nextSub int
	subs    map[int]func(Snapshot)

	// version counts state changes. notifyMu serializes delivery so that
	// subscribers never see a snapshot older than one already delivered.
	version   uint64
	notifyMu  sync.Mutex
	delivered uint64
}

// Option configures a Holder.
type Option func(*Holder)

// WithLogger sets the logger used for action tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Holder) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock sets the clock used to stamp local UpdatedAt patches.
func WithClock(now func() time.Time) Option {
	return func(h *Holder) {
		if now != nil {
			h.now = now
		}
	}
}

// New returns a holder for the given remote. The holder reports Loading
// until its first load completes.
func New(remote Remote, opts ...Option) *Holder {
	h := &Holder{
		remote:  remote,
		logger:  zap.NewNop(),
		now:     time.Now,
		todos:   []models.Todo{},
		loading: true,
		loaded:  make(chan struct{}),
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("state")
	return h
}

// Snapshot returns a copy of the current state.
func (h *Holder) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Holder) snapshotLocked() Snapshot {
	todos := make([]models.Todo, len(h.todos))
	copy(todos, h.todos)
	return Snapshot{
		Todos:    todos,
		Loading:  h.loading,
		Adding:   h.adding,
		Updating: h.updating,
		Deleting: h.deleting,
		Error:    h.errMsg,
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change, outside the holder's lock.
// Deliveries are serialized and in order: when overlapping actions race, a
// snapshot superseded by one already delivered is skipped. fn must not call
// holder actions itself. The returned function removes the subscription.
func (h *Holder) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// mutate applies fn under the lock and then notifies subscribers.
func (h *Holder) mutate(fn func()) {
	h.mu.Lock()
	fn()
	h.version++
	version := h.version
	snap := h.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()
	if version <= h.delivered {
		return
	}
	h.delivered = version
	for _, s := range subs {
		s(snap)
	}
}

// EnsureLoaded runs Load the first time it is called. Later callers wait
// until that first load has finished or ctx is done.
func (h *Holder) EnsureLoaded(ctx context.Context) {
	h.mu.Lock()
	first := !h.started
	h.started = true
	h.mu.Unlock()

	if first {
		h.Load(ctx)
		return
	}

	select {
	case <-h.loaded:
	case <-ctx.Done():
	}
}

// Load replaces the local list with the store's. A failure is recorded in
// the error slot and not returned.
func (h *Holder) Load(ctx context.Context) {
	defer h.firstLoad.Do(func() { close(h.loaded) })

	h.mutate(func() {
		h.started = true
		h.loading = true
		h.errMsg = ""
	})
	defer h.mutate(func() { h.loading = false })

	todos, err := h.remote.List(ctx)
	if err != nil {
		h.setError(err, "failed to load todos")
		return
	}
	h.mutate(func() { h.todos = todos })
	h.logger.Debug("todos loaded", zap.Int("count", len(todos)))
}

// Add creates a todo from text and puts it at the front of the list. Text
// that is blank after trimming is ignored: Add returns nil, nil without
// calling the store.
func (h *Holder) Add(ctx context.Context, text string) (*models.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	h.mutate(func() { h.adding = true })
	defer h.mutate(func() { h.adding = false })

	todo, err := h.remote.Create(ctx, text)
	if err != nil {
		return nil, h.setError(err, "failed to add todo")
	}

	h.mutate(func() {
		todos := make([]models.Todo, 0, len(h.todos)+1)
		todos = append(todos, todo)
		h.todos = append(todos, h.todos...)
	})
	h.logger.Debug("todo added", zap.String("id", todo.ID))
	return &todo, nil
}

// UpdateText replaces the text of the todo with the given id. Callers are
// expected to skip the call when text is blank or unchanged.
func (h *Holder) UpdateText(ctx context.Context, id, text string) error {
	h.mutate(func() { h.updating = id })
	defer h.mutate(func() { h.updating = "" })

	if err := h.remote.Update(ctx, id, models.TextPatch(text)); err != nil {
		return h.setError(err, "failed to update todo")
	}

	h.patch(id, models.TextPatch(text))
	return nil
}

// ToggleComplete flips the completion flag of the todo with the given id.
// An id missing from the local list is ignored.
func (h *Holder) ToggleComplete(ctx context.Context, id string) error {
	h.mu.Lock()
	var (
		found   bool
		current bool
	)
	for _, t := range h.todos {
		if t.ID == id {
			found, current = true, t.Completed
			break
		}
	}
	h.mu.Unlock()
	if !found {
		return nil
	}

	h.mutate(func() { h.updating = id })
	defer h.mutate(func() { h.updating = "" })

	patch := models.CompletedPatch(!current)
	if err := h.remote.Update(ctx, id, patch); err != nil {
		return h.setError(err, "failed to toggle todo")
	}

	h.patch(id, patch)
	return nil
}

// Remove deletes the todo with the given id. The store is called even when
// the id is not in the local list.
func (h *Holder) Remove(ctx context.Context, id string) error {
	h.mutate(func() { h.deleting = id })
	defer h.mutate(func() { h.deleting = "" })

	if err := h.remote.Delete(ctx, id); err != nil {
		return h.setError(err, "failed to delete todo")
	}

	h.mutate(func() {
		todos := make([]models.Todo, 0, len(h.todos))
		for _, t := range h.todos {
			if t.ID != id {
				todos = append(todos, t)
			}
		}
		h.todos = todos
	})
	return nil
}

// ClearError empties the error slot.
func (h *Holder) ClearError() {
	h.mutate(func() { h.errMsg = "" })
}

func (h *Holder) patch(id string, p models.Patch) {
	at := h.now()
	h.mutate(func() {
		todos := make([]models.Todo, len(h.todos))
		copy(todos, h.todos)
		for i := range todos {
			if todos[i].ID == id {
				todos[i].Apply(p, at)
			}
		}
		h.todos = todos
	})
}

// setError records err in the error slot, overwriting any previous message,
// and returns err unchanged.
func (h *Holder) setError(err error, fallback string) error {
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	h.mutate(func() { h.errMsg = msg })
	h.logger.Debug("action failed", zap.String("error", msg))
	return err
}
