package store

import (
	"context"

	"go.uber.org/zap"

	"todolist/internal/models"
)

// Adapter fronts a backend and turns every failure into an *OpError.
// It issues exactly one backend call per operation and never retries.
type Adapter struct {
	backend Store
	logger  *zap.Logger
}

// NewAdapter wraps the given backend. A nil logger discards failure logs.
func NewAdapter(backend Store, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		backend: backend,
		logger:  logger.Named("store"),
	}
}

// Create inserts a todo and returns it fully populated.
func (a *Adapter) Create(ctx context.Context, text string) (models.Todo, error) {
	todo, err := a.backend.Create(ctx, text)
	if err != nil {
		return models.Todo{}, a.fail(OpCreate, "", err)
	}
	return todo, nil
}

// List returns all todos ordered by creation time, newest first.
func (a *Adapter) List(ctx context.Context) ([]models.Todo, error) {
	todos, err := a.backend.List(ctx)
	if err != nil {
		return nil, a.fail(OpList, "", err)
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos, nil
}

// Update merges patch into the todo with the given id.
func (a *Adapter) Update(ctx context.Context, id string, patch models.Patch) error {
	if err := a.backend.Update(ctx, id, patch); err != nil {
		return a.fail(OpUpdate, id, err)
	}
	return nil
}

// Delete removes the todo with the given id.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	if err := a.backend.Delete(ctx, id); err != nil {
		return a.fail(OpDelete, id, err)
	}
	return nil
}

func (a *Adapter) fail(op Op, id string, err error) error {
	fields := []zap.Field{zap.String("op", string(op)), zap.Error(err)}
	if id != "" {
		fields = append(fields, zap.String("id", id))
	}
	a.logger.Error("store operation failed", fields...)
	return &OpError{Op: op, Err: err}
}
