package store

import (
	"context"
	"errors"

	"todolist/internal/models"
)

// Collection is the name of the collection every backend keeps todos in.
const Collection = "todos"

// Store errors.
var (
	ErrNotFound  = errors.New("todo not found")
	ErrEmptyText = errors.New("text is required")
)

// Store defines the four operations of the remote document store.
type Store interface {
	// Create inserts a todo with the given text. The store assigns the ID
	// and both timestamps.
	Create(ctx context.Context, text string) (models.Todo, error)

	// List returns every todo, newest first.
	List(ctx context.Context) ([]models.Todo, error)

	// Update merges the patch into the todo and refreshes UpdatedAt.
	Update(ctx context.Context, id string, patch models.Patch) error

	// Delete removes the todo. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// Backend is a Store that holds resources which must be released.
type Backend interface {
	Store
	Close() error
}
