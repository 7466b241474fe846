package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"todolist/internal/models"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite store with the given database path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return OpenSQLiteStore(context.Background(), dbPath)
}

// OpenSQLiteStore opens the database at dbPath and migrates it to the
// current todos schema. ctx bounds the migration.
func OpenSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if err := migrateSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create inserts a new todo and returns it with its id and timestamps.
func (s *SQLiteStore) Create(ctx context.Context, text string) (models.Todo, error) {
	now := s.now().UTC()
	todo := models.Todo{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := todo.Validate(); err != nil {
		return models.Todo{}, ErrEmptyText
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, text, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, todo.ID, todo.Text, todo.Completed, now.UnixNano(), now.UnixNano())
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}

	return todo, nil
}

// List retrieves all todos, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, completed, created_at, updated_at
		FROM todos ORDER BY created_at DESC, seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var (
			todo               models.Todo
			createdAt, updated int64
		)
		if err := rows.Scan(&todo.ID, &todo.Text, &todo.Completed, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todo.CreatedAt = time.Unix(0, createdAt).UTC()
		todo.UpdatedAt = time.Unix(0, updated).UTC()
		todos = append(todos, todo)
	}

	return todos, rows.Err()
}

// Update merges the patch into an existing todo.
func (s *SQLiteStore) Update(ctx context.Context, id string, patch models.Patch) error {
	if err := patch.Validate(); err != nil {
		return ErrEmptyText
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{s.now().UTC().UnixNano()}
	if patch.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *patch.Text)
	}
	if patch.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, *patch.Completed)
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		`UPDATE todos SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// Delete deletes a todo by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}
