package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"todolist/internal/models"
)

// Each todo gets seq from a per-collection counter node so that todos
// created within the same clock tick keep insertion order.
const (
	createTodoCypher = `
		MERGE (c:TodoSequence {name: $collection})
		ON CREATE SET c.next = 0
		SET c.next = c.next + 1
		CREATE (t:Todo {id: $id, text: $text, completed: false,
		                createdAt: $now, updatedAt: $now, seq: c.next})`

	listTodosCypher = `
		MATCH (t:Todo)
		RETURN t.id AS id, t.text AS text, t.completed AS completed,
		       t.createdAt AS createdAt, t.updatedAt AS updatedAt
		ORDER BY t.createdAt DESC, t.seq DESC`
)

// Neo4jConfig holds the connection settings for Neo4jStore.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jStore keeps todos as (:Todo) nodes in Neo4j.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	now      func() time.Time
}

// NewNeo4jStore connects to Neo4j, verifies connectivity and ensures the
// uniqueness constraint on todo ids.
func NewNeo4jStore(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	s := &Neo4jStore{driver: driver, database: cfg.Database, now: time.Now}
	if err := s.ensureSchema(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Neo4jStore) ensureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"CREATE CONSTRAINT todo_id IF NOT EXISTS FOR (t:Todo) REQUIRE t.id IS UNIQUE",
			nil,
		)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to create todo constraint: %w", err)
	}
	return nil
}

// Close closes the driver.
func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}

// Create adds a new todo node.
func (s *Neo4jStore) Create(ctx context.Context, text string) (models.Todo, error) {
	now := s.now().UTC()
	todo := models.Todo{
		ID:        uuid.New().String(),
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := todo.Validate(); err != nil {
		return models.Todo{}, ErrEmptyText
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, createTodoCypher, map[string]any{
			"collection": Collection,
			"id":         todo.ID,
			"text":       todo.Text,
			"now":        now.UnixNano(),
		})
		return nil, err
	})
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}

	return todo, nil
}

// List retrieves all todos, newest first.
func (s *Neo4jStore) List(ctx context.Context) ([]models.Todo, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, listTodosCypher, nil)
		if err != nil {
			return nil, err
		}

		todos := []models.Todo{}
		for res.Next(ctx) {
			todo, err := todoFromRecord(res.Record())
			if err != nil {
				return nil, err
			}
			todos = append(todos, todo)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return todos, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	return result.([]models.Todo), nil
}

// Update merges the patch into an existing todo node.
func (s *Neo4jStore) Update(ctx context.Context, id string, patch models.Patch) error {
	if err := patch.Validate(); err != nil {
		return ErrEmptyText
	}

	props := map[string]any{"updatedAt": s.now().UTC().UnixNano()}
	if patch.Text != nil {
		props["text"] = *patch.Text
	}
	if patch.Completed != nil {
		props["completed"] = *patch.Completed
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	matched, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Todo {id: $id}) SET t += $props RETURN count(t) AS n",
			map[string]any{"id": id, "props": props},
		)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _ := record.Values[0].(int64)
		return n, nil
	})
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	if matched.(int64) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// Delete deletes a todo node and its relationships.
func (s *Neo4jStore) Delete(ctx context.Context, id string) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"MATCH (t:Todo {id: $id}) DETACH DELETE t",
			map[string]any{"id": id},
		)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}

func todoFromRecord(record *neo4j.Record) (models.Todo, error) {
	if len(record.Values) != 5 {
		return models.Todo{}, fmt.Errorf("unexpected record width %d", len(record.Values))
	}

	id, ok := record.Values[0].(string)
	if !ok {
		return models.Todo{}, fmt.Errorf("todo id has type %T", record.Values[0])
	}
	text, _ := record.Values[1].(string)
	completed, _ := record.Values[2].(bool)
	createdAt, _ := record.Values[3].(int64)
	updatedAt, _ := record.Values[4].(int64)

	return models.Todo{
		ID:        id,
		Text:      text,
		Completed: completed,
		CreatedAt: time.Unix(0, createdAt).UTC(),
		UpdatedAt: time.Unix(0, updatedAt).UTC(),
	}, nil
}
