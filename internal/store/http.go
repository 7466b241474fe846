package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"todolist/internal/models"
)

// HTTPStore is a client for the hosted document-store API served by
// internal/api.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore returns a client for the API rooted at baseURL. A zero
// timeout leaves requests bounded only by their context.
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Close is a no-op; connections are pooled by the http.Client.
func (s *HTTPStore) Close() error {
	return nil
}

// Create posts a new todo.
func (s *HTTPStore) Create(ctx context.Context, text string) (models.Todo, error) {
	var todo models.Todo
	err := s.do(ctx, http.MethodPost, "/v1/todos", map[string]string{"text": text}, &todo)
	if err != nil {
		return models.Todo{}, err
	}
	return todo, nil
}

// List fetches all todos, newest first.
func (s *HTTPStore) List(ctx context.Context) ([]models.Todo, error) {
	todos := []models.Todo{}
	if err := s.do(ctx, http.MethodGet, "/v1/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// Update patches a todo.
func (s *HTTPStore) Update(ctx context.Context, id string, patch models.Patch) error {
	return s.do(ctx, http.MethodPatch, "/v1/todos/"+url.PathEscape(id), patch, nil)
}

// Delete removes a todo.
func (s *HTTPStore) Delete(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/v1/todos/"+url.PathEscape(id), nil, nil)
}

func (s *HTTPStore) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return responseError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)

	msg := payload.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusBadRequest:
		if msg == ErrEmptyText.Error() {
			return ErrEmptyText
		}
	}
	return errors.New("store responded " + resp.Status + ": " + msg)
}
