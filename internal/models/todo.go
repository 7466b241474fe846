package models

import (
	"errors"
	"strings"
	"time"
)

// Todo is a single item of the list. ID, CreatedAt and UpdatedAt are
// assigned by the store.
type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks that the todo has valid field values.
func (t *Todo) Validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return errors.New("text is required")
	}
	return nil
}

// Apply merges the non-nil fields of p into the todo and stamps UpdatedAt.
func (t *Todo) Apply(p Patch, at time.Time) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.UpdatedAt = at
}

// Patch holds the fields of a partial update. Nil fields are left unchanged.
type Patch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Validate rejects a patch that would persist empty text.
func (p Patch) Validate() error {
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return errors.New("text is required")
	}
	return nil
}

// TextPatch returns a patch that only sets the text.
func TextPatch(text string) Patch {
	return Patch{Text: &text}
}

// CompletedPatch returns a patch that only sets the completion flag.
func CompletedPatch(completed bool) Patch {
	return Patch{Completed: &completed}
}

// Counts returns the number of completed and pending todos.
func Counts(todos []Todo) (done, pending int) {
	for _, t := range todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
