package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionMoved   = "moved"
	ActionDeleted = "deleted"
)

// FieldAll marks activity records that cover the whole task (create/delete).
const FieldAll = "all"

// TaskActivity is one append-only audit record for a task. Records are never
// updated or deleted.
type TaskActivity struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Action    string    `json:"action"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	CreatedAt time.Time `json:"created_at"`
}
