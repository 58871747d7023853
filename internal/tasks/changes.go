package tasks

import (
	"errors"

	"github.com/flowboard/backend/internal/models"
	"github.com/flowboard/backend/internal/policy"
)

// ErrInvalidPriority reports a priority outside low/medium/high.
var ErrInvalidPriority = errors.New("Invalid priority. Must be one of: low, medium, high")

// UpdateRequest is the body for PUT /tasks/:id. Nil fields stay unchanged.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Assignee    *string `json:"assignee"`
}

// Changes flags which task fields an update actually touches. A provided value
// equal to the current one does not count as a change.
type Changes struct {
	Title       bool
	Description bool
	Status      bool
	Priority    bool
	Assignee    bool
}

// FieldEdit reports whether any non-status field changes. Field edits and
// moves carry different permissions.
func (ch Changes) FieldEdit() bool {
	return ch.Title || ch.Description || ch.Priority || ch.Assignee
}

// Any reports whether the update changes anything at all.
func (ch Changes) Any() bool {
	return ch.FieldEdit() || ch.Status
}

// DetectChanges compares the request against the current task.
func DetectChanges(t *models.Task, req UpdateRequest) Changes {
	var ch Changes
	ch.Title = req.Title != nil && *req.Title != t.Title
	ch.Description = req.Description != nil && *req.Description != t.Description
	ch.Status = req.Status != nil && *req.Status != t.Status
	ch.Priority = req.Priority != nil && *req.Priority != string(t.Priority)
	ch.Assignee = req.Assignee != nil && *req.Assignee != t.Assignee
	return ch
}

// sectionLabel maps a status id to its section's display name, falling back to
// the raw id for sections that have since been deleted.
func sectionLabel(b *models.Board, status string) string {
	if s := b.Section(status); s != nil {
		return s.Name
	}
	return status
}

// assigneeLabel shows "Unassigned" for an empty assignee in activity records.
func assigneeLabel(name string) string {
	if name == "" {
		return "Unassigned"
	}
	return name
}

// BuildChangeSet validates the requested changes and returns the updated task
// plus one activity record per changed field. Callers check permissions first;
// this function only validates values and records history.
func BuildChangeSet(t *models.Task, b *models.Board, actor *models.User, req UpdateRequest, ch Changes) (models.Task, []models.TaskActivity, error) {
	updated := *t
	var recs []models.TaskActivity

	record := func(action, field, oldValue, newValue string) {
		recs = append(recs, models.TaskActivity{
			TaskID:   t.ID,
			UserID:   actor.ID,
			UserName: actor.Name,
			Action:   action,
			Field:    field,
			OldValue: oldValue,
			NewValue: newValue,
		})
	}

	if ch.Title {
		record(models.ActionUpdated, "title", t.Title, *req.Title)
		updated.Title = *req.Title
	}
	if ch.Description {
		record(models.ActionUpdated, "description", t.Description, *req.Description)
		updated.Description = *req.Description
	}
	if ch.Priority {
		if !models.ValidPriority(*req.Priority) {
			return models.Task{}, nil, ErrInvalidPriority
		}
		record(models.ActionUpdated, "priority", models.PriorityLabel(string(t.Priority)), models.PriorityLabel(*req.Priority))
		updated.Priority = models.Priority(*req.Priority)
	}
	if ch.Assignee {
		record(models.ActionUpdated, "assignee", assigneeLabel(t.Assignee), assigneeLabel(*req.Assignee))
		updated.Assignee = *req.Assignee
	}
	if ch.Status {
		if err := policy.ValidateStatus(b, *req.Status); err != nil {
			return models.Task{}, nil, err
		}
		record(models.ActionMoved, "status", sectionLabel(b, t.Status), sectionLabel(b, *req.Status))
		updated.Status = *req.Status
	}
	return updated, recs, nil
}
