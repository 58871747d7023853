package tasks

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowboard/backend/internal/models"
	"github.com/flowboard/backend/internal/policy"
)

func str(s string) *string { return &s }

func fixtureTask() *models.Task {
	return &models.Task{
		ID:       uuid.New(),
		Title:    "Fix login",
		Status:   "todo",
		Priority: models.PriorityMedium,
		Assignee: "Jordan",
		UserID:   uuid.New(),
	}
}

func fixtureBoard() *models.Board {
	return &models.Board{
		ID:       uuid.New(),
		Sections: models.DefaultSections(),
	}
}

func fixtureActor() *models.User {
	return &models.User{ID: uuid.New(), Name: "Sam", Role: models.RoleAdmin}
}

func TestDetectChanges(t *testing.T) {
	task := fixtureTask()

	t.Run("nothing provided", func(t *testing.T) {
		ch := DetectChanges(task, UpdateRequest{})
		assert.False(t, ch.Any())
	})

	t.Run("same values are not changes", func(t *testing.T) {
		ch := DetectChanges(task, UpdateRequest{
			Title:    str("Fix login"),
			Status:   str("todo"),
			Priority: str("medium"),
			Assignee: str("Jordan"),
		})
		assert.False(t, ch.Any())
	})

	t.Run("status only is a move, not a field edit", func(t *testing.T) {
		ch := DetectChanges(task, UpdateRequest{Status: str("done")})
		assert.True(t, ch.Status)
		assert.False(t, ch.FieldEdit())
		assert.True(t, ch.Any())
	})

	t.Run("title is a field edit", func(t *testing.T) {
		ch := DetectChanges(task, UpdateRequest{Title: str("Fix logout")})
		assert.True(t, ch.FieldEdit())
		assert.False(t, ch.Status)
	})
}

func TestBuildChangeSetActivities(t *testing.T) {
	task := fixtureTask()
	board := fixtureBoard()
	actor := fixtureActor()

	req := UpdateRequest{
		Title:    str("Fix logout"),
		Priority: str("high"),
		Status:   str("in-progress"),
	}
	ch := DetectChanges(task, req)
	updated, recs, err := BuildChangeSet(task, board, actor, req, ch)
	require.NoError(t, err)

	assert.Equal(t, "Fix logout", updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, "in-progress", updated.Status)
	assert.Equal(t, task.ID, updated.ID)

	require.Len(t, recs, 3)
	byField := map[string]models.TaskActivity{}
	for _, rec := range recs {
		byField[rec.Field] = rec
		assert.Equal(t, actor.ID, rec.UserID)
		assert.Equal(t, "Sam", rec.UserName)
		assert.Equal(t, task.ID, rec.TaskID)
	}

	assert.Equal(t, models.ActionUpdated, byField["title"].Action)
	assert.Equal(t, "Fix login", byField["title"].OldValue)
	assert.Equal(t, "Fix logout", byField["title"].NewValue)

	assert.Equal(t, "Medium", byField["priority"].OldValue, "priorities log as labels")
	assert.Equal(t, "High", byField["priority"].NewValue)

	assert.Equal(t, models.ActionMoved, byField["status"].Action)
	assert.Equal(t, "To Do", byField["status"].OldValue, "moves log section names")
	assert.Equal(t, "In Progress", byField["status"].NewValue)
}

func TestBuildChangeSetAssigneeLabels(t *testing.T) {
	task := fixtureTask()
	task.Assignee = ""
	board := fixtureBoard()

	req := UpdateRequest{Assignee: str("Jordan")}
	ch := DetectChanges(task, req)
	_, recs, err := BuildChangeSet(task, board, fixtureActor(), req, ch)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Unassigned", recs[0].OldValue)
	assert.Equal(t, "Jordan", recs[0].NewValue)

	t.Run("unassigning", func(t *testing.T) {
		task := fixtureTask()
		req := UpdateRequest{Assignee: str("")}
		ch := DetectChanges(task, req)
		_, recs, err := BuildChangeSet(task, board, fixtureActor(), req, ch)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Jordan", recs[0].OldValue)
		assert.Equal(t, "Unassigned", recs[0].NewValue)
	})
}

func TestBuildChangeSetDeletedSectionFallback(t *testing.T) {
	task := fixtureTask()
	task.Status = "archived" // section no longer exists on the board
	board := fixtureBoard()

	req := UpdateRequest{Status: str("done")}
	ch := DetectChanges(task, req)
	_, recs, err := BuildChangeSet(task, board, fixtureActor(), req, ch)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "archived", recs[0].OldValue, "raw id when section is gone")
	assert.Equal(t, "Done", recs[0].NewValue)
}

func TestBuildChangeSetValidation(t *testing.T) {
	task := fixtureTask()
	board := fixtureBoard()
	actor := fixtureActor()

	t.Run("invalid status", func(t *testing.T) {
		req := UpdateRequest{Status: str("archived")}
		ch := DetectChanges(task, req)
		_, _, err := BuildChangeSet(task, board, actor, req, ch)
		var invalid *policy.InvalidStatusError
		require.True(t, errors.As(err, &invalid))
	})

	t.Run("invalid priority", func(t *testing.T) {
		req := UpdateRequest{Priority: str("urgent")}
		ch := DetectChanges(task, req)
		_, _, err := BuildChangeSet(task, board, actor, req, ch)
		assert.ErrorIs(t, err, ErrInvalidPriority)
	})

	t.Run("input task is not mutated", func(t *testing.T) {
		req := UpdateRequest{Title: str("Changed")}
		ch := DetectChanges(task, req)
		_, _, err := BuildChangeSet(task, board, actor, req, ch)
		require.NoError(t, err)
		assert.Equal(t, "Fix login", task.Title)
	})
}
