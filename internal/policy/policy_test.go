package policy

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowboard/backend/internal/models"
)

func userIn(companyID uuid.UUID, role models.Role, name string) *models.User {
	return &models.User{
		ID:        uuid.New(),
		Name:      name,
		Role:      role,
		CompanyID: &companyID,
	}
}

func boardIn(companyID uuid.UUID, ownerID uuid.UUID) *models.Board {
	return &models.Board{
		ID:        uuid.New(),
		Name:      "Sprint Board",
		UserID:    ownerID,
		CompanyID: companyID,
		Sections:  models.DefaultSections(),
	}
}

func TestCanReadBoard(t *testing.T) {
	company := uuid.New()
	owner := userIn(company, models.RoleUser, "Owner")
	board := boardIn(company, owner.ID)

	t.Run("owner can read", func(t *testing.T) {
		assert.True(t, CanReadBoard(owner, board, false))
	})

	t.Run("same company admin can read", func(t *testing.T) {
		admin := userIn(company, models.RoleAdmin, "Admin")
		assert.True(t, CanReadBoard(admin, board, false))
	})

	t.Run("board assignee can read", func(t *testing.T) {
		member := userIn(company, models.RoleUser, "Jordan")
		board := boardIn(company, owner.ID)
		board.Assignees = []string{"Jordan"}
		assert.True(t, CanReadBoard(member, board, false))
	})

	t.Run("task assignee can read", func(t *testing.T) {
		member := userIn(company, models.RoleUser, "Sam")
		assert.True(t, CanReadBoard(member, board, true))
	})

	t.Run("unrelated member denied", func(t *testing.T) {
		member := userIn(company, models.RoleUser, "Sam")
		assert.False(t, CanReadBoard(member, board, false))
	})

	t.Run("cross company admin denied", func(t *testing.T) {
		otherAdmin := userIn(uuid.New(), models.RoleAdmin, "Other")
		assert.False(t, CanReadBoard(otherAdmin, board, false))
		assert.False(t, CanReadBoard(otherAdmin, board, true))
	})

	t.Run("user without company denied", func(t *testing.T) {
		ghost := &models.User{ID: uuid.New(), Name: "Ghost", Role: models.RoleAdmin}
		assert.False(t, CanReadBoard(ghost, board, false))
	})
}

func TestCanWriteBoard(t *testing.T) {
	company := uuid.New()
	owner := userIn(company, models.RoleUser, "Owner")
	board := boardIn(company, owner.ID)

	assert.True(t, CanWriteBoard(owner, board))

	admin := userIn(company, models.RoleAdmin, "Admin")
	assert.False(t, CanWriteBoard(admin, board), "admin role alone does not grant board writes")

	crossOwner := &models.User{ID: owner.ID, Name: "Owner", Role: models.RoleUser}
	other := uuid.New()
	crossOwner.CompanyID = &other
	assert.False(t, CanWriteBoard(crossOwner, board))
}

func TestCanCreateTask(t *testing.T) {
	company := uuid.New()
	owner := userIn(company, models.RoleUser, "Owner")
	board := boardIn(company, owner.ID)
	board.Assignees = []string{"Jordan"}

	assert.True(t, CanCreateTask(owner, board))
	assert.True(t, CanCreateTask(userIn(company, models.RoleAdmin, "Admin"), board))
	assert.True(t, CanCreateTask(userIn(company, models.RoleUser, "Jordan"), board))
	assert.False(t, CanCreateTask(userIn(company, models.RoleUser, "Sam"), board))
	assert.False(t, CanCreateTask(userIn(uuid.New(), models.RoleAdmin, "Other"), board))
}

func TestCanEditTaskFields(t *testing.T) {
	company := uuid.New()
	creator := userIn(company, models.RoleUser, "Creator")
	task := &models.Task{ID: uuid.New(), UserID: creator.ID, Assignee: "Jordan", CompanyID: company}

	assert.True(t, CanEditTaskFields(creator, task))
	assert.True(t, CanEditTaskFields(userIn(company, models.RoleAdmin, "Admin"), task))
	assert.True(t, CanEditTaskFields(userIn(company, models.RoleUser, "Jordan"), task))
	assert.False(t, CanEditTaskFields(userIn(company, models.RoleUser, "Sam"), task))

	t.Run("empty assignee never matches empty name", func(t *testing.T) {
		unassigned := &models.Task{ID: uuid.New(), UserID: uuid.New(), CompanyID: company}
		nameless := userIn(company, models.RoleUser, "")
		assert.False(t, CanEditTaskFields(nameless, unassigned))
	})
}

func TestCanDeleteTask(t *testing.T) {
	company := uuid.New()
	creator := userIn(company, models.RoleUser, "Creator")
	task := &models.Task{ID: uuid.New(), UserID: creator.ID, Assignee: "Jordan", CompanyID: company}

	assert.True(t, CanDeleteTask(creator, task))
	assert.True(t, CanDeleteTask(userIn(company, models.RoleAdmin, "Admin"), task))
	assert.False(t, CanDeleteTask(userIn(company, models.RoleUser, "Jordan"), task), "assignee cannot delete")
}

func TestCanReadTaskActivity(t *testing.T) {
	company := uuid.New()
	owner := userIn(company, models.RoleUser, "Owner")
	board := boardIn(company, owner.ID)
	creator := userIn(company, models.RoleUser, "Creator")
	task := &models.Task{ID: uuid.New(), UserID: creator.ID, Assignee: "Jordan", BoardID: board.ID, CompanyID: company}

	assert.True(t, CanReadTaskActivity(owner, board, task))
	assert.True(t, CanReadTaskActivity(creator, board, task))
	assert.True(t, CanReadTaskActivity(userIn(company, models.RoleUser, "Jordan"), board, task))
	assert.False(t, CanReadTaskActivity(userIn(company, models.RoleUser, "Sam"), board, task))

	t.Run("cross company name collision denied", func(t *testing.T) {
		otherCompany := uuid.New()
		impostor := userIn(otherCompany, models.RoleUser, "Jordan")
		assert.False(t, CanReadTaskActivity(impostor, board, task),
			"a matching display name in another company grants nothing")
	})

	t.Run("cross company creator id denied", func(t *testing.T) {
		movedCreator := userIn(uuid.New(), models.RoleUser, "Creator")
		movedCreator.ID = creator.ID
		assert.False(t, CanReadTaskActivity(movedCreator, board, task))
	})

	t.Run("cross company admin denied", func(t *testing.T) {
		assert.False(t, CanReadTaskActivity(userIn(uuid.New(), models.RoleAdmin, "Other"), board, task))
	})
}

func TestValidateStatus(t *testing.T) {
	board := boardIn(uuid.New(), uuid.New())

	require.NoError(t, ValidateStatus(board, "todo"))
	require.NoError(t, ValidateStatus(board, "done"))

	err := ValidateStatus(board, "archived")
	require.Error(t, err)
	var invalid *InvalidStatusError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "archived", invalid.Status)
	assert.Equal(t, []string{"todo", "in-progress", "testing", "done"}, invalid.Valid)
	assert.Equal(t, "Invalid status. Must be one of: todo, in-progress, testing, done", err.Error())
}

func TestSectionDeleteAllowed(t *testing.T) {
	require.NoError(t, SectionDeleteAllowed("todo", 0))

	err := SectionDeleteAllowed("todo", 3)
	require.Error(t, err)
	var inUse *SectionInUseError
	require.True(t, errors.As(err, &inUse))
	assert.Equal(t, 3, inUse.Count)
	assert.Equal(t, "Cannot delete section: 3 task(s) still use it", err.Error())
}
