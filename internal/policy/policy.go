// Package policy holds the admission decisions and workflow rules for boards
// and tasks. Everything here is pure: callers fetch the acting user and the
// resource, the policy answers. The only database-derived input is whether the
// user has a task assigned to them on the board, which callers pass in.
package policy

import (
	"fmt"
	"strings"

	"github.com/flowboard/backend/internal/models"
)

// SameCompany reports whether the user and board belong to the same company.
// A user without a company never matches.
func SameCompany(u *models.User, b *models.Board) bool {
	return u.InCompany(b.CompanyID)
}

// CanReadBoard decides board visibility: same-company admin, board owner,
// listed board assignee, or someone with a task on the board assigned to them
// by name. Company mismatch denies before anything else.
func CanReadBoard(u *models.User, b *models.Board, hasAssignedTask bool) bool {
	if !SameCompany(u, b) {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	if b.UserID == u.ID {
		return true
	}
	if b.HasAssignee(u.Name) {
		return true
	}
	return hasAssignedTask
}

// CanWriteBoard decides board metadata edits and deletion. Only the creator
// may mutate or delete a board; the admin role alone is not enough.
func CanWriteBoard(u *models.User, b *models.Board) bool {
	return SameCompany(u, b) && b.UserID == u.ID
}

// CanCreateTask decides whether the user may add tasks to the board.
func CanCreateTask(u *models.User, b *models.Board) bool {
	if !SameCompany(u, b) {
		return false
	}
	return u.IsAdmin() || b.UserID == u.ID || b.HasAssignee(u.Name)
}

// CanEditTaskFields decides edits to title/description/priority/assignee:
// admin, task creator, or the task's assignee by display name.
func CanEditTaskFields(u *models.User, t *models.Task) bool {
	if u.IsAdmin() {
		return true
	}
	if t.UserID == u.ID {
		return true
	}
	return t.Assignee != "" && t.Assignee == u.Name
}

// CanMoveTask decides status-only changes (dragging a card between sections).
// Anyone with board visibility may move tasks, which is deliberately looser
// than field edits.
func CanMoveTask(u *models.User, b *models.Board, hasAssignedTask bool) bool {
	return CanReadBoard(u, b, hasAssignedTask)
}

// CanDeleteTask decides task deletion: admin or the task's creator.
func CanDeleteTask(u *models.User, t *models.Task) bool {
	return u.IsAdmin() || t.UserID == u.ID
}

// CanReadTaskActivity decides access to a task's audit trail: board
// visibility, the task's assignee, or the task's creator. Company mismatch
// denies before anything else; display names only mean something inside the
// task's own company.
func CanReadTaskActivity(u *models.User, b *models.Board, t *models.Task) bool {
	if !u.InCompany(t.CompanyID) {
		return false
	}
	if CanReadBoard(u, b, false) {
		return true
	}
	if t.Assignee != "" && t.Assignee == u.Name {
		return true
	}
	return t.UserID == u.ID
}

// InvalidStatusError reports a status that is not one of the board's section
// ids. Valid lists the ids that would have been accepted.
type InvalidStatusError struct {
	Status string
	Valid  []string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("Invalid status. Must be one of: %s", strings.Join(e.Valid, ", "))
}

// ValidateStatus checks that status names an existing section of the board.
// Any section-to-section move is permitted; membership is the only rule.
func ValidateStatus(b *models.Board, status string) error {
	if b.Section(status) != nil {
		return nil
	}
	return &InvalidStatusError{Status: status, Valid: b.SectionIDs()}
}

// SectionInUseError reports an attempt to delete a section that tasks still
// reference as their status.
type SectionInUseError struct {
	SectionID string
	Count     int
}

func (e *SectionInUseError) Error() string {
	return fmt.Sprintf("Cannot delete section: %d task(s) still use it", e.Count)
}

// SectionDeleteAllowed gates section removal on the number of tasks whose
// status references it. Remaining sections keep their order values.
func SectionDeleteAllowed(sectionID string, taskCount int) error {
	if taskCount > 0 {
		return &SectionInUseError{SectionID: sectionID, Count: taskCount}
	}
	return nil
}
