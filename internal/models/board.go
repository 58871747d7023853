package models

import (
	"time"

	"github.com/google/uuid"
)

// Section is one stage of a board's workflow. ID is a stable string; Order is
// used only for sorting and is not required to be contiguous.
type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// DefaultSections returns the canonical four-stage workflow used for boards
// created without explicit sections.
func DefaultSections() []Section {
	return []Section{
		{ID: "todo", Name: "To Do", Order: 0},
		{ID: "in-progress", Name: "In Progress", Order: 1},
		{ID: "testing", Name: "Testing", Order: 2},
		{ID: "done", Name: "Done", Order: 3},
	}
}

// Board represents a Kanban board owned by a user and scoped to a company.
// Assignees holds user display names, not references.
type Board struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UserID      uuid.UUID `json:"user_id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Assignees   []string  `json:"assignees"`
	Sections    []Section `json:"sections"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Section returns the section with the given id, or nil.
func (b *Board) Section(id string) *Section {
	for i := range b.Sections {
		if b.Sections[i].ID == id {
			return &b.Sections[i]
		}
	}
	return nil
}

// SectionIDs returns the board's section ids in stored order.
func (b *Board) SectionIDs() []string {
	ids := make([]string, 0, len(b.Sections))
	for _, s := range b.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

// HasAssignee reports whether the display name is on the board's assignee list.
func (b *Board) HasAssignee(name string) bool {
	for _, a := range b.Assignees {
		if a == name {
			return true
		}
	}
	return false
}
