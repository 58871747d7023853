package boards

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/flowboard/backend/internal/models"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowers a section name into a stable id: "In Review" -> "in-review".
func slugify(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

// newSectionID derives an id for a new section from its name, appending a
// short random suffix when the slug collides with an existing section. The id
// stays stable afterwards; renames never change it.
func newSectionID(name string, existing []models.Section) string {
	id := slugify(name)
	if id == "" {
		id = "section"
	}
	taken := func(candidate string) bool {
		for _, s := range existing {
			if s.ID == candidate {
				return true
			}
		}
		return false
	}
	if !taken(id) {
		return id
	}
	return id + "-" + uuid.New().String()[:8]
}

// appendSection returns the section list with a new section at the end.
// Order is max(existing)+1; existing sections keep their order values.
func appendSection(sections []models.Section, name string) ([]models.Section, models.Section) {
	maxOrder := -1
	for _, s := range sections {
		if s.Order > maxOrder {
			maxOrder = s.Order
		}
	}
	added := models.Section{
		ID:    newSectionID(name, sections),
		Name:  strings.TrimSpace(name),
		Order: maxOrder + 1,
	}
	return append(append([]models.Section(nil), sections...), added), added
}

// updateSection renames and/or reorders a section in place, returning the new
// list and whether the section was found. Nil order leaves order unchanged.
func updateSection(sections []models.Section, sectionID, name string, order *int) ([]models.Section, bool) {
	out := append([]models.Section(nil), sections...)
	for i := range out {
		if out[i].ID != sectionID {
			continue
		}
		if name != "" {
			out[i].Name = strings.TrimSpace(name)
		}
		if order != nil {
			out[i].Order = *order
		}
		return out, true
	}
	return sections, false
}

// removeSection drops exactly one section by id. Remaining sections keep
// their order values unchanged (no renumbering).
func removeSection(sections []models.Section, sectionID string) ([]models.Section, bool) {
	out := make([]models.Section, 0, len(sections))
	found := false
	for _, s := range sections {
		if s.ID == sectionID {
			found = true
			continue
		}
		out = append(out, s)
	}
	return out, found
}
