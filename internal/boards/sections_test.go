package boards

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowboard/backend/internal/models"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "in-review", slugify("In Review"))
	assert.Equal(t, "qa-testing", slugify("  QA / Testing  "))
	assert.Equal(t, "done", slugify("Done!"))
	assert.Equal(t, "", slugify("???"))
}

func TestNewSectionID(t *testing.T) {
	existing := models.DefaultSections()

	assert.Equal(t, "in-review", newSectionID("In Review", existing))

	t.Run("collision gets a suffix", func(t *testing.T) {
		id := newSectionID("To Do", existing)
		assert.True(t, strings.HasPrefix(id, "todo-"), "got %q", id)
		assert.Len(t, id, len("todo-")+8)
	})

	t.Run("unsluggable name falls back", func(t *testing.T) {
		assert.Equal(t, "section", newSectionID("???", existing))
	})
}

func TestAppendSection(t *testing.T) {
	sections := models.DefaultSections()

	out, added := appendSection(sections, "In Review")
	require.Len(t, out, 5)
	assert.Equal(t, "in-review", added.ID)
	assert.Equal(t, "In Review", added.Name)
	assert.Equal(t, 4, added.Order, "new section goes after the highest order")
	assert.Len(t, sections, 4, "input list untouched")

	t.Run("order is max plus one, not length", func(t *testing.T) {
		gapped := []models.Section{{ID: "todo", Name: "To Do", Order: 7}}
		_, added := appendSection(gapped, "Done")
		assert.Equal(t, 8, added.Order)
	})
}

func TestUpdateSection(t *testing.T) {
	sections := models.DefaultSections()

	t.Run("rename keeps id", func(t *testing.T) {
		out, found := updateSection(sections, "todo", "Backlog", nil)
		require.True(t, found)
		assert.Equal(t, "todo", out[0].ID)
		assert.Equal(t, "Backlog", out[0].Name)
		assert.Equal(t, 0, out[0].Order)
	})

	t.Run("reorder only", func(t *testing.T) {
		order := 9
		out, found := updateSection(sections, "done", "", &order)
		require.True(t, found)
		assert.Equal(t, "Done", out[3].Name)
		assert.Equal(t, 9, out[3].Order)
	})

	t.Run("unknown section", func(t *testing.T) {
		_, found := updateSection(sections, "archived", "X", nil)
		assert.False(t, found)
	})
}

func TestRemoveSection(t *testing.T) {
	sections := models.DefaultSections()

	out, found := removeSection(sections, "testing")
	require.True(t, found)
	require.Len(t, out, 3)
	// remaining orders are untouched, gaps allowed
	assert.Equal(t, []int{0, 1, 3}, []int{out[0].Order, out[1].Order, out[2].Order})

	_, found = removeSection(sections, "archived")
	assert.False(t, found)
}

func TestCoerceAssignees(t *testing.T) {
	assert.Equal(t, []string{"Jordan"}, coerceAssignees("Jordan"))
	assert.Equal(t, []string{"Jordan", "Sam"}, coerceAssignees([]interface{}{"Jordan", "Sam"}))
	assert.Equal(t, []string{"Jordan"}, coerceAssignees([]interface{}{"Jordan", 42}))
	assert.Equal(t, []string{}, coerceAssignees(""))
	assert.Equal(t, []string{}, coerceAssignees(nil))
	assert.Equal(t, []string{}, coerceAssignees(7.5))
}
