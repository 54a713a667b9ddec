// ABOUTME: Tests for category registration and validation
// ABOUTME: Offsets must be even, unique, bounded, and rules must reference known operations

package perm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	names := r.Names()
	for _, c := range StructuralCategories {
		assert.Contains(t, names, c)
	}
	assert.Contains(t, names, CategoryDatabase)
	assert.Contains(t, names, CategoryTools)
	assert.Contains(t, names, CategoryUsers)

	c, ok := r.Category(CategoryCategories)
	require.True(t, ok)
	edit, ok := c.Operation(OpEdit)
	require.True(t, ok)
	assert.Equal(t, uint(2), edit.Offset)

	del, _ := c.Operation(OpDelete)
	assert.Equal(t, uint(8), del.Offset)
}

func TestUsersCategory_EditsImplyRead(t *testing.T) {
	e := NewEngine(nil)

	mask, err := e.SetValue(0, CategoryUsers, OpEditPermissions, Allow)
	require.NoError(t, err)
	assert.Equal(t, Allow, e.MustResolve(mask, CategoryUsers, OpRead))
	assert.Equal(t, Inherit, e.MustResolve(mask, CategoryUsers, OpDelete))
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tools()))

	err := r.Register(Tools())
	assert.True(t, errors.Is(err, ErrCategoryExists))
}

func TestRegister_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cat  Category
	}{
		{"no name", Category{}},
		{"odd offset", Category{Name: "x", Operations: []Operation{{Name: "a", Offset: 1}}}},
		{"offset too high", Category{Name: "x", Operations: []Operation{{Name: "a", Offset: 32}}}},
		{"shared offset", Category{Name: "x", Operations: []Operation{{Name: "a", Offset: 2}, {Name: "b", Offset: 2}}}},
		{"duplicate op", Category{Name: "x", Operations: []Operation{{Name: "a", Offset: 0}, {Name: "a", Offset: 2}}}},
		{"unknown implied", Category{
			Name:       "x",
			Operations: []Operation{{Name: "a", Offset: 0}},
			Rules:      []Rule{{Triggers: []string{"a"}, Implies: "b"}},
		}},
		{"unknown trigger", Category{
			Name:       "x",
			Operations: []Operation{{Name: "a", Offset: 0}},
			Rules:      []Rule{{Triggers: []string{"b"}, Implies: "a"}},
		}},
		{"self implication", Category{
			Name:       "x",
			Operations: []Operation{{Name: "a", Offset: 0}},
			Rules:      []Rule{{Triggers: []string{"a"}, Implies: "a"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewRegistry().Register(tt.cat))
		})
	}
}

func TestRegister_ChainedRules(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Category{
		Name: "chain",
		Operations: []Operation{
			{Name: "view", Offset: 0},
			{Name: "comment", Offset: 2},
			{Name: "moderate", Offset: 4},
		},
		Rules: []Rule{
			{Triggers: []string{"moderate"}, Implies: "comment"},
			{Triggers: []string{"comment"}, Implies: "view"},
		},
	}))
	e := NewEngine(r)

	mask, err := e.SetValue(0, "chain", "moderate", Allow)
	require.NoError(t, err)
	assert.Equal(t, Allow, e.MustResolve(mask, "chain", "comment"))
	assert.Equal(t, Allow, e.MustResolve(mask, "chain", "view"))
}
