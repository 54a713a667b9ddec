package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdb/partdb-core/internal/perm"
	"github.com/partdb/partdb-core/internal/store"
)

func testTable() Table {
	return TablesFrom(store.NodeTables())[store.TableCategories]
}

func rows(pairs ...any) []store.NodeRow {
	var out []store.NodeRow
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < len(pairs); i += 3 {
		out = append(out, store.NodeRow{
			ID:           int64(pairs[i].(int)),
			ParentID:     int64(pairs[i+1].(int)),
			Name:         pairs[i+2].(string),
			CreatedAt:    now,
			LastModified: now,
		})
	}
	return out
}

// sample builds:
//
//	root
//	├── Capacitors (3)
//	└── Resistors (1)
//	    ├── SMD (2)
//	    │   └── 0805 (5)
//	    └── THT (4)
func sample() *Forest {
	return NewForest(testTable(), rows(
		1, 0, "Resistors",
		2, 1, "SMD",
		3, 0, "Capacitors",
		4, 1, "THT",
		5, 2, "0805",
	))
}

func TestForest_LevelAndPath(t *testing.T) {
	f := sample()

	tests := []struct {
		id    int64
		level int
		path  string
	}{
		{RootID, -1, ""},
		{1, 0, "Resistors"},
		{2, 1, "Resistors/SMD"},
		{5, 2, "Resistors/SMD/0805"},
	}
	for _, tt := range tests {
		level, err := f.Level(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.level, level, "level of %d", tt.id)

		path, err := f.FullPath(tt.id, "/")
		require.NoError(t, err)
		assert.Equal(t, tt.path, path, "path of %d", tt.id)
	}
}

func TestForest_LevelPathConsistency(t *testing.T) {
	f := sample()
	for id, n := range f.nodes {
		if id == RootID {
			continue
		}
		level, err := f.Level(id)
		require.NoError(t, err)
		parentLevel, err := f.Level(n.ParentID)
		require.NoError(t, err)
		assert.Equal(t, parentLevel+1, level)

		path, err := f.FullPath(id, " → ")
		require.NoError(t, err)
		if n.ParentID == RootID {
			assert.Equal(t, n.Name, path)
			continue
		}
		parentPath, err := f.FullPath(n.ParentID, " → ")
		require.NoError(t, err)
		assert.Equal(t, parentPath+" → "+n.Name, path)
	}
}

func TestForest_ChildrenOrderedByName(t *testing.T) {
	f := NewForest(testTable(), rows(
		1, 0, "b",
		2, 0, "a",
		3, 0, "C",
		4, 0, "a",
	))
	// Byte-wise: upper case sorts first, equal names fall back to id.
	assert.Equal(t, []int64{3, 2, 4, 1}, f.ChildIDs(RootID))
}

func TestForest_DescendantsPreOrder(t *testing.T) {
	f := sample()

	ids, err := f.Descendants(RootID)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2, 5, 4}, ids)

	ids, err = f.Descendants(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5, 4}, ids)
}

func TestForest_IsDescendantOf(t *testing.T) {
	f := sample()

	ok, err := f.IsDescendantOf(5, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.IsDescendantOf(1, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.IsDescendantOf(2, 2)
	require.NoError(t, err)
	assert.False(t, ok, "a node is not its own descendant")

	ok, err = f.IsDescendantOf(4, RootID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.IsDescendantOf(RootID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForest_StoredCycleIsFault(t *testing.T) {
	f := NewForest(testTable(), rows(
		1, 2, "a",
		2, 1, "b",
		3, 0, "c",
	))

	_, err := f.Level(1)
	assert.ErrorIs(t, err, perm.ErrConsistency)

	_, err = f.Descendants(1)
	assert.ErrorIs(t, err, perm.ErrConsistency)

	assert.ErrorIs(t, f.CheckIntegrity(), perm.ErrConsistency)
}

func TestForest_DanglingParentIsFault(t *testing.T) {
	f := NewForest(testTable(), rows(1, 9, "orphan"))

	_, err := f.Path(1)
	assert.ErrorIs(t, err, perm.ErrConsistency)
}

func TestForest_SnapshotWithChildren(t *testing.T) {
	f := sample()

	n, err := f.Snapshot(1, true)
	require.NoError(t, err)
	require.Len(t, n.Children, 2)
	assert.Equal(t, "SMD", n.Children[0].Name)
	assert.Equal(t, 1, n.Children[0].Level)
	assert.Equal(t, []string{"Resistors", "SMD"}, n.Children[0].FullPath)
	assert.Equal(t, []string{"Resistors"}, n.FullPath, "child paths must not alias the parent's")

	root, err := f.Snapshot(RootID, false)
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
	assert.Equal(t, int64(-1), root.ParentID)
	assert.Equal(t, "Categories", root.Name)
	assert.Empty(t, root.FullPath)
}

func TestForest_NamesStrippedOfMarkup(t *testing.T) {
	f := NewForest(testTable(), rows(1, 0, "<b>Bold</b> parts"))

	n, err := f.Snapshot(1, false)
	require.NoError(t, err)
	assert.Equal(t, "Bold parts", n.Name)
}

func TestForest_Validate(t *testing.T) {
	f := sample()
	smd := f.nodes[2]
	resistors := f.nodes[1]

	tests := []struct {
		name     string
		values   Values
		existing *Node
		want     error
		field    string
	}{
		{"empty name", Values{Name: "   "}, nil, ErrValidation, "name"},
		{"markup only name", Values{Name: " <b></b> "}, nil, ErrValidation, "name"},
		{"duplicate sibling", Values{Name: "Resistors"}, nil, ErrValidation, "name"},
		{"duplicate after trim", Values{Name: " SMD ", ParentID: 1}, nil, ErrValidation, "name"},
		{"missing parent", Values{Name: "x", ParentID: 42}, nil, ErrNotFound, ""},
		{"negative parent", Values{Name: "x", ParentID: -1}, nil, ErrValidation, "parent_id"},
		{"self parent", Values{Name: "SMD", ParentID: 2}, smd, ErrValidation, "parent_id"},
		{"descendant parent", Values{Name: "Resistors", ParentID: 5}, resistors, ErrValidation, "parent_id"},
		{"root", Values{Name: "x"}, f.nodes[RootID], ErrValidation, "id"},
		{"unknown extra", Values{Name: "x", Extra: map[string]any{"color": "red"}}, nil, ErrValidation, "color"},
		{"wrong extra kind", Values{Name: "x", Extra: map[string]any{"disable_footprints": "yes"}}, nil, ErrValidation, "disable_footprints"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Validate(tt.values, tt.existing)
			require.ErrorIs(t, err, tt.want)
			if tt.field != "" {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.field, ve.Field)
			}
		})
	}
}

func TestForest_ValidateAccepts(t *testing.T) {
	f := sample()

	v, err := f.Validate(Values{Name: "  Inductors  "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Inductors", v.Name)

	// Case differs, so not a duplicate.
	_, err = f.Validate(Values{Name: "smd", ParentID: 1}, nil)
	assert.NoError(t, err)

	// Keeping its own name is fine.
	_, err = f.Validate(Values{Name: "SMD", ParentID: 1}, f.nodes[2])
	assert.NoError(t, err)

	v, err = f.Validate(Values{Name: "x", Extra: map[string]any{"disable_footprints": true}}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, v.Extra["disable_footprints"])
}

func TestForest_TreeViewAndBreadcrumb(t *testing.T) {
	f := sample()

	items, err := f.TreeView(RootID, "/category/%ID%")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Capacitors", items[0].Text)
	assert.Equal(t, "/category/3", items[0].Href)
	assert.Nil(t, items[0].Nodes)
	require.Len(t, items[1].Nodes, 2)
	assert.Equal(t, "0805", items[1].Nodes[0].Nodes[0].Text)

	crumbs, err := f.Breadcrumb(5)
	require.NoError(t, err)
	names := make([]string, len(crumbs))
	for i, c := range crumbs {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Resistors", "SMD", "0805"}, names)

	_, err = f.TreeView(99, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplacePlaceholders(t *testing.T) {
	f := sample()
	n, err := f.Snapshot(5, false)
	require.NoError(t, err)

	got := ReplacePlaceholders(n, "%ID%|%NAME%|%PARENT_ID%|%PARENT%|%FULL_PATH%|%LEVEL%|%CREATION_TIME%", DefaultDelimiter)
	assert.Equal(t, "5|0805|2|SMD|Resistors → SMD → 0805|2|2024-05-01 12:00:00", got)

	top, err := f.Snapshot(3, false)
	require.NoError(t, err)
	assert.Equal(t, "[]", ReplacePlaceholders(top, "[%PARENT%]", "/"))
	assert.Equal(t, "no placeholders", ReplacePlaceholders(top, "no placeholders", "/"))
}
