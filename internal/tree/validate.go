// ABOUTME: Validation of node values against the forest invariants
// ABOUTME: Name, sibling uniqueness, parent existence, cycles, root immutability and extras

package tree

import (
	"strings"

	"github.com/partdb/partdb-core/internal/markup"
)

// Values are the writable fields of a node.
type Values struct {
	Name     string
	ParentID int64 // 0 for child of the root
	Comment  string
	Extra    map[string]any
}

// Validate checks v against f. existing is nil for a new node. On success the
// returned Values carry the trimmed name and normalized extras.
func (f *Forest) Validate(v Values, existing *Node) (Values, error) {
	if existing != nil && existing.IsRoot() {
		return v, invalid("id", "the root node cannot be modified")
	}

	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" || markup.StripTags(v.Name) == "" {
		return v, invalid("name", "must not be empty")
	}

	if v.ParentID < 0 {
		return v, invalid("parent_id", "must not be negative")
	}
	if !f.Has(v.ParentID) {
		return v, &NotFoundError{Table: f.table.Name, ID: v.ParentID}
	}

	if existing != nil {
		if v.ParentID == existing.ID {
			return v, invalid("parent_id", "a node cannot be its own parent")
		}
		descendant, err := f.IsDescendantOf(v.ParentID, existing.ID)
		if err != nil {
			return v, err
		}
		if descendant {
			return v, invalid("parent_id", "the new parent is a descendant of this node")
		}
	}

	for _, sibling := range f.kids[v.ParentID] {
		if existing != nil && sibling == existing.ID {
			continue
		}
		if f.names[sibling] == v.Name {
			return v, invalid("name", "%q already exists at this level", v.Name)
		}
	}

	if len(v.Extra) > 0 {
		normalized := make(map[string]any, len(v.Extra))
		for name, value := range v.Extra {
			col, ok := f.table.Column(name)
			if !ok {
				return v, invalid(name, "unknown attribute of %s", f.table.Name)
			}
			nv, err := col.Normalize(value)
			if err != nil {
				return v, invalid(name, "expects a %s value", col.Kind)
			}
			normalized[name] = nv
		}
		v.Extra = normalized
	}

	return v, nil
}
