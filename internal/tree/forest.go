// ABOUTME: Per-operation arena of one table's rows indexed by id
// ABOUTME: All walks are bounded by the table size so stored cycles surface as faults

package tree

import (
	"cmp"
	"slices"
	"strings"

	"github.com/partdb/partdb-core/internal/markup"
	"github.com/partdb/partdb-core/internal/perm"
	"github.com/partdb/partdb-core/internal/store"
)

// Forest holds every row of one table as read at the start of an operation.
// It is never shared across requests.
type Forest struct {
	table Table
	nodes map[int64]*Node
	names map[int64]string  // stored names, compared for sibling uniqueness
	kids  map[int64][]int64 // parent id -> child ids sorted by name then id
}

// NewForest builds the arena for table from rows.
func NewForest(table Table, rows []store.NodeRow) *Forest {
	f := &Forest{
		table: table,
		nodes: make(map[int64]*Node, len(rows)+1),
		names: make(map[int64]string, len(rows)),
		kids:  make(map[int64][]int64),
	}
	f.nodes[RootID] = &Node{ID: RootID, ParentID: -1, Name: table.RootName, Level: -1}

	for _, r := range rows {
		f.nodes[r.ID] = &Node{
			ID:           r.ID,
			ParentID:     r.ParentID,
			Name:         markup.StripTags(r.Name),
			Comment:      r.Comment,
			Extra:        r.Extra,
			LastModified: r.LastModified,
			CreatedAt:    r.CreatedAt,
		}
		f.names[r.ID] = r.Name
		f.kids[r.ParentID] = append(f.kids[r.ParentID], r.ID)
	}

	for parent := range f.kids {
		slices.SortFunc(f.kids[parent], func(a, b int64) int {
			return cmp.Or(strings.Compare(f.nodes[a].Name, f.nodes[b].Name), cmp.Compare(a, b))
		})
	}
	return f
}

// Table returns the table the forest was built for.
func (f *Forest) Table() Table {
	return f.table
}

// Len returns the number of persisted nodes.
func (f *Forest) Len() int {
	return len(f.nodes) - 1
}

// Has reports whether id is the root or a persisted node.
func (f *Forest) Has(id int64) bool {
	_, ok := f.nodes[id]
	return ok
}

func (f *Forest) get(id int64) (*Node, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, &NotFoundError{Table: f.table.Name, ID: id}
	}
	return n, nil
}

// ancestors returns id's chain from itself up to, but excluding, the root.
func (f *Forest) ancestors(id int64) ([]*Node, error) {
	n, err := f.get(id)
	if err != nil {
		return nil, err
	}

	var chain []*Node
	for steps := 0; n.ID != RootID; steps++ {
		if steps >= f.Len() {
			return nil, perm.Faultf("%s: parent chain of %d does not reach the root", f.table.Name, id)
		}
		chain = append(chain, n)
		parent, ok := f.nodes[n.ParentID]
		if !ok {
			return nil, perm.Faultf("%s: node %d references missing parent %d", f.table.Name, n.ID, n.ParentID)
		}
		n = parent
	}
	return chain, nil
}

// Level returns the number of hops from the root minus one; the root is -1.
func (f *Forest) Level(id int64) (int, error) {
	chain, err := f.ancestors(id)
	if err != nil {
		return 0, err
	}
	return len(chain) - 1, nil
}

// Path returns ancestor names root-exclusive with id's own name last.
func (f *Forest) Path(id int64) ([]string, error) {
	chain, err := f.ancestors(id)
	if err != nil {
		return nil, err
	}
	path := make([]string, len(chain))
	for i, n := range chain {
		path[len(chain)-1-i] = n.Name
	}
	return path, nil
}

// IsDescendantOf reports whether b is in a's ancestor chain. The root is an
// ancestor of every persisted node; no node descends from itself.
func (f *Forest) IsDescendantOf(a, b int64) (bool, error) {
	if a == RootID {
		return false, nil
	}
	if b == RootID {
		_, err := f.ancestors(a)
		return err == nil, err
	}
	chain, err := f.ancestors(a)
	if err != nil {
		return false, err
	}
	for _, n := range chain[1:] {
		if n.ID == b {
			return true, nil
		}
	}
	return false, nil
}

// ChildIDs returns id's direct children in listing order.
func (f *Forest) ChildIDs(id int64) []int64 {
	return f.kids[id]
}

// Descendants returns id's subtree in pre-order, excluding id itself.
func (f *Forest) Descendants(id int64) ([]int64, error) {
	if _, err := f.get(id); err != nil {
		return nil, err
	}

	var out []int64
	stack := slices.Clone(f.kids[id])
	slices.Reverse(stack)
	for len(stack) > 0 {
		if len(out) >= f.Len() {
			return nil, perm.Faultf("%s: subtree of %d contains a cycle", f.table.Name, id)
		}
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, next)

		kids := f.kids[next]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out, nil
}

// Snapshot returns a copy of id with Level and FullPath filled in. When
// withChildren is set, Children holds direct children with their own derived
// fields.
func (f *Forest) Snapshot(id int64, withChildren bool) (*Node, error) {
	n, err := f.get(id)
	if err != nil {
		return nil, err
	}
	out := n.clone()
	if out.Level, err = f.Level(id); err != nil {
		return nil, err
	}
	if out.FullPath, err = f.Path(id); err != nil {
		return nil, err
	}
	if !withChildren {
		return out, nil
	}

	out.Children = make([]*Node, 0, len(f.kids[id]))
	for _, kid := range f.kids[id] {
		c := f.nodes[kid].clone()
		c.Level = out.Level + 1
		c.FullPath = append(slices.Clone(out.FullPath), c.Name)
		out.Children = append(out.Children, c)
	}
	return out, nil
}

// CheckIntegrity walks every node to the root, returning a fault for the
// first node whose chain is broken or cyclic.
func (f *Forest) CheckIntegrity() error {
	ids := make([]int64, 0, len(f.nodes))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if _, err := f.ancestors(id); err != nil {
			return err
		}
	}
	return nil
}
