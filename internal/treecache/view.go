// ABOUTME: Request-scoped read cache over the tree service
// ABOUTME: Keeps loaded forests in a bounded LRU and drops a table on every mutation

package treecache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/partdb/partdb-core/internal/perm"
	"github.com/partdb/partdb-core/internal/tree"
)

// DefaultMaxEntries bounds the number of cached forests when no size is given.
const DefaultMaxEntries = 16

// Stats reports cache effectiveness for one view.
type Stats struct {
	Hits   int
	Misses int
	Tables int
}

// View serves reads for one subject within one request. It is not safe for
// concurrent use and must not outlive the request.
type View struct {
	svc     *tree.Service
	subject perm.Subject
	forests *lru.Cache[string, *tree.Forest]
	hits    int
	misses  int
}

// New creates a view for subject. maxEntries <= 0 uses DefaultMaxEntries.
func New(svc *tree.Service, subject perm.Subject, maxEntries int) (*View, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	forests, err := lru.New[string, *tree.Forest](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("creating forest cache: %w", err)
	}
	return &View{svc: svc, subject: subject, forests: forests}, nil
}

// Forest returns the cached forest of table, loading it on a miss.
func (v *View) Forest(ctx context.Context, table string) (*tree.Forest, error) {
	if f, ok := v.forests.Get(table); ok {
		v.hits++
		return f, nil
	}
	v.misses++

	f, err := v.svc.Forest(ctx, v.subject, table)
	if err != nil {
		return nil, err
	}
	v.forests.Add(table, f)
	return f, nil
}

// Invalidate drops the cached forest of table.
func (v *View) Invalidate(table string) {
	v.forests.Remove(table)
}

// Stats returns hit and miss counts since the view was created.
func (v *View) Stats() Stats {
	return Stats{Hits: v.hits, Misses: v.misses, Tables: v.forests.Len()}
}

// GetNode returns id with its direct children from the cached forest.
func (v *View) GetNode(ctx context.Context, table string, id int64) (*tree.Node, error) {
	f, err := v.Forest(ctx, table)
	if err != nil {
		return nil, err
	}
	return f.Snapshot(id, true)
}

// Children lists id's children, or its subtree in pre-order when recursive is set.
func (v *View) Children(ctx context.Context, table string, id int64, recursive bool) ([]*tree.Node, error) {
	f, err := v.Forest(ctx, table)
	if err != nil {
		return nil, err
	}
	return f.ChildNodes(id, recursive)
}

// Level returns id's depth; the root is -1.
func (v *View) Level(ctx context.Context, table string, id int64) (int, error) {
	f, err := v.Forest(ctx, table)
	if err != nil {
		return 0, err
	}
	return f.Level(id)
}

// FullPath joins id's ancestor names with delimiter.
func (v *View) FullPath(ctx context.Context, table string, id int64, delimiter string) (string, error) {
	f, err := v.Forest(ctx, table)
	if err != nil {
		return "", err
	}
	return f.FullPath(id, delimiter)
}

// TreeView returns the subtree below rootID as tree-view items.
func (v *View) TreeView(ctx context.Context, table string, rootID int64, hrefPattern string) ([]tree.TreeItem, error) {
	f, err := v.Forest(ctx, table)
	if err != nil {
		return nil, err
	}
	return f.TreeView(rootID, hrefPattern)
}

// Breadcrumb returns id's ancestors root-exclusive, id last.
func (v *View) Breadcrumb(ctx context.Context, table string, id int64) ([]*tree.Node, error) {
	f, err := v.Forest(ctx, table)
	if err != nil {
		return nil, err
	}
	return f.Breadcrumb(id)
}

// Add passes through to the service and invalidates table.
func (v *View) Add(ctx context.Context, table string, values tree.Values) (*tree.Node, error) {
	defer v.Invalidate(table)
	return v.svc.Add(ctx, v.subject, table, values)
}

// SetAttributes passes through to the service and invalidates table.
func (v *View) SetAttributes(ctx context.Context, table string, id int64, c tree.Changes) (*tree.Node, error) {
	defer v.Invalidate(table)
	return v.svc.SetAttributes(ctx, v.subject, table, id, c)
}

// Delete passes through to the service and invalidates table, including
// after a rolled back delete.
func (v *View) Delete(ctx context.Context, table string, id int64, recursive bool, cascade tree.CascadeFunc) error {
	defer v.Invalidate(table)
	return v.svc.Delete(ctx, v.subject, table, id, recursive, cascade)
}
