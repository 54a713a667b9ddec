// ABOUTME: Presentation data built from a forest: tree-view items and breadcrumbs
// ABOUTME: Returns plain data; escaping is left to the renderer

package tree

import (
	"context"
	"strconv"
	"strings"

	"github.com/partdb/partdb-core/internal/perm"
)

// TreeItem is one entry of a bootstrap-treeview data set.
type TreeItem struct {
	ID    int64      `json:"-"`
	Text  string     `json:"text"`
	Href  string     `json:"href,omitempty"`
	Nodes []TreeItem `json:"nodes,omitempty"`
}

// TreeView returns the subtree below rootID as nested items. Every %ID% in
// hrefPattern is replaced by the item's id.
func (f *Forest) TreeView(rootID int64, hrefPattern string) ([]TreeItem, error) {
	if !f.Has(rootID) {
		return nil, &NotFoundError{Table: f.table.Name, ID: rootID}
	}
	// Descendants bounds the walk; the recursion below only follows ids it saw.
	if _, err := f.Descendants(rootID); err != nil {
		return nil, err
	}
	return f.items(rootID, hrefPattern), nil
}

func (f *Forest) items(parent int64, hrefPattern string) []TreeItem {
	kids := f.kids[parent]
	if len(kids) == 0 {
		return nil
	}
	out := make([]TreeItem, 0, len(kids))
	for _, id := range kids {
		item := TreeItem{ID: id, Text: f.nodes[id].Name, Nodes: f.items(id, hrefPattern)}
		if hrefPattern != "" {
			item.Href = strings.ReplaceAll(hrefPattern, "%ID%", strconv.FormatInt(id, 10))
		}
		out = append(out, item)
	}
	return out
}

// Breadcrumb returns id's ancestors root-exclusive with id itself last.
func (f *Forest) Breadcrumb(id int64) ([]*Node, error) {
	chain, err := f.ancestors(id)
	if err != nil {
		return nil, err
	}
	crumbs := make([]*Node, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		n, err := f.Snapshot(chain[i].ID, false)
		if err != nil {
			return nil, err
		}
		crumbs = append(crumbs, n)
	}
	return crumbs, nil
}

// TreeView checks READ and returns the tree-view items below rootID.
func (s *Service) TreeView(ctx context.Context, subject perm.Subject, table string, rootID int64, hrefPattern string) (items []TreeItem, err error) {
	defer func() { s.observe(table, "tree_view", err) }()

	t, err := s.authorize(subject, table, perm.OpRead)
	if err != nil {
		return nil, err
	}
	f, err := s.load(ctx, s.store, t)
	if err != nil {
		return nil, err
	}
	return f.TreeView(rootID, hrefPattern)
}

// Breadcrumb checks READ and returns id's breadcrumb chain.
func (s *Service) Breadcrumb(ctx context.Context, subject perm.Subject, table string, id int64) (crumbs []*Node, err error) {
	defer func() { s.observe(table, "breadcrumb", err) }()

	t, err := s.authorize(subject, table, perm.OpRead)
	if err != nil {
		return nil, err
	}
	f, err := s.load(ctx, s.store, t)
	if err != nil {
		return nil, err
	}
	return f.Breadcrumb(id)
}

func joinPath(path []string, delimiter string) string {
	return strings.Join(path, delimiter)
}
