// ABOUTME: Node snapshot type returned by every tree read and mutation
// ABOUTME: Derived fields (level, path, children) are computed from a fresh forest

package tree

import (
	"maps"
	"time"
)

// RootID is the id of the synthetic root of every table.
const RootID int64 = 0

// Node is a snapshot of one record. ParentID 0 means child of the root; the
// root itself has ID 0, ParentID -1 and Level -1 and is never persisted.
type Node struct {
	ID           int64
	ParentID     int64
	Name         string // markup stripped
	Comment      string
	Extra        map[string]any
	LastModified time.Time
	CreatedAt    time.Time

	Level    int
	FullPath []string // ancestor names root-exclusive, self last; empty for the root
	Children []*Node  // direct children by name; nil unless requested
}

// IsRoot reports whether n is the synthetic root.
func (n *Node) IsRoot() bool {
	return n.ID == RootID
}

// ParentName returns the parent's name, or "" for the root and its children.
func (n *Node) ParentName() string {
	if len(n.FullPath) < 2 {
		return ""
	}
	return n.FullPath[len(n.FullPath)-2]
}

func (n *Node) clone() *Node {
	c := *n
	c.Extra = maps.Clone(n.Extra)
	c.FullPath = append([]string(nil), n.FullPath...)
	c.Children = nil
	return &c
}
