// ABOUTME: Permission-gated tree operations over the node tables
// ABOUTME: Reads build a fresh forest; mutations validate and write inside one transaction

package tree

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/partdb/partdb-core/internal/markup"
	"github.com/partdb/partdb-core/internal/perm"
	"github.com/partdb/partdb-core/internal/store"
)

// Observer is notified once per completed operation.
type Observer interface {
	TreeOperation(table, op, outcome string)
}

// CascadeFunc cleans up resources tied to a removed node. It runs inside the
// delete transaction; returning an error rolls the whole delete back.
type CascadeFunc func(ctx context.Context, tx store.Conn, table string, n *Node) error

// Changes is a partial update. Nil fields are left unchanged; Extra entries
// overwrite the named attributes.
type Changes struct {
	Name     *string
	ParentID *int64
	Comment  *string
	Extra    map[string]any
}

func (c Changes) edits() bool {
	return c.Name != nil || c.Comment != nil || len(c.Extra) > 0
}

// Service implements the tree operations. Every call takes the acting subject
// explicitly; the service holds no per-request state.
type Service struct {
	store    store.Store
	engine   *perm.Engine
	tables   map[string]Table
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a service over st's tables.
func NewService(st store.Store, engine *perm.Engine) *Service {
	return &Service{
		store:  st,
		engine: engine,
		tables: TablesFrom(st.Tables()),
		logger: slog.Default().With("component", "tree"),
		now:    time.Now,
	}
}

// WithObserver sets the operation observer and returns the service.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Engine returns the permission engine used for gating.
func (s *Service) Engine() *perm.Engine {
	return s.engine
}

// Tables returns the known tables sorted by name.
func (s *Service) Tables() []Table {
	out := slices.Collect(maps.Values(s.tables))
	slices.SortFunc(out, func(a, b Table) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Table looks up a table by name.
func (s *Service) Table(name string) (Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return Table{}, invalid("table", "unknown table %q", name)
	}
	return t, nil
}

func (s *Service) observe(table, op string, err error) {
	if errors.Is(err, perm.ErrConsistency) {
		s.logger.Error("tree consistency fault", "table", table, "op", op, "error", err)
	}
	if s.observer != nil {
		s.observer.TreeOperation(table, op, Outcome(err))
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func (s *Service) load(ctx context.Context, q store.Conn, t Table) (*Forest, error) {
	rows, err := q.ListNodes(ctx, t.Name)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", t.Name, err)
	}
	return NewForest(t, rows), nil
}

// authorize resolves the table and checks op on its category.
func (s *Service) authorize(subject perm.Subject, table, op string) (Table, error) {
	t, err := s.Table(table)
	if err != nil {
		return t, err
	}
	return t, s.engine.TryDo(subject, t.Category, op)
}

// Forest returns a fresh forest of table after checking READ.
func (s *Service) Forest(ctx context.Context, subject perm.Subject, table string) (f *Forest, err error) {
	defer func() { s.observe(table, "forest", err) }()

	t, err := s.authorize(subject, table, perm.OpRead)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.store, t)
}

// GetNode returns one node with its direct children. id 0 is the root.
func (s *Service) GetNode(ctx context.Context, subject perm.Subject, table string, id int64) (n *Node, err error) {
	defer func() { s.observe(table, "get", err) }()

	t, err := s.authorize(subject, table, perm.OpRead)
	if err != nil {
		return nil, err
	}
	f, err := s.load(ctx, s.store, t)
	if err != nil {
		return nil, err
	}
	return f.Snapshot(id, true)
}

// Children lists id's direct children by name, or its whole subtree in
// pre-order when recursive is set.
func (s *Service) Children(ctx context.Context, subject perm.Subject, table string, id int64, recursive bool) (nodes []*Node, err error) {
	defer func() { s.observe(table, "children", err) }()

	t, err := s.authorize(subject, table, perm.OpRead)
	if err != nil {
		return nil, err
	}
	f, err := s.load(ctx, s.store, t)
	if err != nil {
		return nil, err
	}
	return f.ChildNodes(id, recursive)
}

// ChildNodes is the forest-level implementation of Service.Children.
func (f *Forest) ChildNodes(id int64, recursive bool) ([]*Node, error) {
	if !f.Has(id) {
		return nil, &NotFoundError{Table: f.table.Name, ID: id}
	}
	ids := f.kids[id]
	if recursive {
		var err error
		if ids, err = f.Descendants(id); err != nil {
			return nil, err
		}
	}

	nodes := make([]*Node, 0, len(ids))
	for _, kid := range ids {
		n, err := f.Snapshot(kid, false)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Level returns id's depth; the root is -1 and its children 0.
func (s *Service) Level(ctx context.Context, subject perm.Subject, table string, id int64) (level int, err error) {
	defer func() { s.observe(table, "level", err) }()

	t, err := s.authorize(subject, table, perm.OpRead)
	if err != nil {
		return 0, err
	}
	f, err := s.load(ctx, s.store, t)
	if err != nil {
		return 0, err
	}
	return f.Level(id)
}

// FullPath joins id's path with delimiter. The root's path is empty.
func (s *Service) FullPath(ctx context.Context, subject perm.Subject, table string, id int64, delimiter string) (path string, err error) {
	defer func() { s.observe(table, "full_path", err) }()

	t, err := s.authorize(subject, table, perm.OpRead)
	if err != nil {
		return "", err
	}
	f, err := s.load(ctx, s.store, t)
	if err != nil {
		return "", err
	}
	return f.FullPath(id, delimiter)
}

// IsDescendantOf reports whether b is an ancestor of a.
func (s *Service) IsDescendantOf(ctx context.Context, subject perm.Subject, table string, a, b int64) (ok bool, err error) {
	defer func() { s.observe(table, "is_descendant", err) }()

	t, err := s.authorize(subject, table, perm.OpRead)
	if err != nil {
		return false, err
	}
	f, err := s.load(ctx, s.store, t)
	if err != nil {
		return false, err
	}
	if !f.Has(b) {
		return false, &NotFoundError{Table: t.Name, ID: b}
	}
	return f.IsDescendantOf(a, b)
}

// Validate checks v against the current table contents without writing.
// existing is nil when validating a new node.
func (s *Service) Validate(ctx context.Context, table string, v Values, existing *Node) error {
	t, err := s.Table(table)
	if err != nil {
		return err
	}
	f, err := s.load(ctx, s.store, t)
	if err != nil {
		return err
	}
	_, err = f.Validate(v, existing)
	return err
}

// Add validates and inserts a new node.
func (s *Service) Add(ctx context.Context, subject perm.Subject, table string, v Values) (n *Node, err error) {
	defer func() { s.observe(table, "add", err) }()

	t, err := s.authorize(subject, table, perm.OpCreate)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx store.Conn) error {
		f, err := s.load(ctx, tx, t)
		if err != nil {
			return err
		}
		v, err = f.Validate(v, nil)
		if err != nil {
			return err
		}

		now := s.timestamp()
		row := &store.NodeRow{
			ParentID:     v.ParentID,
			Name:         v.Name,
			Comment:      v.Comment,
			Extra:        v.Extra,
			CreatedAt:    now,
			LastModified: now,
		}
		if err := tx.InsertNode(ctx, t.Name, row); err != nil {
			return err
		}

		parentPath, err := f.Path(v.ParentID)
		if err != nil {
			return err
		}
		fresh, err := tx.GetNodeRow(ctx, t.Name, row.ID)
		if err != nil {
			return err
		}
		name := markup.StripTags(v.Name)
		n = &Node{
			ID:           fresh.ID,
			ParentID:     fresh.ParentID,
			Name:         name,
			Comment:      fresh.Comment,
			Extra:        fresh.Extra,
			LastModified: fresh.LastModified,
			CreatedAt:    fresh.CreatedAt,
			Level:        len(parentPath),
			FullPath:     append(parentPath, name),
			Children:     []*Node{},
		}

		return tx.AppendAuditLog(ctx, &store.AuditEntry{
			ActorID:    subject.SubjectID(),
			Action:     store.AuditCreateNode,
			TargetType: t.Name,
			TargetID:   strconv.FormatInt(row.ID, 10),
			Detail:     map[string]any{"name": v.Name, "parent_id": v.ParentID},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("added node", "table", t.Name, "id", n.ID, "parent_id", n.ParentID, "actor", subject.SubjectID())
	return n, nil
}

// SetAttributes applies a partial update. A parent change needs MOVE, every
// other field needs EDIT; the whole change set is rejected when either is
// missing.
func (s *Service) SetAttributes(ctx context.Context, subject perm.Subject, table string, id int64, c Changes) (n *Node, err error) {
	defer func() { s.observe(table, "set_attributes", err) }()

	t, err := s.Table(table)
	if err != nil {
		return nil, err
	}
	if c.ParentID != nil {
		if err := s.engine.TryDo(subject, t.Category, perm.OpMove); err != nil {
			return nil, err
		}
	}
	if c.edits() {
		if err := s.engine.TryDo(subject, t.Category, perm.OpEdit); err != nil {
			return nil, err
		}
	}
	if c.ParentID == nil && !c.edits() {
		if err := s.engine.TryDo(subject, t.Category, perm.OpRead); err != nil {
			return nil, err
		}
	}
	if id == RootID {
		return nil, invalid("id", "the root node cannot be modified")
	}

	err = s.store.WithTx(ctx, func(tx store.Conn) error {
		f, err := s.load(ctx, tx, t)
		if err != nil {
			return err
		}
		current, err := f.get(id)
		if err != nil {
			return err
		}

		v := Values{
			Name:     f.names[id],
			ParentID: current.ParentID,
			Comment:  current.Comment,
			Extra:    maps.Clone(current.Extra),
		}
		if c.Name != nil {
			v.Name = *c.Name
		}
		if c.ParentID != nil {
			v.ParentID = *c.ParentID
		}
		if c.Comment != nil {
			v.Comment = *c.Comment
		}
		if v.Extra == nil && len(c.Extra) > 0 {
			v.Extra = make(map[string]any, len(c.Extra))
		}
		maps.Copy(v.Extra, c.Extra)

		v, err = f.Validate(v, current)
		if err != nil {
			return err
		}

		row := &store.NodeRow{
			ID:           id,
			ParentID:     v.ParentID,
			Name:         v.Name,
			Comment:      v.Comment,
			Extra:        v.Extra,
			CreatedAt:    current.CreatedAt,
			LastModified: s.timestamp(),
		}
		if err := tx.UpdateNode(ctx, t.Name, row); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return &NotFoundError{Table: t.Name, ID: id}
			}
			return err
		}

		target := strconv.FormatInt(id, 10)
		if v.ParentID != current.ParentID {
			if err := tx.AppendAuditLog(ctx, &store.AuditEntry{
				ActorID:    subject.SubjectID(),
				Action:     store.AuditMoveNode,
				TargetType: t.Name,
				TargetID:   target,
				Detail:     map[string]any{"from": current.ParentID, "to": v.ParentID},
			}); err != nil {
				return err
			}
		}
		if c.edits() {
			if err := tx.AppendAuditLog(ctx, &store.AuditEntry{
				ActorID:    subject.SubjectID(),
				Action:     store.AuditUpdateNode,
				TargetType: t.Name,
				TargetID:   target,
				Detail:     map[string]any{"name": v.Name},
			}); err != nil {
				return err
			}
		}

		after, err := s.load(ctx, tx, t)
		if err != nil {
			return err
		}
		n, err = after.Snapshot(id, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("updated node", "table", t.Name, "id", id, "actor", subject.SubjectID())
	return n, nil
}

// Delete removes id. With recursive set the whole subtree goes; otherwise the
// direct children move to id's parent, which fails if that would give two
// siblings the same name. cascade, when non-nil, runs for every removed node
// inside the same transaction.
func (s *Service) Delete(ctx context.Context, subject perm.Subject, table string, id int64, recursive bool, cascade CascadeFunc) (err error) {
	defer func() { s.observe(table, "delete", err) }()

	t, err := s.authorize(subject, table, perm.OpDelete)
	if err != nil {
		return err
	}
	if id == RootID {
		return invalid("id", "the root node cannot be deleted")
	}

	var removed int
	err = s.store.WithTx(ctx, func(tx store.Conn) error {
		f, err := s.load(ctx, tx, t)
		if err != nil {
			return err
		}
		node, err := f.Snapshot(id, false)
		if err != nil {
			return err
		}

		var doomed []int64
		if recursive {
			subtree, err := f.Descendants(id)
			if err != nil {
				return err
			}
			// Children before parents so no row ever references a deleted one.
			slices.Reverse(subtree)
			doomed = append(subtree, id)
		} else {
			if err := f.checkReparent(id, node.ParentID); err != nil {
				return err
			}
			if _, err := tx.ReparentChildren(ctx, t.Name, id, node.ParentID); err != nil {
				return err
			}
			doomed = []int64{id}
		}

		for _, victim := range doomed {
			snap, err := f.Snapshot(victim, false)
			if err != nil {
				return err
			}
			if err := tx.DeleteNodeRow(ctx, t.Name, victim); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return &NotFoundError{Table: t.Name, ID: victim}
				}
				return err
			}
			if cascade != nil {
				if err := cascade(ctx, tx, t.Name, snap); err != nil {
					return fmt.Errorf("cascade for %s %d: %w", t.Name, victim, err)
				}
			}
		}
		removed = len(doomed)

		return tx.AppendAuditLog(ctx, &store.AuditEntry{
			ActorID:    subject.SubjectID(),
			Action:     store.AuditDeleteNode,
			TargetType: t.Name,
			TargetID:   strconv.FormatInt(id, 10),
			Detail:     map[string]any{"name": node.Name, "recursive": recursive, "removed": removed},
		})
	})
	if err != nil {
		return err
	}

	s.logger.Debug("deleted node", "table", t.Name, "id", id, "recursive", recursive, "removed", removed, "actor", subject.SubjectID())
	return nil
}

// checkReparent fails when moving id's children under newParent would
// collide with an existing sibling name.
func (f *Forest) checkReparent(id, newParent int64) error {
	taken := make(map[string]bool)
	for _, sibling := range f.kids[newParent] {
		if sibling != id {
			taken[f.names[sibling]] = true
		}
	}
	for _, kid := range f.kids[id] {
		if taken[f.names[kid]] {
			return invalid("name", "child %q collides with an existing node under the new parent", f.names[kid])
		}
	}
	return nil
}

// FullPath joins id's path with delimiter.
func (f *Forest) FullPath(id int64, delimiter string) (string, error) {
	path, err := f.Path(id)
	if err != nil {
		return "", err
	}
	return joinPath(path, delimiter), nil
}
