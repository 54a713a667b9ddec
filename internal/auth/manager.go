// ABOUTME: Stored permission management for users and groups
// ABOUTME: Creates, resolves, edits and deletes subject bitmasks with audit entries

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/partdb/partdb-core/internal/perm"
	"github.com/partdb/partdb-core/internal/store"
)

// ErrUnknownSubject is returned when a subject has no permission records.
var ErrUnknownSubject = errors.New("unknown subject")

// Manager reads and writes the permission records of subjects. Edits are
// gated by the users category of the acting subject.
type Manager struct {
	store  store.Store
	engine *perm.Engine
	logger *slog.Logger
}

// NewManager creates a manager over st.
func NewManager(st store.Store, engine *perm.Engine) *Manager {
	return &Manager{
		store:  st,
		engine: engine,
		logger: slog.Default().With("component", "auth"),
	}
}

// Load returns the stored, unresolved bitmasks of one subject.
func (m *Manager) Load(ctx context.Context, kind store.SubjectType, id string) (*Subject, error) {
	records, err := m.store.ListPermissions(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownSubject, kind, id)
	}
	s := &Subject{ID: id, Kind: kind, Bits: make(map[string]int32, len(records))}
	for _, r := range records {
		s.Bits[r.Category] = r.Bits
	}
	return s, nil
}

// Resolve loads a user and the groups it inherits from, nearest first, and
// merges them into one subject.
func (m *Manager) Resolve(ctx context.Context, userID string, groupIDs ...string) (*Subject, error) {
	user, err := m.Load(ctx, store.SubjectUser, userID)
	if err != nil {
		return nil, err
	}
	groups := make([]*Subject, 0, len(groupIDs))
	for _, gid := range groupIDs {
		g, err := m.Load(ctx, store.SubjectGroup, gid)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return Merge(m.engine, user, groups...)
}

// CreateSubject stores all-inherit masks for every registered category.
func (m *Manager) CreateSubject(ctx context.Context, actor perm.Subject, kind store.SubjectType, id string) error {
	if err := m.engine.TryDo(actor, perm.CategoryUsers, perm.OpCreate); err != nil {
		return err
	}
	return m.store.WithTx(ctx, func(tx store.Conn) error {
		if err := tx.CreatePermissions(ctx, kind, id, m.engine.Registry().Names()); err != nil {
			return err
		}
		return tx.AppendAuditLog(ctx, &store.AuditEntry{
			ActorID:    actor.SubjectID(),
			Action:     store.AuditCreateSubject,
			TargetType: string(kind),
			TargetID:   id,
		})
	})
}

// DeleteSubject removes every permission record of a subject.
func (m *Manager) DeleteSubject(ctx context.Context, actor perm.Subject, kind store.SubjectType, id string) error {
	if err := m.engine.TryDo(actor, perm.CategoryUsers, perm.OpDelete); err != nil {
		return err
	}
	return m.store.WithTx(ctx, func(tx store.Conn) error {
		n, err := tx.DeletePermissions(ctx, kind, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s %q", ErrUnknownSubject, kind, id)
		}
		return tx.AppendAuditLog(ctx, &store.AuditEntry{
			ActorID:    actor.SubjectID(),
			Action:     store.AuditDeleteSubject,
			TargetType: string(kind),
			TargetID:   id,
			Detail:     map[string]any{"records": n},
		})
	})
}

// SetPermission writes one operation of a stored mask through the engine, so
// derivation rules apply, and returns the new mask.
func (m *Manager) SetPermission(ctx context.Context, actor perm.Subject, kind store.SubjectType, id, category, op string, v perm.Value) (int32, error) {
	if err := m.engine.TryDo(actor, perm.CategoryUsers, perm.OpEditPermissions); err != nil {
		return 0, err
	}

	var mask int32
	err := m.store.WithTx(ctx, func(tx store.Conn) error {
		before, err := tx.GetBitmask(ctx, kind, id, category)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s %q has no %s record", ErrUnknownSubject, kind, id, category)
		}
		if err != nil {
			return err
		}

		mask, err = m.engine.SetValue(before, category, op, v)
		if err != nil {
			return err
		}
		if err := tx.SetBitmask(ctx, kind, id, category, mask); err != nil {
			return err
		}
		return tx.AppendAuditLog(ctx, &store.AuditEntry{
			ActorID:    actor.SubjectID(),
			Action:     store.AuditSetPermission,
			TargetType: string(kind),
			TargetID:   id,
			Detail: map[string]any{
				"category":  category,
				"operation": op,
				"value":     v.String(),
				"before":    before,
				"after":     mask,
			},
		})
	})
	if err != nil {
		if errors.Is(err, perm.ErrConsistency) {
			m.logger.Error("permission write against unregistered operation", "category", category, "operation", op, "error", err)
		}
		return 0, err
	}

	m.logger.Debug("set permission", "subject", id, "kind", kind, "category", category, "operation", op, "value", v)
	return mask, nil
}
