// ABOUTME: Resolved subject carrying one permission bitmask per category
// ABOUTME: Merge applies user-over-group inheritance field by field

package auth

import (
	"maps"

	"github.com/partdb/partdb-core/internal/perm"
	"github.com/partdb/partdb-core/internal/store"
)

// Subject is a user or group with bitmasks already resolved.
type Subject struct {
	ID   string
	Kind store.SubjectType
	Bits map[string]int32
}

var _ perm.Subject = (*Subject)(nil)

func (s *Subject) SubjectID() string {
	return s.ID
}

// Bitmask returns the mask for category; missing categories are all inherit.
func (s *Subject) Bitmask(category string) int32 {
	return s.Bits[category]
}

// Superuser returns a subject allowed every operation of every registered
// category.
func Superuser(engine *perm.Engine, id string) (*Subject, error) {
	s := &Subject{ID: id, Kind: store.SubjectUser, Bits: map[string]int32{}}
	for _, name := range engine.Registry().Names() {
		c, _ := engine.Registry().Category(name)
		var mask int32
		for _, op := range c.Operations {
			var err error
			if mask, err = engine.SetValue(mask, name, op.Name, perm.Allow); err != nil {
				return nil, err
			}
		}
		s.Bits[name] = mask
	}
	return s, nil
}

// Merge resolves child against parents. For every operation the child's own
// value wins unless it is inherit; then the first parent with a non-inherit
// value decides.
func Merge(engine *perm.Engine, child *Subject, parents ...*Subject) (*Subject, error) {
	out := &Subject{ID: child.ID, Kind: child.Kind, Bits: maps.Clone(child.Bits)}
	if out.Bits == nil {
		out.Bits = map[string]int32{}
	}

	for _, name := range engine.Registry().Names() {
		mask := out.Bits[name]
		for _, p := range parents {
			var err error
			if mask, err = engine.Overlay(mask, name, p.Bitmask(name)); err != nil {
				return nil, err
			}
		}
		if mask != 0 {
			out.Bits[name] = mask
		}
	}
	return out, nil
}
