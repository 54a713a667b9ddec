// ABOUTME: Permission engine resolving and writing bit-packed capability fields
// ABOUTME: Applies one-directional derivation rules and gates callers via CanDo/TryDo

package perm

import (
	"log/slog"
)

// Subject is the acting identity. Bitmask returns the subject's resolved
// bitmask for a category; unknown categories return 0 (all inherit).
type Subject interface {
	SubjectID() string
	Bitmask(category string) int32
}

// DenialObserver is notified of every denied TryDo.
type DenialObserver interface {
	PermissionDenied(category, operation string)
}

// Field is one decoded operation of a bitmask.
type Field struct {
	Operation Operation
	Value     Value
}

// Engine resolves permissions against a Registry. It holds no per-subject state
// and is safe for concurrent use.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
	observer DenialObserver
}

// NewEngine creates an engine over the given registry. A nil registry uses
// DefaultRegistry.
func NewEngine(registry *Registry) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Engine{
		registry: registry,
		logger:   slog.Default().With("component", "perm"),
	}
}

// WithObserver sets the observer notified on denials and returns the engine.
func (e *Engine) WithObserver(o DenialObserver) *Engine {
	e.observer = o
	return e
}

// Registry returns the engine's category registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) lookup(category, op string) (*Category, Operation, error) {
	c, ok := e.registry.Category(category)
	if !ok {
		return nil, Operation{}, Faultf("unknown permission category %q", category)
	}
	o, ok := c.Operation(op)
	if !ok {
		return nil, Operation{}, Faultf("unknown operation %q in category %q", op, category)
	}
	return c, o, nil
}

// Resolve extracts the value of op from bitmask.
func (e *Engine) Resolve(bitmask int32, category, op string) (Value, error) {
	_, o, err := e.lookup(category, op)
	if err != nil {
		return Inherit, err
	}
	return readField(bitmask, o.Offset), nil
}

// MustResolve is Resolve for callers that pass compile-time constant names.
// It panics on a ConsistencyFault.
func (e *Engine) MustResolve(bitmask int32, category, op string) Value {
	v, err := e.Resolve(bitmask, category, op)
	if err != nil {
		panic(err)
	}
	return v
}

// SetValue writes v into op's field and applies the category's derivation
// rules. Setting a value other than Allow never touches other fields.
func (e *Engine) SetValue(bitmask int32, category, op string, v Value) (int32, error) {
	c, o, err := e.lookup(category, op)
	if err != nil {
		return bitmask, err
	}
	if !v.Valid() {
		return bitmask, Faultf("invalid permission value %d for %s.%s", uint8(v), category, op)
	}

	bitmask = writeField(bitmask, o.Offset, v)
	if v != Allow {
		return bitmask, nil
	}

	// Rules may chain; each pass grants at least one new field or stops.
	granted := map[string]bool{op: true}
	for range len(c.Operations) {
		changed := false
		for _, r := range c.Rules {
			if granted[r.Implies] || !triggered(r, granted) {
				continue
			}
			implied, _ := c.Operation(r.Implies)
			bitmask = writeField(bitmask, implied.Offset, Allow)
			granted[r.Implies] = true
			changed = true
		}
		if !changed {
			break
		}
	}
	return bitmask, nil
}

func triggered(r Rule, granted map[string]bool) bool {
	for _, t := range r.Triggers {
		if granted[t] {
			return true
		}
	}
	return false
}

// CanDo reports whether subject's resolved value for op is Allow.
func (e *Engine) CanDo(subject Subject, category, op string) (bool, error) {
	v, err := e.Resolve(subject.Bitmask(category), category, op)
	if err != nil {
		e.logger.Error("permission check against unregistered operation",
			"category", category, "operation", op, "error", err)
		return false, err
	}
	return v == Allow, nil
}

// TryDo returns a *PermissionError unless subject may perform op.
func (e *Engine) TryDo(subject Subject, category, op string) error {
	v, err := e.Resolve(subject.Bitmask(category), category, op)
	if err != nil {
		e.logger.Error("permission check against unregistered operation",
			"category", category, "operation", op, "error", err)
		return err
	}
	if v == Allow {
		return nil
	}
	if e.observer != nil {
		e.observer.PermissionDenied(category, op)
	}
	return &PermissionError{
		SubjectID: subject.SubjectID(),
		Category:  category,
		Operation: op,
		Value:     v,
	}
}

// Describe decodes every operation of category from bitmask, in registry order.
func (e *Engine) Describe(bitmask int32, category string) ([]Field, error) {
	c, ok := e.registry.Category(category)
	if !ok {
		return nil, Faultf("unknown permission category %q", category)
	}
	fields := make([]Field, len(c.Operations))
	for i, op := range c.Operations {
		fields[i] = Field{Operation: op, Value: readField(bitmask, op.Offset)}
	}
	return fields, nil
}

// Overlay fills every inherit field of bitmask with the corresponding field of
// fallback. Derivation rules are not applied. Used to resolve a subject against
// the scope it inherits from.
func (e *Engine) Overlay(bitmask int32, category string, fallback int32) (int32, error) {
	c, ok := e.registry.Category(category)
	if !ok {
		return bitmask, Faultf("unknown permission category %q", category)
	}
	for _, op := range c.Operations {
		if readField(bitmask, op.Offset) != Inherit {
			continue
		}
		bitmask = writeField(bitmask, op.Offset, readField(fallback, op.Offset))
	}
	return bitmask, nil
}
