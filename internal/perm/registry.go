// ABOUTME: Operation registries for permission categories
// ABOUTME: Categories are data selected by name; offsets are frozen once registered

package perm

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrCategoryExists is returned when registering a category name twice.
var ErrCategoryExists = errors.New("permission category already registered")

// Operation is one capability of a category and the offset of its 2-bit field.
type Operation struct {
	Name   string
	Offset uint
	Label  string
}

// Rule grants Implies whenever any of Triggers is set to Allow.
type Rule struct {
	Triggers []string
	Implies  string
}

// Category is the operation registry of one permission category.
type Category struct {
	Name       string
	Label      string
	Operations []Operation
	Rules      []Rule
}

// Operation looks up an operation by symbolic name.
func (c *Category) Operation(name string) (Operation, bool) {
	for _, op := range c.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// validate checks offsets and rule references.
func (c *Category) validate() error {
	if c.Name == "" {
		return errors.New("category name required")
	}
	names := make(map[string]bool, len(c.Operations))
	offsets := make(map[uint]string, len(c.Operations))
	for _, op := range c.Operations {
		if op.Name == "" {
			return fmt.Errorf("category %s: operation name required", c.Name)
		}
		if names[op.Name] {
			return fmt.Errorf("category %s: duplicate operation %q", c.Name, op.Name)
		}
		if op.Offset%2 != 0 {
			return fmt.Errorf("category %s: operation %q has odd offset %d", c.Name, op.Name, op.Offset)
		}
		if op.Offset > MaxOffset {
			return fmt.Errorf("category %s: operation %q offset %d exceeds %d", c.Name, op.Name, op.Offset, MaxOffset)
		}
		if other, ok := offsets[op.Offset]; ok {
			return fmt.Errorf("category %s: operations %q and %q share offset %d", c.Name, other, op.Name, op.Offset)
		}
		names[op.Name] = true
		offsets[op.Offset] = op.Name
	}
	for _, r := range c.Rules {
		if !names[r.Implies] {
			return fmt.Errorf("category %s: rule implies unknown operation %q", c.Name, r.Implies)
		}
		for _, t := range r.Triggers {
			if !names[t] {
				return fmt.Errorf("category %s: rule triggered by unknown operation %q", c.Name, t)
			}
			if t == r.Implies {
				return fmt.Errorf("category %s: operation %q implies itself", c.Name, t)
			}
		}
	}
	return nil
}

// Registry maps category names to their operation registries.
type Registry struct {
	mu         sync.RWMutex
	categories map[string]*Category
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{categories: make(map[string]*Category)}
}

// Register validates and adds a category. The category is copied.
func (r *Registry) Register(c Category) error {
	if err := c.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[c.Name]; ok {
		return fmt.Errorf("%w: %s", ErrCategoryExists, c.Name)
	}
	c.Operations = slices.Clone(c.Operations)
	c.Rules = slices.Clone(c.Rules)
	r.categories[c.Name] = &c
	return nil
}

// Category returns the named category.
func (r *Registry) Category(name string) (*Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[name]
	return c, ok
}

// Names returns all registered category names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.categories))
	for name := range r.categories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
