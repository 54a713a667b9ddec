// ABOUTME: Request context helpers for hosts that carry the acting subject
// ABOUTME: The core APIs never read this; callers pass the subject explicitly

package auth

import (
	"context"
)

// subjectKey is the key type for storing a Subject in context.Context.
type subjectKey struct{}

// WithSubject returns a new context with the subject attached.
func WithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, s)
}

// FromContext retrieves the Subject from the context, returning nil if not present.
func FromContext(ctx context.Context) *Subject {
	s, ok := ctx.Value(subjectKey{}).(*Subject)
	if !ok {
		return nil
	}
	return s
}

// MustFromContext retrieves the Subject from the context, panicking if not present.
func MustFromContext(ctx context.Context) *Subject {
	s := FromContext(ctx)
	if s == nil {
		panic("auth: Subject not found in context")
	}
	return s
}
