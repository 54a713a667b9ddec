// ABOUTME: Unit tests for subject context helpers
// ABOUTME: Tests attach, retrieve and the panicking accessor

package auth

import (
	"context"
	"testing"

	"github.com/partdb/partdb-core/internal/store"
)

func TestFromContext_RoundTrip(t *testing.T) {
	s := &Subject{ID: "alice", Kind: store.SubjectUser}
	ctx := WithSubject(context.Background(), s)

	if got := FromContext(ctx); got != s {
		t.Errorf("FromContext() = %v, want %v", got, s)
	}
}

func TestFromContext_Missing(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("FromContext() = %v, want nil", got)
	}
}

func TestMustFromContext_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustFromContext() did not panic")
		}
	}()
	MustFromContext(context.Background())
}
