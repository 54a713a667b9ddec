// ABOUTME: Error types for permission checks
// ABOUTME: PermissionError is user-facing; ConsistencyFault marks programming defects

package perm

import (
	"errors"
	"fmt"
)

// ErrPermission matches every *PermissionError via errors.Is.
var ErrPermission = errors.New("permission denied")

// ErrConsistency matches every *ConsistencyFault via errors.Is.
var ErrConsistency = errors.New("consistency fault")

// PermissionError reports that a subject may not perform an operation.
type PermissionError struct {
	SubjectID string
	Category  string
	Operation string
	Value     Value // the resolved field value (inherit or deny)
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s may not %s %s (%s)", e.SubjectID, e.Operation, e.Category, e.Value)
}

// Is makes errors.Is(err, ErrPermission) match.
func (e *PermissionError) Is(target error) bool {
	return target == ErrPermission
}

// ConsistencyFault reports a programming defect such as an unregistered
// operation name. It must never be silently swallowed.
type ConsistencyFault struct {
	Reason string
}

func (e *ConsistencyFault) Error() string {
	return "consistency fault: " + e.Reason
}

// Is makes errors.Is(err, ErrConsistency) match.
func (e *ConsistencyFault) Is(target error) bool {
	return target == ErrConsistency
}

// Faultf builds a ConsistencyFault with a formatted reason.
func Faultf(format string, args ...any) *ConsistencyFault {
	return &ConsistencyFault{Reason: fmt.Sprintf(format, args...)}
}
