// Package perm implements the bit-packed permission model.
//
// # Encoding
//
// Every permission category stores its decisions in one 32-bit integer per
// subject. Each operation of the category owns a 2-bit field at a fixed, even
// bit offset:
//
//	00 inherit  (defer to the next broader scope)
//	01 deny
//	10 allow
//	11 reserved (decoded as inherit)
//
// Offsets never move once a category ships. New operations are appended at
// unused offsets up to bit 30.
//
// # Categories
//
// Categories are data: a Category value lists its operations and derivation
// rules, and a Registry selects them by name at runtime. DefaultRegistry
// returns the built-in Part-DB categories:
//
//   - one structural category per tree table (read, edit, create, move,
//     delete, show_users), where granting any of edit/create/move/delete also
//     grants read
//   - database (see_status, update, read_settings, write_settings)
//   - tools
//
// # Derivation
//
// SetValue applies derivation rules only when a value is set to Allow. Revoking
// a prerequisite never revokes the capabilities that implied it.
//
// # Checking
//
// Engine.CanDo and Engine.TryDo take the acting Subject explicitly. The
// subject's bitmask is expected to be resolved already (see package auth); an
// Inherit result is treated as "not allowed" and is not escalated here.
//
// # Errors
//
//   - PermissionError (errors.Is ErrPermission): the subject lacks the
//     capability. Recoverable, surfaced to the user.
//   - ConsistencyFault (errors.Is ErrConsistency): unknown category or
//     operation. A programming defect, logged at error level.
package perm
