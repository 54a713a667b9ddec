// Package auth supplies acting subjects to the tree and permission core.
//
// # Subjects
//
// A Subject carries one resolved 32-bit mask per permission category and
// implements perm.Subject. Users inherit from groups: Merge fills every
// inherit field of the user's mask from the first group, nearest first, that
// has a non-inherit value for it. The engine itself never walks inheritance.
//
// # Stored Permissions
//
// Manager creates all-inherit records when a subject is created, edits single
// operations through the engine (so derivation rules apply) and removes the
// records only together with the subject. Every change is audited. Edits are
// gated by the acting subject's "users" category:
//
//   - create: CreateSubject
//   - edit_permissions: SetPermission
//   - delete: DeleteSubject
//
// # Tokens
//
// JWTVerifier issues and checks HS256 tokens naming a user and its groups, for
// tools that act on behalf of a stored subject.
//
// # Context
//
// WithSubject/FromContext carry a subject through host request handlers. The
// core APIs do not read it; they take the subject as an argument.
package auth
