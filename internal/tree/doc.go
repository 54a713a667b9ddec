// Package tree implements the hierarchical node tables of Part-DB.
//
// Every table is a forest below a synthetic root with id 0, which is never
// persisted. Each operation reads the table into a Forest, an arena indexed by
// id, so derived values (level, full path, children) always come from fresh
// rows; nothing is cached across calls. Caching for one request is provided
// by package treecache.
//
// Service gates every call with the permission engine against the table's
// category: READ for reads, CREATE for Add, MOVE for parent changes, EDIT for
// other field changes and DELETE for Delete. Mutations run inside one store
// transaction together with their audit entries and cascade hooks.
//
// Errors:
//
//   - *ValidationError (errors.Is ErrValidation): bad input, duplicate sibling
//     name, cycle, attempts to modify the root
//   - *NotFoundError (errors.Is ErrNotFound): missing node or parent
//   - *perm.PermissionError: missing capability, nothing was written
//   - *perm.ConsistencyFault: stored data breaks the forest shape
package tree
