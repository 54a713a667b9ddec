// Package store provides persistent storage for Part-DB trees and permissions.
//
// # Architecture
//
// Conn carries every row-level operation. Store adds WithTx, which hands fn a
// Conn bound to one transaction; callers run multi-step mutations and their
// cascade hooks through it so a failure anywhere leaves no partial change.
//
// SQLStore implements Store on database/sql for three drivers:
//
//   - "sqlite": modernc.org/sqlite, pure Go (default)
//   - "sqlite3": github.com/mattn/go-sqlite3, cgo
//   - "postgres": github.com/lib/pq
//
// Queries are written with ? placeholders and rebound to $n for PostgreSQL.
//
// # Data Models
//
//   - NodeRow: one row of a node table (categories, storelocations, ...)
//   - Attachment: file record linked to a node row
//   - PermissionRecord: 32-bit permission mask of a user or group per category
//   - AuditEntry: who changed which node or subject, and when
//
// A NULL parent_id means the row is a direct child of the synthetic root;
// NodeRow reports that as ParentID 0.
//
// # SQLite Configuration
//
// Foreign keys, WAL and a busy timeout are set through the DSN so every pooled
// connection gets them.
//
// # Error Handling
//
//   - ErrNotFound: requested row does not exist
//   - ErrUnknownTable: table name outside NodeTables
//
// # Testing
//
// Use NewSQLiteStore with a t.TempDir path for integration tests, and Wrap
// around a go-sqlmock handle for dialect and transaction tests.
package store
