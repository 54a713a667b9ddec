// ABOUTME: Store interfaces and row types for Part-DB persistence
// ABOUTME: Defines NodeRow, Attachment, the Conn operations and the transactional Store

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ErrUnknownTable is returned for a table name outside the node table registry
var ErrUnknownTable = errors.New("unknown node table")

// NodeRow is one persisted record of a node table.
type NodeRow struct {
	ID           int64
	ParentID     int64 // 0 for children of the root (stored as NULL)
	Name         string
	Comment      string
	Extra        map[string]any // keyed by column name; string, int64 or bool
	LastModified time.Time
	CreatedAt    time.Time
}

// Attachment is a file record attached to a node.
type Attachment struct {
	ID          int64
	ElementType string // node table name
	ElementID   int64
	Name        string
	Filename    string
	CreatedAt   time.Time
}

// SubjectType distinguishes users from groups in permission records
type SubjectType string

const (
	SubjectUser  SubjectType = "user"
	SubjectGroup SubjectType = "group"
)

// PermissionRecord is the stored bitmask of one subject for one category.
type PermissionRecord struct {
	SubjectType SubjectType
	SubjectID   string
	Category    string
	Bits        int32
	UpdatedAt   time.Time
}

// Conn holds the operations available both on the store and inside a transaction.
type Conn interface {
	// Nodes
	ListNodes(ctx context.Context, table string) ([]NodeRow, error)
	GetNodeRow(ctx context.Context, table string, id int64) (*NodeRow, error)
	InsertNode(ctx context.Context, table string, row *NodeRow) error
	UpdateNode(ctx context.Context, table string, row *NodeRow) error
	ReparentChildren(ctx context.Context, table string, fromParent, toParent int64) (int64, error)
	DeleteNodeRow(ctx context.Context, table string, id int64) error

	// Attachments
	AddAttachment(ctx context.Context, a *Attachment) error
	ListAttachments(ctx context.Context, elementType string, elementID int64) ([]Attachment, error)
	DeleteAttachmentsFor(ctx context.Context, elementType string, elementID int64) (int64, error)

	// Permission records
	CreatePermissions(ctx context.Context, subjectType SubjectType, subjectID string, categories []string) error
	GetBitmask(ctx context.Context, subjectType SubjectType, subjectID, category string) (int32, error)
	SetBitmask(ctx context.Context, subjectType SubjectType, subjectID, category string, bits int32) error
	ListPermissions(ctx context.Context, subjectType SubjectType, subjectID string) ([]PermissionRecord, error)
	DeletePermissions(ctx context.Context, subjectType SubjectType, subjectID string) (int64, error)

	// Audit log
	AppendAuditLog(ctx context.Context, e *AuditEntry) error
	ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

// Store is a Conn that can run a function inside one transaction.
type Store interface {
	Conn

	// WithTx commits when fn returns nil and rolls back on error or panic.
	WithTx(ctx context.Context, fn func(tx Conn) error) error

	// Tables returns the node table schemas known to the store.
	Tables() []TableSchema

	// Close releases any resources held by the store
	Close() error
}
