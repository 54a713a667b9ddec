// ABOUTME: Permission bitmask records for users and groups
// ABOUTME: One signed 32-bit mask per subject and category, created with all fields INHERIT

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Valid reports whether t is a known subject type.
func (t SubjectType) Valid() bool {
	return t == SubjectUser || t == SubjectGroup
}

// CreatePermissions inserts a zero (all INHERIT) mask for every category.
// Existing records are left untouched, so this is safe to repeat.
func (c *conn) CreatePermissions(ctx context.Context, subjectType SubjectType, subjectID string, categories []string) error {
	if !subjectType.Valid() {
		return fmt.Errorf("invalid subject type %q", subjectType)
	}

	query := `
		INSERT INTO permissions (subject_type, subject_id, category, bits, updated_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (subject_type, subject_id, category) DO NOTHING
	`

	now := time.Now().UTC().Format(time.RFC3339)
	for _, category := range categories {
		if _, err := c.exec(ctx, query, subjectType, subjectID, category, now); err != nil {
			return fmt.Errorf("creating permission %s: %w", category, err)
		}
	}

	c.logger.Debug("created permissions", "subject_type", subjectType, "subject_id", subjectID, "categories", len(categories))
	return nil
}

// GetBitmask returns the stored mask. Returns ErrNotFound if no record exists.
func (c *conn) GetBitmask(ctx context.Context, subjectType SubjectType, subjectID, category string) (int32, error) {
	query := `
		SELECT bits FROM permissions
		WHERE subject_type = ? AND subject_id = ? AND category = ?
	`

	var bits int64
	err := c.queryRow(ctx, query, subjectType, subjectID, category).Scan(&bits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("getting bitmask: %w", err)
	}

	return int32(bits), nil
}

// SetBitmask stores the mask, creating the record if needed.
func (c *conn) SetBitmask(ctx context.Context, subjectType SubjectType, subjectID, category string, bits int32) error {
	if !subjectType.Valid() {
		return fmt.Errorf("invalid subject type %q", subjectType)
	}

	query := `
		INSERT INTO permissions (subject_type, subject_id, category, bits, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (subject_type, subject_id, category)
		DO UPDATE SET bits = excluded.bits, updated_at = excluded.updated_at
	`

	_, err := c.exec(ctx, query,
		subjectType,
		subjectID,
		category,
		int64(bits),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("setting bitmask: %w", err)
	}

	c.logger.Debug("set bitmask", "subject_type", subjectType, "subject_id", subjectID, "category", category, "bits", bits)
	return nil
}

// ListPermissions returns every record of a subject ordered by category.
// Returns an empty slice if the subject has none.
func (c *conn) ListPermissions(ctx context.Context, subjectType SubjectType, subjectID string) ([]PermissionRecord, error) {
	query := `
		SELECT category, bits, updated_at FROM permissions
		WHERE subject_type = ? AND subject_id = ?
		ORDER BY category
	`

	rows, err := c.query(ctx, query, subjectType, subjectID)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	defer rows.Close()

	records := []PermissionRecord{}
	for rows.Next() {
		var category, updatedStr string
		var bits int64
		if err := rows.Scan(&category, &bits, &updatedStr); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		updated, err := time.Parse(time.RFC3339, updatedStr)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		records = append(records, PermissionRecord{
			SubjectType: subjectType,
			SubjectID:   subjectID,
			Category:    category,
			Bits:        int32(bits),
			UpdatedAt:   updated,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permissions: %w", err)
	}

	return records, nil
}

// DeletePermissions removes every record of a subject and returns the count.
func (c *conn) DeletePermissions(ctx context.Context, subjectType SubjectType, subjectID string) (int64, error) {
	query := `DELETE FROM permissions WHERE subject_type = ? AND subject_id = ?`

	result, err := c.exec(ctx, query, subjectType, subjectID)
	if err != nil {
		return 0, fmt.Errorf("deleting permissions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	c.logger.Debug("deleted permissions", "subject_type", subjectType, "subject_id", subjectID, "count", n)
	return n, nil
}
