// ABOUTME: Attachment records linked to rows of the node tables
// ABOUTME: Deleted together with their element as the default cascade hook

package store

import (
	"context"
	"fmt"
	"time"
)

// AddAttachment inserts a and sets a.ID.
func (c *conn) AddAttachment(ctx context.Context, a *Attachment) error {
	if _, err := c.table(a.ElementType); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO attachments (element_type, element_id, name, filename, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`

	err := c.queryRow(ctx, query,
		a.ElementType,
		a.ElementID,
		a.Name,
		a.Filename,
		a.CreatedAt.UTC().Format(time.RFC3339),
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("inserting attachment: %w", err)
	}

	c.logger.Debug("added attachment", "id", a.ID, "element", fmt.Sprintf("%s/%d", a.ElementType, a.ElementID))
	return nil
}

// ListAttachments returns the attachments of one element ordered by id.
func (c *conn) ListAttachments(ctx context.Context, elementType string, elementID int64) ([]Attachment, error) {
	query := `
		SELECT id, element_type, element_id, name, filename, created_at
		FROM attachments
		WHERE element_type = ? AND element_id = ?
		ORDER BY id
	`

	rows, err := c.query(ctx, query, elementType, elementID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	defer rows.Close()

	attachments := []Attachment{}
	for rows.Next() {
		var a Attachment
		var createdStr string
		if err := rows.Scan(&a.ID, &a.ElementType, &a.ElementID, &a.Name, &a.Filename, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		a.CreatedAt, err = time.Parse(time.RFC3339, createdStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		attachments = append(attachments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attachments: %w", err)
	}

	return attachments, nil
}

// DeleteAttachmentsFor removes every attachment of one element and returns the count.
func (c *conn) DeleteAttachmentsFor(ctx context.Context, elementType string, elementID int64) (int64, error) {
	result, err := c.exec(ctx, `DELETE FROM attachments WHERE element_type = ? AND element_id = ?`, elementType, elementID)
	if err != nil {
		return 0, fmt.Errorf("deleting attachments: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}
