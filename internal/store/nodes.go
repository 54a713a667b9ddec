// ABOUTME: Row-level persistence for hierarchical node tables
// ABOUTME: Lists, inserts, updates, re-parents and deletes rows by parameterized queries

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// nullableParent maps the root (0 or negative) to SQL NULL.
func nullableParent(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

func nodeColumns(t TableSchema) string {
	cols := []string{"id", "name", "parent_id", "comment", "last_modified", "created_at"}
	for _, c := range t.Extra {
		cols = append(cols, c.Name)
	}
	return strings.Join(cols, ", ")
}

// scanNode scans a row selected with nodeColumns.
func scanNode(t TableSchema, scanner interface{ Scan(dest ...any) error }) (NodeRow, error) {
	var row NodeRow
	var parentID sql.NullInt64
	var modifiedStr, createdStr string

	dest := []any{&row.ID, &row.Name, &parentID, &row.Comment, &modifiedStr, &createdStr}
	extras := make([]any, len(t.Extra))
	for i, c := range t.Extra {
		switch c.Kind {
		case KindInt:
			extras[i] = new(int64)
		case KindBool:
			extras[i] = new(bool)
		default:
			extras[i] = new(string)
		}
	}
	dest = append(dest, extras...)

	if err := scanner.Scan(dest...); err != nil {
		return row, err
	}

	if parentID.Valid {
		row.ParentID = parentID.Int64
	}

	var err error
	row.LastModified, err = time.Parse(time.RFC3339, modifiedStr)
	if err != nil {
		return row, fmt.Errorf("parsing last_modified: %w", err)
	}
	row.CreatedAt, err = time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return row, fmt.Errorf("parsing created_at: %w", err)
	}

	row.Extra = make(map[string]any, len(t.Extra))
	for i, c := range t.Extra {
		switch p := extras[i].(type) {
		case *int64:
			row.Extra[c.Name] = *p
		case *bool:
			row.Extra[c.Name] = *p
		case *string:
			row.Extra[c.Name] = *p
		}
	}
	return row, nil
}

// extraArgs returns the extra column values of row in schema order, using the
// column's zero value for unset entries.
func extraArgs(t TableSchema, row *NodeRow) ([]any, error) {
	args := make([]any, len(t.Extra))
	for i, c := range t.Extra {
		v, ok := row.Extra[c.Name]
		if !ok || v == nil {
			args[i] = c.zeroValue()
			continue
		}
		nv, err := c.Normalize(v)
		if err != nil {
			return nil, err
		}
		args[i] = nv
	}
	return args, nil
}

// ListNodes returns every row of the table ordered by id.
func (c *conn) ListNodes(ctx context.Context, table string) ([]NodeRow, error) {
	t, err := c.table(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, nodeColumns(t), t.Name)
	rows, err := c.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.Name, err)
	}
	defer rows.Close()

	var nodes []NodeRow
	for rows.Next() {
		row, err := scanNode(t, rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", t.Name, err)
		}
		nodes = append(nodes, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", t.Name, err)
	}

	return nodes, nil
}

// GetNodeRow returns one row. Returns ErrNotFound if the row doesn't exist.
func (c *conn) GetNodeRow(ctx context.Context, table string, id int64) (*NodeRow, error) {
	t, err := c.table(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, nodeColumns(t), t.Name)
	row, err := scanNode(t, c.queryRow(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s row: %w", t.Name, err)
	}
	return &row, nil
}

// InsertNode inserts row and sets row.ID from the generated key.
// Timestamps default to now when zero.
func (c *conn) InsertNode(ctx context.Context, table string, row *NodeRow) error {
	t, err := c.table(table)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.LastModified.IsZero() {
		row.LastModified = now
	}

	extras, err := extraArgs(t, row)
	if err != nil {
		return err
	}

	cols := []string{"name", "parent_id", "comment", "last_modified", "created_at"}
	args := []any{
		row.Name,
		nullableParent(row.ParentID),
		row.Comment,
		row.LastModified.UTC().Format(time.RFC3339),
		row.CreatedAt.UTC().Format(time.RFC3339),
	}
	for i, col := range t.Extra {
		cols = append(cols, col.Name)
		args = append(args, extras[i])
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
		t.Name, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))

	if err := c.queryRow(ctx, query, args...).Scan(&row.ID); err != nil {
		return fmt.Errorf("inserting %s row: %w", t.Name, err)
	}

	c.logger.Debug("inserted node", "table", t.Name, "id", row.ID, "parent_id", row.ParentID)
	return nil
}

// UpdateNode overwrites every column of an existing row.
// Returns ErrNotFound if the row doesn't exist.
func (c *conn) UpdateNode(ctx context.Context, table string, row *NodeRow) error {
	t, err := c.table(table)
	if err != nil {
		return err
	}

	extras, err := extraArgs(t, row)
	if err != nil {
		return err
	}

	sets := []string{"name = ?", "parent_id = ?", "comment = ?", "last_modified = ?"}
	args := []any{
		row.Name,
		nullableParent(row.ParentID),
		row.Comment,
		row.LastModified.UTC().Format(time.RFC3339),
	}
	for i, col := range t.Extra {
		sets = append(sets, col.Name+" = ?")
		args = append(args, extras[i])
	}
	args = append(args, row.ID)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, t.Name, strings.Join(sets, ", "))
	result, err := c.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating %s row: %w", t.Name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	c.logger.Debug("updated node", "table", t.Name, "id", row.ID)
	return nil
}

// ReparentChildren moves every direct child of fromParent under toParent and
// returns the number of rows moved.
func (c *conn) ReparentChildren(ctx context.Context, table string, fromParent, toParent int64) (int64, error) {
	t, err := c.table(table)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var result sql.Result
	if fromParent <= 0 {
		query := fmt.Sprintf(`UPDATE %s SET parent_id = ?, last_modified = ? WHERE parent_id IS NULL`, t.Name)
		result, err = c.exec(ctx, query, nullableParent(toParent), now)
	} else {
		query := fmt.Sprintf(`UPDATE %s SET parent_id = ?, last_modified = ? WHERE parent_id = ?`, t.Name)
		result, err = c.exec(ctx, query, nullableParent(toParent), now, fromParent)
	}
	if err != nil {
		return 0, fmt.Errorf("re-parenting %s children: %w", t.Name, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}

// DeleteNodeRow removes one row. Returns ErrNotFound if the row doesn't exist.
func (c *conn) DeleteNodeRow(ctx context.Context, table string, id int64) error {
	t, err := c.table(table)
	if err != nil {
		return err
	}

	result, err := c.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.Name), id)
	if err != nil {
		return fmt.Errorf("deleting %s row: %w", t.Name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	c.logger.Debug("deleted node", "table", t.Name, "id", id)
	return nil
}
