// ABOUTME: Built-in cascade hooks for node deletion
// ABOUTME: Removes attachment records of every deleted node in the same transaction

package tree

import (
	"context"

	"github.com/partdb/partdb-core/internal/store"
)

// DeleteAttachments is a CascadeFunc removing the node's attachments.
func DeleteAttachments(ctx context.Context, tx store.Conn, table string, n *Node) error {
	_, err := tx.DeleteAttachmentsFor(ctx, table, n.ID)
	return err
}

// Chain runs hooks in order and stops at the first error.
func Chain(hooks ...CascadeFunc) CascadeFunc {
	return func(ctx context.Context, tx store.Conn, table string, n *Node) error {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if err := h(ctx, tx, table, n); err != nil {
				return err
			}
		}
		return nil
	}
}
