// ABOUTME: Tests for audit log store operations
// ABOUTME: Covers Append and List with filtering, plus the query builder against sqlmock

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targetID(i int) string {
	return fmt.Sprintf("%d", i+1)
}

func TestAuditStore_Append(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		ActorID:    "alice",
		Action:     AuditCreateNode,
		TargetType: TableCategories,
		TargetID:   "1",
		Detail:     map[string]any{"name": "Resistors"},
	}

	err := store.AppendAuditLog(ctx, entry)
	require.NoError(t, err)

	// Should have generated ID and timestamp
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	entries, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Resistors", entries[0].Detail["name"])
}

func TestAuditStore_RejectsUnknownAction(t *testing.T) {
	store := setupTestStore(t)

	err := store.AppendAuditLog(context.Background(), &AuditEntry{
		ActorID:    "alice",
		Action:     AuditAction("launch_rocket"),
		TargetType: TableCategories,
		TargetID:   "1",
	})
	assert.Error(t, err)
}

func TestAuditStore_List_NoFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i, action := range []AuditAction{AuditCreateNode, AuditUpdateNode, AuditDeleteNode} {
		entry := &AuditEntry{
			ActorID:    "alice",
			Action:     action,
			TargetType: TableCategories,
			TargetID:   targetID(i),
			Timestamp:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.AppendAuditLog(ctx, entry))
	}

	entries, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// Should be newest first
	assert.Equal(t, AuditDeleteNode, entries[0].Action)
}

func TestAuditStore_List_BySince(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	baseTime := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		entry := &AuditEntry{
			ActorID:    "alice",
			Action:     AuditMoveNode,
			TargetType: TableStorelocations,
			TargetID:   targetID(i),
			Timestamp:  baseTime.Add(time.Duration(i) * 10 * time.Minute),
		}
		require.NoError(t, store.AppendAuditLog(ctx, entry))
	}

	// Filter to entries after 15 minutes in
	since := baseTime.Add(15 * time.Minute)
	entries, err := store.ListAuditLog(ctx, AuditFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, entries, 1) // Only entry at 20 minutes
}

func TestAuditStore_List_ByActorAndAction(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rows := []struct {
		actor  string
		action AuditAction
	}{
		{"alice", AuditSetPermission},
		{"bob", AuditSetPermission},
		{"alice", AuditCreateSubject},
		{"alice", AuditSetPermission},
	}
	for i, r := range rows {
		require.NoError(t, store.AppendAuditLog(ctx, &AuditEntry{
			ActorID:    r.actor,
			Action:     r.action,
			TargetType: "user",
			TargetID:   targetID(i),
		}))
	}

	actor := "alice"
	action := AuditSetPermission
	entries, err := store.ListAuditLog(ctx, AuditFilter{ActorID: &actor, Action: &action})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	for _, e := range entries {
		assert.Equal(t, "alice", e.ActorID)
		assert.Equal(t, AuditSetPermission, e.Action)
	}
}

func TestAuditStore_List_ByTarget(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	targets := []struct {
		targetType string
		targetID   string
	}{
		{TableCategories, "1"},
		{TableDevices, "1"},
		{TableCategories, "1"},
	}
	for _, e := range targets {
		require.NoError(t, store.AppendAuditLog(ctx, &AuditEntry{
			ActorID:    "alice",
			Action:     AuditUpdateNode,
			TargetType: e.targetType,
			TargetID:   e.targetID,
		}))
	}

	targetType := TableCategories
	id := "1"
	results, err := store.ListAuditLog(ctx, AuditFilter{TargetType: &targetType, TargetID: &id})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestAuditStore_List_Pagination(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendAuditLog(ctx, &AuditEntry{
			ActorID:    "alice",
			Action:     AuditCreateNode,
			TargetType: TableFootprints,
			TargetID:   targetID(i),
		}))
	}

	entries, err := store.ListAuditLog(ctx, AuditFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestNormalizeAuditLimit(t *testing.T) {
	assert.Equal(t, 100, normalizeAuditLimit(0))
	assert.Equal(t, 100, normalizeAuditLimit(-5))
	assert.Equal(t, 50, normalizeAuditLimit(50))
	assert.Equal(t, 1000, normalizeAuditLimit(5000))
}

func TestBuildAuditQuery_OnlySetFields(t *testing.T) {
	query, args := buildAuditQuery(AuditFilter{})
	assert.NotContains(t, query, "WHERE")
	assert.Equal(t, []any{100}, args)

	actor := "alice"
	query, args = buildAuditQuery(AuditFilter{ActorID: &actor, Limit: 5})
	assert.Contains(t, query, "WHERE actor_id = ?")
	assert.Equal(t, []any{"alice", 5}, args)
}

func TestAuditStore_Postgres_Placeholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	s, err := Wrap(db, DriverPostgres)
	require.NoError(t, err)

	action := AuditDeleteNode
	mock.ExpectQuery(`SELECT audit_id, actor_id, action, target_type, target_id, ts, detail_json FROM audit_log WHERE action = $1 ORDER BY ts DESC, audit_id LIMIT $2`).
		WithArgs("delete_node", 100).
		WillReturnRows(sqlmock.NewRows([]string{
			"audit_id", "actor_id", "action", "target_type", "target_id", "ts", "detail_json",
		}).AddRow("a-1", "alice", "delete_node", TableCategories, "7", "2026-01-02T03:04:05Z", nil))

	entries, err := s.ListAuditLog(context.Background(), AuditFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "7", entries[0].TargetID)
	assert.Nil(t, entries[0].Detail)
	assert.NoError(t, mock.ExpectationsWereMet())
}
