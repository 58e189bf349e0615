package database

import (
	"context"
	"testing"
	"time"

	"invenbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertTestLog(t *testing.T, db *DB, userID, action, entityType string, createdAt time.Time) *models.AuditLogEntry {
	t.Helper()
	entry := &models.AuditLogEntry{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   "42",
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.InsertAuditLog(context.Background(), entry))
	return entry
}

func TestInsertAuditLog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	entry := &models.AuditLogEntry{
		UserID:     "U1",
		Action:     "booking.create",
		EntityType: "booking",
		EntityID:   "7",
		Details:    "created from web",
		Metadata:   map[string]string{"item_id": "I1"},
	}
	require.NoError(t, db.InsertAuditLog(ctx, entry))
	require.NotZero(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	logs, err := db.GetLogsByUser(ctx, "U1", 50, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "booking.create", logs[0].Action)
	assert.Equal(t, "created from web", logs[0].Details)
	assert.Equal(t, map[string]string{"item_id": "I1"}, logs[0].Metadata)
}

func TestGetLogsByUserPagination(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertTestLog(t, db, "U1", "booking.update", "booking", base.Add(time.Duration(i)*time.Minute))
	}
	insertTestLog(t, db, "U2", "booking.create", "booking", base)

	page, err := db.GetLogsByUser(ctx, "U1", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	// created_at descending: page starts at the second-newest entry.
	assert.Equal(t, base.Add(3*time.Minute), page[0].CreatedAt.UTC())
	assert.Equal(t, base.Add(2*time.Minute), page[1].CreatedAt.UTC())

	// Total is independent of the page window.
	total, err := db.CountLogsByUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestGetLogsFiltered(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	d1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)

	insertTestLog(t, db, "U1", "booking.create", "booking", d1)
	insertTestLog(t, db, "U1", "booking.create", "booking", d2.AddDate(0, 1, 0)) // outside range
	insertTestLog(t, db, "U2", "booking.delete", "booking", d1.AddDate(0, 0, 5))
	insertTestLog(t, db, "U2", "notification.create", "notification", d1.AddDate(0, 0, 6))

	filter := models.AuditLogFilter{
		Action:    "create",
		StartDate: &d1,
		EndDate:   &d2,
		Limit:     100,
	}
	logs, err := db.GetLogs(ctx, filter)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Contains(t, l.Action, "create")
		assert.False(t, l.CreatedAt.Before(d1))
		assert.False(t, l.CreatedAt.After(d2))
	}

	total, err := db.CountLogs(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// Filters combine conjunctively.
	filter.EntityType = "notification"
	logs, err = db.GetLogs(ctx, filter)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "notification.create", logs[0].Action)
}

func TestGetLogsInclusiveBounds(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	d1 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	insertTestLog(t, db, "U1", "booking.create", "booking", d1)
	insertTestLog(t, db, "U1", "booking.create", "booking", d2)

	filter := models.AuditLogFilter{StartDate: &d1, EndDate: &d2, Limit: 100}
	logs, err := db.GetLogs(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestAuditLogCorruptMetadata(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_logs (user_id, action, entity_type, entity_id, metadata, created_at)
         VALUES ('U1', 'booking.create', 'booking', '1', '{broken', ?)`, time.Now().UTC())
	require.NoError(t, err)

	_, err = db.GetLogsByUser(ctx, "U1", 50, 0)
	assert.ErrorIs(t, err, ErrCorruptRow)
}
