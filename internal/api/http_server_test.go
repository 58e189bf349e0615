package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"invenbook/internal/config"
	"invenbook/internal/database"
	"invenbook/internal/models"
	"invenbook/internal/pubsub"
	"invenbook/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	ts  *httptest.Server
	db  *database.DB
	bus *pubsub.Bus
}

func newTestEnv(t *testing.T, cfg config.ServerConfig) *testEnv {
	t.Helper()
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := pubsub.NewBus()
	auditSvc := service.NewAuditService(db, &logger)
	notifSvc := service.NewNotificationService(db, bus, &logger)
	bookingSvc := service.NewBookingService(db, auditSvc, notifSvc, &logger)

	srv := NewHTTPServer(cfg, bookingSvc, auditSvc, notifSvc, &logger)
	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, db: db, bus: bus}
}

func (e *testEnv) call(t *testing.T, service, method string, body any, headers map[string]string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/rpc/%s/%s", e.ts.URL, service, method), bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func errorCode(t *testing.T, decoded map[string]json.RawMessage) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(decoded["error"], &e))
	return e.Code
}

func TestCreateBookingDefaultsScenario(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	resp, decoded := env.call(t, "BookingService", "CreateBooking", map[string]any{
		"user_id":    "U1",
		"item_id":    "I1",
		"start_time": "2025-01-10T00:00:00Z",
		"end_time":   "2025-01-12T00:00:00Z",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var booking models.Booking
	require.NoError(t, json.Unmarshal(decoded["booking"], &booking))
	assert.Equal(t, "pending", booking.Status)
	assert.Equal(t, "", booking.Note)
	assert.NotZero(t, booking.ID)
	assert.True(t, booking.StartTime.Before(booking.EndTime))
}

func TestCreateBookingMissingFields(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	resp, decoded := env.call(t, "BookingService", "CreateBooking", map[string]any{
		"user_id": "U1",
		"item_id": "I1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", errorCode(t, decoded))

	// Nothing persisted.
	bookings, err := env.db.GetAllBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestCreateBookingInvalidWindow(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	resp, decoded := env.call(t, "BookingService", "CreateBooking", map[string]any{
		"user_id":    "U1",
		"item_id":    "I1",
		"start_time": "2025-01-12T00:00:00Z",
		"end_time":   "2025-01-10T00:00:00Z",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", errorCode(t, decoded))
}

func TestUpdateBookingCrossUserScenario(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	_, decoded := env.call(t, "BookingService", "CreateBooking", map[string]any{
		"user_id":    "U1",
		"item_id":    "I1",
		"start_time": "2025-01-10T00:00:00Z",
		"end_time":   "2025-01-12T00:00:00Z",
	}, nil)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(decoded["booking"], &booking))

	resp, decoded := env.call(t, "BookingService", "UpdateBooking", map[string]any{
		"user_id":    "U2",
		"booking_id": booking.ID,
		"start_time": "2025-01-10T00:00:00Z",
		"end_time":   "2025-01-13T00:00:00Z",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, decoded))

	// Target row untouched.
	got, err := env.db.GetBookingOwned(context.Background(), booking.ID, "U1")
	require.NoError(t, err)
	assert.Equal(t, booking.EndTime.UTC(), got.EndTime.UTC())
}

func TestApprovalFlowSideEffects(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	var published [][]byte
	env.bus.Subscribe("notifications:U1", func(payload []byte) {
		published = append(published, payload)
	})

	_, decoded := env.call(t, "BookingService", "CreateBooking", map[string]any{
		"user_id":    "U1",
		"item_id":    "I1",
		"start_time": "2025-01-10T00:00:00Z",
		"end_time":   "2025-01-12T00:00:00Z",
	}, nil)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(decoded["booking"], &booking))

	resp, _ := env.call(t, "BookingService", "UpdateBooking", map[string]any{
		"user_id":    "U1",
		"booking_id": booking.ID,
		"start_time": "2025-01-10T00:00:00Z",
		"end_time":   "2025-01-12T00:00:00Z",
		"status":     "approved",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Audit trail: one entry per mutation.
	logs, err := env.db.GetLogsByUser(context.Background(), "U1", 50, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	actions := []string{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []string{"booking.create", "booking.update"}, actions)

	// Durable notification row plus real-time fan-out.
	notifications, err := env.db.GetUserNotifications(context.Background(), "U1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTypeBookingApproved, notifications[0].Type)
	assert.False(t, notifications[0].Read)

	require.Len(t, published, 1)
	var pushed models.Notification
	require.NoError(t, json.Unmarshal(published[0], &pushed))
	assert.Equal(t, notifications[0].ID, pushed.ID)
}

func TestDeleteBookingReturnsSnapshotOverRPC(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	_, decoded := env.call(t, "BookingService", "CreateBooking", map[string]any{
		"user_id":    "U1",
		"item_id":    "I1",
		"start_time": "2025-01-10T00:00:00Z",
		"end_time":   "2025-01-12T00:00:00Z",
	}, nil)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(decoded["booking"], &booking))

	resp, decoded := env.call(t, "BookingService", "DeleteBooking", map[string]any{
		"user_id":    "U1",
		"booking_id": booking.ID,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot models.Booking
	require.NoError(t, json.Unmarshal(decoded["booking"], &snapshot))
	assert.Equal(t, booking.ID, snapshot.ID)
	assert.Equal(t, "I1", snapshot.ItemID)

	resp, decoded = env.call(t, "BookingService", "DeleteBooking", map[string]any{
		"user_id":    "U1",
		"booking_id": booking.ID,
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, decoded))
}

func TestRecordActionMissingEntityID(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	resp, decoded := env.call(t, "AuditService", "RecordAction", map[string]any{
		"user_id":     "U1",
		"action":      "booking.create",
		"entity_type": "booking",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", errorCode(t, decoded))

	total, err := env.db.CountLogsByUser(context.Background(), "U1")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestGetAllLogsFilteredScenario(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	entries := []map[string]any{
		{"user_id": "U1", "action": "booking.create", "entity_type": "booking", "entity_id": "1",
			"created_at": "2025-02-05T10:00:00Z"},
		{"user_id": "U2", "action": "notification.create", "entity_type": "notification", "entity_id": "2",
			"created_at": "2025-02-10T10:00:00Z"},
		{"user_id": "U1", "action": "booking.delete", "entity_type": "booking", "entity_id": "1",
			"created_at": "2025-02-12T10:00:00Z"},
		{"user_id": "U1", "action": "booking.create", "entity_type": "booking", "entity_id": "3",
			"created_at": "2025-03-20T10:00:00Z"}, // outside window
	}
	for _, e := range entries {
		resp, _ := env.call(t, "AuditService", "RecordAction", e, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, decoded := env.call(t, "AuditService", "GetAllLogs", map[string]any{
		"action":     "create",
		"start_date": "2025-02-01T00:00:00Z",
		"end_date":   "2025-02-28T23:59:59Z",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs []models.AuditLogEntry
	require.NoError(t, json.Unmarshal(decoded["logs"], &logs))
	var total int64
	require.NoError(t, json.Unmarshal(decoded["total"], &total))

	require.Len(t, logs, 2)
	assert.Equal(t, int64(2), total)
	for _, l := range logs {
		assert.Contains(t, l.Action, "create")
	}
}

func TestGetLogsByUserTotalIndependentOfPage(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	for i := 0; i < 4; i++ {
		resp, _ := env.call(t, "AuditService", "RecordAction", map[string]any{
			"user_id": "U1", "action": "booking.update", "entity_type": "booking", "entity_id": "1",
		}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, decoded := env.call(t, "AuditService", "GetLogsByUser", map[string]any{
		"user_id": "U1",
		"limit":   2,
		"offset":  1,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs []models.AuditLogEntry
	require.NoError(t, json.Unmarshal(decoded["logs"], &logs))
	var total int64
	require.NoError(t, json.Unmarshal(decoded["total"], &total))
	assert.Len(t, logs, 2)
	assert.Equal(t, int64(4), total)
}

func TestMarkAsReadIdempotentOverRPC(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	resp, _ := env.call(t, "NotificationService", "SendNotification", map[string]any{
		"user_id": "U1",
		"title":   "Booking approved",
		"message": "Your booking was approved",
		"type":    "booking_approved",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	notifications, err := env.db.GetUserNotifications(context.Background(), "U1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	id := notifications[0].ID

	for i := 0; i < 2; i++ {
		resp, decoded := env.call(t, "NotificationService", "MarkAsRead", map[string]any{
			"notification_id": id,
		}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var ok bool
		require.NoError(t, json.Unmarshal(decoded["success"], &ok))
		assert.True(t, ok)
	}

	got, err := env.db.GetNotification(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.Read)
}

func TestUnknownMethod(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	resp, decoded := env.call(t, "BookingService", "Nope", map[string]any{}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, decoded))
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	resp, err := http.Get(env.ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
