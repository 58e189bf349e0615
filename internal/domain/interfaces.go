package domain

import (
	"context"
	"time"

	"invenbook/internal/models"
)

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingOwned(ctx context.Context, id int64, userID string) (*models.Booking, error)
	UpdateBookingOwned(ctx context.Context, booking *models.Booking) error
	DeleteBookingOwned(ctx context.Context, id int64, userID string) (*models.Booking, error)
	GetBookingsByUserID(ctx context.Context, userID string) ([]*models.Booking, error)
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)
}

type AuditRepository interface {
	InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
	GetLogsByUser(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLogEntry, error)
	CountLogsByUser(ctx context.Context, userID string) (int64, error)
	GetLogs(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLogEntry, error)
	CountLogs(ctx context.Context, filter models.AuditLogFilter) (int64, error)
}

type NotificationRepository interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id int64) (*models.Notification, error)
	GetUserNotifications(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// Publisher delivers a payload to a named channel for any live subscriber.
// Delivery is at-most-once; durable state lives in the store, not the channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// AuditRecorder is the booking engine's view of the audit service. Recording
// is a best-effort side effect of the primary operation.
type AuditRecorder interface {
	RecordAction(ctx context.Context, p RecordActionParams) (int64, error)
}

type RecordActionParams struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Details    string
	Metadata   map[string]string
	CreatedAt  time.Time
}

// Notifier is the booking engine's view of the notification service.
type Notifier interface {
	SendNotification(ctx context.Context, userID, title, message, notifType string, metadata map[string]string) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, p CreateBookingParams) (*models.Booking, error)
	UpdateBooking(ctx context.Context, p UpdateBookingParams) (*models.Booking, error)
	DeleteBooking(ctx context.Context, userID string, bookingID int64) (*models.Booking, error)
	GetBookingsByUserID(ctx context.Context, userID string) ([]*models.Booking, error)
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)
}

type CreateBookingParams struct {
	UserID    string
	ItemID    string
	StartTime time.Time
	EndTime   time.Time
	Note      string
	Status    string
}

type UpdateBookingParams struct {
	UserID    string
	BookingID int64
	StartTime time.Time
	EndTime   time.Time
	Note      string
	Status    string
}

type AuditService interface {
	RecordAction(ctx context.Context, p RecordActionParams) (int64, error)
	GetLogsByUser(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLogEntry, int64, error)
	GetAllLogs(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLogEntry, int64, error)
}

type NotificationService interface {
	SendNotification(ctx context.Context, userID, title, message, notifType string, metadata map[string]string) error
	GetUserNotifications(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkAsRead(ctx context.Context, notificationID int64) error
}
