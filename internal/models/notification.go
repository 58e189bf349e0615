package models

import "time"

const (
	NotificationTypeBookingApproved = "booking_approved"
	NotificationTypeBookingRejected = "booking_rejected"
	NotificationTypeBookingReturned = "booking_returned"
)

type Notification struct {
	ID        int64             `json:"id"`
	UserID    string            `json:"user_id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}
