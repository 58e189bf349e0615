package models

import "time"

// AuditLogEntry is an append-only record of a mutating action. Entries are
// never updated or deleted after insertion.
type AuditLogEntry struct {
	ID         int64             `json:"id"`
	UserID     string            `json:"user_id"`
	Action     string            `json:"action"` // e.g. "booking.create"
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Details    string            `json:"details,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// AuditLogFilter narrows audit log queries. All set fields combine with AND.
// Action matches as a substring; date bounds are inclusive on CreatedAt.
type AuditLogFilter struct {
	UserID     string
	Action     string
	EntityType string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}
