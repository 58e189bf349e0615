package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"invenbook/internal/models"
)

const notificationColumns = `id, user_id, type, title, message, metadata, read, created_at`

func (db *DB) InsertNotification(ctx context.Context, n *models.Notification) error {
	var metadata any
	if n.Metadata != nil {
		raw, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal notification metadata: %w", err)
		}
		metadata = string(raw)
	}

	now := time.Now().UTC()
	query := `INSERT INTO notifications (user_id, type, title, message, metadata, read, created_at)
              VALUES (?, ?, ?, ?, ?, 0, ?)`
	result, err := db.ExecContext(ctx, query, n.UserID, n.Type, n.Title, n.Message, metadata, now)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	n.Read = false
	n.CreatedAt = now

	return nil
}

func (db *DB) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`

	n, err := scanNotification(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (db *DB) GetUserNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead flips the read flag. The flag only moves false->true:
// marking an already-read notification again matches the row and is a no-op.
func (db *DB) MarkNotificationRead(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	n := &models.Notification{}
	var metadata sql.NullString
	err := row.Scan(
		&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
		&metadata, &n.Read, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &n.Metadata); err != nil {
			return nil, fmt.Errorf("%w: notification %d metadata: %v", ErrCorruptRow, n.ID, err)
		}
	}
	return n, nil
}
