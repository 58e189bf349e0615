package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"invenbook/internal/models"
)

const bookingColumns = `id, user_id, item_id, start_time, end_time, note, status, created_at, updated_at`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (user_id, item_id, start_time, end_time, note, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		booking.UserID,
		booking.ItemID,
		booking.StartTime,
		booking.EndTime,
		booking.Note,
		booking.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return nil
}

// GetBookingOwned fetches a booking constrained by both id and owner, so a
// miss never reveals whether the id exists for another user.
func (db *DB) GetBookingOwned(ctx context.Context, id int64, userID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? AND user_id = ?`

	booking, err := scanBooking(db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// UpdateBookingOwned overwrites the mutable fields of a booking matched by
// id and owner. Zero matched rows map to ErrNotFound.
func (db *DB) UpdateBookingOwned(ctx context.Context, booking *models.Booking) error {
	query := `UPDATE bookings SET item_id = ?, start_time = ?, end_time = ?, note = ?, status = ?, updated_at = ?
              WHERE id = ? AND user_id = ?`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		booking.ItemID,
		booking.StartTime,
		booking.EndTime,
		booking.Note,
		booking.Status,
		now,
		booking.ID,
		booking.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	booking.UpdatedAt = now
	return nil
}

// DeleteBookingOwned removes a booking matched by id and owner and returns
// the deleted snapshot. Fetch and delete run in one transaction so the
// snapshot always matches the removed row.
func (db *DB) DeleteBookingOwned(ctx context.Context, id int64, userID string) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? AND user_id = ?`
	booking, err := scanBooking(tx.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking for delete: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBookingsByUserID(ctx context.Context, userID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (db *DB) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.UserID, &b.ItemID, &b.StartTime, &b.EndTime,
		&b.Note, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}
