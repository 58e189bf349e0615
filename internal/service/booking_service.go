package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"invenbook/internal/database"
	"invenbook/internal/domain"
	"invenbook/internal/metrics"
	"invenbook/internal/models"

	"github.com/rs/zerolog"
)

// BookingService is the booking lifecycle engine. Audit and notification
// writes are best-effort side effects of the primary operation: the booking
// row is the source of truth, side-effect failures are logged and never roll
// back or fail the mutation.
type BookingService struct {
	repo     domain.BookingRepository
	audit    domain.AuditRecorder
	notifier domain.Notifier
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.BookingRepository, audit domain.AuditRecorder, notifier domain.Notifier, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, p domain.CreateBookingParams) (*models.Booking, error) {
	if p.UserID == "" {
		return nil, domain.Invalid("user_id is required")
	}
	if p.ItemID == "" {
		return nil, domain.Invalid("item_id is required")
	}
	if err := validateTimeWindow(p.StartTime, p.EndTime); err != nil {
		return nil, err
	}

	status := p.Status
	if status == "" {
		status = models.StatusPending
	}
	if !models.IsValidStatus(status) {
		return nil, domain.Invalid("unknown status %q", status)
	}

	booking := &models.Booking{
		UserID:    p.UserID,
		ItemID:    p.ItemID,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		Note:      p.Note,
		Status:    status,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, domain.Internal("failed to create booking", err)
	}

	s.recordAudit(ctx, p.UserID, "booking.create", booking, "")
	return booking, nil
}

func (s *BookingService) UpdateBooking(ctx context.Context, p domain.UpdateBookingParams) (*models.Booking, error) {
	if p.UserID == "" {
		return nil, domain.Invalid("user_id is required")
	}
	if err := validateTimeWindow(p.StartTime, p.EndTime); err != nil {
		return nil, err
	}

	current, err := s.repo.GetBookingOwned(ctx, p.BookingID, p.UserID)
	if err != nil {
		return nil, mapStorageErr(err, "booking")
	}

	status := p.Status
	switch {
	case status == "":
		status = current.Status
	case !models.IsValidStatus(status):
		return nil, domain.Invalid("unknown status %q", status)
	case !models.CanTransition(current.Status, status):
		return nil, domain.Invalid("illegal status transition %s -> %s", current.Status, status)
	}
	transitioned := status != current.Status

	updated := &models.Booking{
		ID:        p.BookingID,
		UserID:    p.UserID,
		ItemID:    current.ItemID,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		Note:      p.Note,
		Status:    status,
		CreatedAt: current.CreatedAt,
	}
	if err := s.repo.UpdateBookingOwned(ctx, updated); err != nil {
		// A concurrent delete between the read and the write lands here.
		return nil, mapStorageErr(err, "booking")
	}

	s.recordAudit(ctx, p.UserID, "booking.update", updated, current.Status)
	if transitioned {
		metrics.IncTransition(status)
		s.notifyTransition(ctx, updated)
	}
	return updated, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, userID string, bookingID int64) (*models.Booking, error) {
	if userID == "" {
		return nil, domain.Invalid("user_id is required")
	}

	deleted, err := s.repo.DeleteBookingOwned(ctx, bookingID, userID)
	if err != nil {
		return nil, mapStorageErr(err, "booking")
	}

	s.recordAudit(ctx, userID, "booking.delete", deleted, "")
	return deleted, nil
}

func (s *BookingService) GetBookingsByUserID(ctx context.Context, userID string) ([]*models.Booking, error) {
	if userID == "" {
		return nil, domain.Invalid("user_id is required")
	}
	bookings, err := s.repo.GetBookingsByUserID(ctx, userID)
	if err != nil {
		return nil, domain.Internal("failed to get bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	bookings, err := s.repo.GetAllBookings(ctx)
	if err != nil {
		return nil, domain.Internal("failed to get bookings", err)
	}
	return bookings, nil
}

// validateTimeWindow checks the window on the defining request itself, never
// against persisted state.
func validateTimeWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return domain.Invalid("start_time and end_time are required")
	}
	if !start.Before(end) {
		return domain.Invalid("start_time must be before end_time")
	}
	return nil
}

// recordAudit appends an audit entry for a committed booking mutation.
// Losing an audit entry is less severe than failing the primary operation,
// so failures are logged and swallowed.
func (s *BookingService) recordAudit(ctx context.Context, userID, action string, booking *models.Booking, prevStatus string) {
	if s.audit == nil {
		return
	}

	metadata := map[string]string{
		"item_id": booking.ItemID,
		"status":  booking.Status,
	}
	if prevStatus != "" && prevStatus != booking.Status {
		metadata["previous_status"] = prevStatus
	}

	_, err := s.audit.RecordAction(ctx, domain.RecordActionParams{
		UserID:     userID,
		Action:     action,
		EntityType: "booking",
		EntityID:   strconv.FormatInt(booking.ID, 10),
		Metadata:   metadata,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("action", action).Int64("booking_id", booking.ID).Msg("audit record error")
	}
}

// notifyTransition informs the booking owner about a status change. Same
// best-effort policy as recordAudit.
func (s *BookingService) notifyTransition(ctx context.Context, booking *models.Booking) {
	if s.notifier == nil {
		return
	}

	var notifType, title string
	switch booking.Status {
	case models.StatusApproved:
		notifType, title = models.NotificationTypeBookingApproved, "Booking approved"
	case models.StatusRejected:
		notifType, title = models.NotificationTypeBookingRejected, "Booking rejected"
	case models.StatusReturned:
		notifType, title = models.NotificationTypeBookingReturned, "Booking returned"
	default:
		return
	}

	message := fmt.Sprintf("Your booking for item %s is now %s", booking.ItemID, booking.Status)
	metadata := map[string]string{
		"booking_id": strconv.FormatInt(booking.ID, 10),
		"item_id":    booking.ItemID,
	}

	if err := s.notifier.SendNotification(ctx, booking.UserID, title, message, notifType, metadata); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("status", booking.Status).Msg("notification send error")
	}
}

func mapStorageErr(err error, entity string) error {
	if errors.Is(err, database.ErrNotFound) {
		return domain.NotFound("%s not found", entity)
	}
	return domain.Internal(fmt.Sprintf("failed to access %s", entity), err)
}
