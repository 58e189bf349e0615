package api

import (
	"encoding/json"
	"net/http"
	"time"

	"invenbook/internal/domain"
	"invenbook/internal/models"
)

type rpcFunc func(r *http.Request) (any, error)

func (s *HTTPServer) lookup(service, method string) rpcFunc {
	switch service {
	case "BookingService":
		switch method {
		case "CreateBooking":
			return s.createBooking
		case "UpdateBooking":
			return s.updateBooking
		case "DeleteBooking":
			return s.deleteBooking
		case "GetBookingsByUserId":
			return s.getBookingsByUserID
		case "GetAllBookings":
			return s.getAllBookings
		}
	case "AuditService":
		switch method {
		case "RecordAction":
			return s.recordAction
		case "GetLogsByUser":
			return s.getLogsByUser
		case "GetAllLogs":
			return s.getAllLogs
		}
	case "NotificationService":
		switch method {
		case "SendNotification":
			return s.sendNotification
		case "GetUserNotifications":
			return s.getUserNotifications
		case "MarkAsRead":
			return s.markAsRead
		}
	}
	return nil
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return domain.Invalid("invalid JSON body: %v", err)
	}
	return nil
}

func (s *HTTPServer) createBooking(r *http.Request) (any, error) {
	var req struct {
		UserID    string    `json:"user_id"`
		ItemID    string    `json:"item_id"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Note      string    `json:"note"`
		Status    string    `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, domain.Invalid("user_id is required")
	}

	booking, err := s.bookings.CreateBooking(r.Context(), domain.CreateBookingParams{
		UserID:    req.UserID,
		ItemID:    req.ItemID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Note:      req.Note,
		Status:    req.Status,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"booking": booking}, nil
}

func (s *HTTPServer) updateBooking(r *http.Request) (any, error) {
	var req struct {
		UserID    string    `json:"user_id"`
		BookingID int64     `json:"booking_id"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Note      string    `json:"note"`
		Status    string    `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, domain.Invalid("user_id is required")
	}
	if req.BookingID == 0 {
		return nil, domain.Invalid("booking_id is required")
	}

	booking, err := s.bookings.UpdateBooking(r.Context(), domain.UpdateBookingParams{
		UserID:    req.UserID,
		BookingID: req.BookingID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Note:      req.Note,
		Status:    req.Status,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"booking": booking}, nil
}

func (s *HTTPServer) deleteBooking(r *http.Request) (any, error) {
	var req struct {
		UserID    string `json:"user_id"`
		BookingID int64  `json:"booking_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, domain.Invalid("user_id is required")
	}
	if req.BookingID == 0 {
		return nil, domain.Invalid("booking_id is required")
	}

	deleted, err := s.bookings.DeleteBooking(r.Context(), req.UserID, req.BookingID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"booking": deleted}, nil
}

func (s *HTTPServer) getBookingsByUserID(r *http.Request) (any, error) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, domain.Invalid("user_id is required")
	}

	bookings, err := s.bookings.GetBookingsByUserID(r.Context(), req.UserID)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return map[string]any{"bookings": bookings}, nil
}

func (s *HTTPServer) getAllBookings(r *http.Request) (any, error) {
	bookings, err := s.bookings.GetAllBookings(r.Context())
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return map[string]any{"bookings": bookings}, nil
}

func (s *HTTPServer) recordAction(r *http.Request) (any, error) {
	var req struct {
		UserID     string            `json:"user_id"`
		Action     string            `json:"action"`
		EntityType string            `json:"entity_type"`
		EntityID   string            `json:"entity_id"`
		Details    string            `json:"details"`
		Metadata   map[string]string `json:"metadata"`
		CreatedAt  *time.Time        `json:"created_at"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	p := domain.RecordActionParams{
		UserID:     req.UserID,
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Details:    req.Details,
		Metadata:   req.Metadata,
	}
	if req.CreatedAt != nil {
		p.CreatedAt = *req.CreatedAt
	}

	id, err := s.audit.RecordAction(r.Context(), p)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": id}, nil
}

func (s *HTTPServer) getLogsByUser(r *http.Request) (any, error) {
	var req struct {
		UserID string `json:"user_id"`
		Limit  int    `json:"limit"`
		Offset int    `json:"offset"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, domain.Invalid("user_id is required")
	}

	logs, total, err := s.audit.GetLogsByUser(r.Context(), req.UserID, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*models.AuditLogEntry{}
	}
	return map[string]any{"logs": logs, "total": total}, nil
}

func (s *HTTPServer) getAllLogs(r *http.Request) (any, error) {
	var req struct {
		Action     string     `json:"action"`
		EntityType string     `json:"entity_type"`
		UserID     string     `json:"user_id"`
		StartDate  *time.Time `json:"start_date"`
		EndDate    *time.Time `json:"end_date"`
		Limit      int        `json:"limit"`
		Offset     int        `json:"offset"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	logs, total, err := s.audit.GetAllLogs(r.Context(), models.AuditLogFilter{
		UserID:     req.UserID,
		Action:     req.Action,
		EntityType: req.EntityType,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*models.AuditLogEntry{}
	}
	return map[string]any{"logs": logs, "total": total}, nil
}

func (s *HTTPServer) sendNotification(r *http.Request) (any, error) {
	var req struct {
		UserID   string            `json:"user_id"`
		Title    string            `json:"title"`
		Message  string            `json:"message"`
		Type     string            `json:"type"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	if err := s.notifs.SendNotification(r.Context(), req.UserID, req.Title, req.Message, req.Type, req.Metadata); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func (s *HTTPServer) getUserNotifications(r *http.Request) (any, error) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, domain.Invalid("user_id is required")
	}

	notifications, err := s.notifs.GetUserNotifications(r.Context(), req.UserID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	return map[string]any{"notifications": notifications}, nil
}

func (s *HTTPServer) markAsRead(r *http.Request) (any, error) {
	var req struct {
		NotificationID int64 `json:"notification_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if req.NotificationID == 0 {
		return nil, domain.Invalid("notification_id is required")
	}

	if err := s.notifs.MarkAsRead(r.Context(), req.NotificationID); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}
