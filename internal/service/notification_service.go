package service

import (
	"context"
	"encoding/json"

	"invenbook/internal/domain"
	"invenbook/internal/metrics"
	"invenbook/internal/models"

	"github.com/rs/zerolog"
)

// NotificationChannel is the per-recipient pub/sub channel name.
func NotificationChannel(userID string) string {
	return "notifications:" + userID
}

type NotificationService struct {
	repo      domain.NotificationRepository
	publisher domain.Publisher
	logger    *zerolog.Logger
}

func NewNotificationService(repo domain.NotificationRepository, publisher domain.Publisher, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// SendNotification persists the notification, then fans it out on the
// recipient's channel. The publish never happens before the row commits.
// Success requires both effects; a publish error fails the call even though
// the row stays persisted, since the two writes are not transactional.
func (s *NotificationService) SendNotification(ctx context.Context, userID, title, message, notifType string, metadata map[string]string) error {
	if userID == "" {
		return domain.Invalid("user_id is required")
	}
	if title == "" {
		return domain.Invalid("title is required")
	}
	if message == "" {
		return domain.Invalid("message is required")
	}
	if notifType == "" {
		return domain.Invalid("type is required")
	}

	n := &models.Notification{
		UserID:   userID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Metadata: metadata,
	}
	if err := s.repo.InsertNotification(ctx, n); err != nil {
		return domain.Internal("failed to persist notification", err)
	}

	return s.publish(ctx, n)
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	if userID == "" {
		return nil, domain.Invalid("user_id is required")
	}
	notifications, err := s.repo.GetUserNotifications(ctx, userID)
	if err != nil {
		return nil, domain.Internal("failed to get notifications", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID int64) error {
	if err := s.repo.MarkNotificationRead(ctx, notificationID); err != nil {
		return mapStorageErr(err, "notification")
	}
	return nil
}

func (s *NotificationService) publish(ctx context.Context, n *models.Notification) error {
	if s.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return domain.Internal("failed to serialize notification", err)
	}

	if err := s.publisher.Publish(ctx, NotificationChannel(n.UserID), payload); err != nil {
		// The row is already committed; the recipient will still see it
		// via GetUserNotifications.
		s.logger.Error().Err(err).Int64("notification_id", n.ID).Str("user_id", n.UserID).Msg("notification publish error")
		return domain.Internal("failed to publish notification", err)
	}
	metrics.IncNotificationPublished()
	return nil
}
