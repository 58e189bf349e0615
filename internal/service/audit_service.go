package service

import (
	"context"

	"invenbook/internal/domain"
	"invenbook/internal/models"

	"github.com/rs/zerolog"
)

const (
	defaultUserLogsLimit = 50
	defaultAllLogsLimit  = 100
)

// AuditService records an immutable entry for every mutating action. There
// is deliberately no update or delete path.
type AuditService struct {
	repo   domain.AuditRepository
	logger *zerolog.Logger
}

func NewAuditService(repo domain.AuditRepository, logger *zerolog.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

func (s *AuditService) RecordAction(ctx context.Context, p domain.RecordActionParams) (int64, error) {
	if p.UserID == "" {
		return 0, domain.Invalid("user_id is required")
	}
	if p.Action == "" {
		return 0, domain.Invalid("action is required")
	}
	if p.EntityType == "" {
		return 0, domain.Invalid("entity_type is required")
	}
	if p.EntityID == "" {
		return 0, domain.Invalid("entity_id is required")
	}

	entry := &models.AuditLogEntry{
		UserID:     p.UserID,
		Action:     p.Action,
		EntityType: p.EntityType,
		EntityID:   p.EntityID,
		Details:    p.Details,
		Metadata:   p.Metadata,
		CreatedAt:  p.CreatedAt,
	}
	if err := s.repo.InsertAuditLog(ctx, entry); err != nil {
		return 0, domain.Internal("failed to record action", err)
	}
	return entry.ID, nil
}

func (s *AuditService) GetLogsByUser(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLogEntry, int64, error) {
	if userID == "" {
		return nil, 0, domain.Invalid("user_id is required")
	}
	if limit <= 0 {
		limit = defaultUserLogsLimit
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.repo.GetLogsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, domain.Internal("failed to get logs", err)
	}

	// Total is the unfiltered per-user count, independent of the page window.
	total, err := s.repo.CountLogsByUser(ctx, userID)
	if err != nil {
		return nil, 0, domain.Internal("failed to count logs", err)
	}
	return logs, total, nil
}

func (s *AuditService) GetAllLogs(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLogEntry, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultAllLogsLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, 0, domain.Invalid("end_date must not be before start_date")
	}

	logs, err := s.repo.GetLogs(ctx, filter)
	if err != nil {
		return nil, 0, domain.Internal("failed to get logs", err)
	}

	total, err := s.repo.CountLogs(ctx, filter)
	if err != nil {
		return nil, 0, domain.Internal("failed to count logs", err)
	}
	return logs, total, nil
}
