package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"invenbook/internal/models"
)

const auditLogColumns = `id, user_id, action, entity_type, entity_id, details, metadata, created_at`

func (db *DB) InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error {
	var metadata any
	if entry.Metadata != nil {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
		metadata = string(raw)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details, metadata, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Details,
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id

	return nil
}

func (db *DB) GetLogsByUser(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLogEntry, error) {
	query := `SELECT ` + auditLogColumns + ` FROM audit_logs
              WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get user audit logs: %w", err)
	}
	defer rows.Close()

	return collectAuditLogs(rows)
}

func (db *DB) CountLogsByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count user audit logs: %w", err)
	}
	return count, nil
}

func (db *DB) GetLogs(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLogEntry, error) {
	where, args := buildAuditLogWhere(filter)
	query := `SELECT ` + auditLogColumns + ` FROM audit_logs` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}
	defer rows.Close()

	return collectAuditLogs(rows)
}

func (db *DB) CountLogs(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	where, args := buildAuditLogWhere(filter)

	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return count, nil
}

// buildAuditLogWhere assembles the conjunctive filter shared by GetLogs and
// CountLogs, so the reported total always reflects the same filtered set.
func buildAuditLogWhere(filter models.AuditLogFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Action != "" {
		conds = append(conds, "action LIKE ?")
		args = append(args, "%"+filter.Action+"%")
	}
	if filter.EntityType != "" {
		conds = append(conds, "entity_type = ?")
		args = append(args, filter.EntityType)
	}
	if filter.StartDate != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, *filter.EndDate)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func collectAuditLogs(rows *sql.Rows) ([]*models.AuditLogEntry, error) {
	var entries []*models.AuditLogEntry
	for rows.Next() {
		e := &models.AuditLogEntry{}
		var details, metadata sql.NullString
		err := rows.Scan(
			&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID,
			&details, &metadata, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		e.Details = details.String
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("%w: audit log %d metadata: %v", ErrCorruptRow, e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit logs: %w", err)
	}
	return entries, nil
}
