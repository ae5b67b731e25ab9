package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yundist/order-approval/internal/application/port"
	"github.com/yundist/order-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// AuditLogRepository implements port.AuditLogRepository
type AuditLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *zap.Logger) port.AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Write appends an audit trail entry. It joins the ambient transaction so the
// entry commits atomically with the mutation it records.
func (r *AuditLogRepository) Write(ctx context.Context, log *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			order_id, instance_id, task_id, action, operator_id, operator_name, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var taskID sql.NullInt64
	if log.TaskID != 0 {
		taskID = sql.NullInt64{Int64: log.TaskID, Valid: true}
	}
	var detail sql.NullString
	if log.Detail != "" {
		detail = sql.NullString{String: log.Detail, Valid: true}
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		log.OrderID,
		log.InstanceID,
		taskID,
		log.Action,
		log.OperatorID,
		log.OperatorName,
		detail,
	)
	if err != nil {
		r.logger.Error("Failed to write audit log",
			zap.Int64("order_id", log.OrderID),
			zap.String("action", log.Action),
			zap.Error(err))
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// Verify interface compliance
var _ port.AuditLogRepository = (*AuditLogRepository)(nil)
