package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yundist/order-approval/internal/application/port"
	"github.com/yundist/order-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// InstanceRepository implements port.InstanceRepository
type InstanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInstanceRepository creates a new instance repository
func NewInstanceRepository(db *sql.DB, logger *zap.Logger) port.InstanceRepository {
	return &InstanceRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new approval instance
func (r *InstanceRepository) Create(ctx context.Context, instance *entity.ApprovalInstance) error {
	query := `
		INSERT INTO approval_instances (
			process_id, order_id, current_node_id, current_step, status, created_by, updated_by
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var currentNodeID sql.NullInt64
	if instance.CurrentNodeID != 0 {
		currentNodeID = sql.NullInt64{Int64: instance.CurrentNodeID, Valid: true}
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		instance.ProcessID,
		instance.OrderID,
		currentNodeID,
		instance.CurrentStep,
		instance.Status,
		instance.CreatedBy,
		instance.CreatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create instance", zap.Int64("order_id", instance.OrderID), zap.Error(err))
		return fmt.Errorf("failed to create instance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	instance.ID = id
	return nil
}

// GetByID retrieves an approval instance by ID
func (r *InstanceRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalInstance, error) {
	query := instanceSelect + ` WHERE id = ?`

	instance, err := r.scanInstance(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get instance by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return instance, nil
}

// GetByOrderID retrieves the approval instance for an order
func (r *InstanceRepository) GetByOrderID(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error) {
	query := instanceSelect + ` WHERE order_id = ?`

	instance, err := r.scanInstance(getExecutor(ctx, r.db).QueryRowContext(ctx, query, orderID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get instance by order ID", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return instance, nil
}

// UpdateStatusIf transitions the instance status with an optimistic guard on
// the expected current status.
func (r *InstanceRepository) UpdateStatusIf(ctx context.Context, id int64, fromStatus, toStatus, updatedBy string) error {
	query := `
		UPDATE approval_instances
		SET status = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, toStatus, updatedBy, id, fromStatus)
	if err != nil {
		r.logger.Error("Failed to update instance status", zap.Int64("id", id), zap.String("status", toStatus), zap.Error(err))
		return fmt.Errorf("failed to update instance status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("instance %d is no longer %s: %w", id, fromStatus, entity.ErrConflict)
	}

	return nil
}

// UpdateCurrent moves the instance pointer to the given node and step
func (r *InstanceRepository) UpdateCurrent(ctx context.Context, id int64, nodeID int64, step int, updatedBy string) error {
	query := `
		UPDATE approval_instances
		SET current_node_id = ?, current_step = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, nodeID, step, updatedBy, id)
	if err != nil {
		r.logger.Error("Failed to update instance position", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update instance position: %w", err)
	}

	return nil
}

// Delete hard-deletes an instance (resubmission discarding a prior, unacted instance)
func (r *InstanceRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM approval_instances WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete instance", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete instance: %w", err)
	}

	return nil
}

const instanceSelect = `
		SELECT id, process_id, order_id, current_node_id, current_step, status,
			created_by, updated_by, created_at, updated_at
		FROM approval_instances
`

// scanInstance scans a single instance row
func (r *InstanceRepository) scanInstance(row *sql.Row) (*entity.ApprovalInstance, error) {
	var instance entity.ApprovalInstance
	var currentNodeID sql.NullInt64
	var updatedBy sql.NullString

	err := row.Scan(
		&instance.ID,
		&instance.ProcessID,
		&instance.OrderID,
		&currentNodeID,
		&instance.CurrentStep,
		&instance.Status,
		&instance.CreatedBy,
		&updatedBy,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if currentNodeID.Valid {
		instance.CurrentNodeID = currentNodeID.Int64
	}
	if updatedBy.Valid {
		instance.UpdatedBy = updatedBy.String
	}

	return &instance, nil
}

// Verify interface compliance
var _ port.InstanceRepository = (*InstanceRepository)(nil)
