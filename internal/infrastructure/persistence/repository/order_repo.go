package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yundist/order-approval/internal/application/port"
	"github.com/yundist/order-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// OrderRepository implements the port.OrderService collaborator over the
// back-office orders table. The engine passes statuses through; order
// semantics live with the order module.
type OrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order collaborator
func NewOrderRepository(db *sql.DB, logger *zap.Logger) port.OrderService {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// GetOrderStatus retrieves the current externally visible status of an order
func (r *OrderRepository) GetOrderStatus(ctx context.Context, orderID int64) (string, error) {
	query := `SELECT status FROM orders WHERE id = ?`

	var status string
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, orderID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", entity.NewNotFoundError("order %d", orderID)
	}
	if err != nil {
		r.logger.Error("Failed to get order status", zap.Int64("order_id", orderID), zap.Error(err))
		return "", fmt.Errorf("failed to get order status: %w", err)
	}

	return status, nil
}

// UpdateOrderStatus sets the order status and approval remark
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID int64, status, approvalRemark string, actor entity.Actor) error {
	query := `
		UPDATE orders
		SET status = ?, approval_remark = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	var remark sql.NullString
	if approvalRemark != "" {
		remark = sql.NullString{String: approvalRemark, Valid: true}
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, remark, actor.UserID, orderID)
	if err != nil {
		r.logger.Error("Failed to update order status",
			zap.Int64("order_id", orderID),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return entity.NewNotFoundError("order %d", orderID)
	}

	return nil
}

// Verify interface compliance
var _ port.OrderService = (*OrderRepository)(nil)
