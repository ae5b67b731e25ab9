package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yundist/order-approval/internal/application/port"
	"github.com/yundist/order-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// CustomerRepository implements the port.CustomerService collaborator over
// the back-office customers table.
type CustomerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCustomerRepository creates a new customer collaborator
func NewCustomerRepository(db *sql.DB, logger *zap.Logger) port.CustomerService {
	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

// GetRegionalHead retrieves the regional head user id for a customer
func (r *CustomerRepository) GetRegionalHead(ctx context.Context, customerID int64) (string, error) {
	return r.getHead(ctx, customerID, "regional_head_id")
}

// GetProvincialHead retrieves the provincial head user id for a customer.
// Returns the empty string when no provincial head is configured.
func (r *CustomerRepository) GetProvincialHead(ctx context.Context, customerID int64) (string, error) {
	return r.getHead(ctx, customerID, "provincial_head_id")
}

func (r *CustomerRepository) getHead(ctx context.Context, customerID int64, column string) (string, error) {
	// column comes from the two fixed callers above, never from input
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = ?`, column)

	var head sql.NullString
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, customerID).Scan(&head)
	if err == sql.ErrNoRows {
		return "", entity.NewNotFoundError("customer %d", customerID)
	}
	if err != nil {
		r.logger.Error("Failed to get customer head",
			zap.Int64("customer_id", customerID),
			zap.String("column", column),
			zap.Error(err))
		return "", fmt.Errorf("failed to get customer head: %w", err)
	}

	if !head.Valid {
		return "", nil
	}
	return head.String, nil
}

// Verify interface compliance
var _ port.CustomerService = (*CustomerRepository)(nil)
