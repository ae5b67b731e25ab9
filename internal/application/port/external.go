package port

import (
	"context"

	"github.com/yundist/order-approval/internal/domain/entity"
)

// OrderService is the order collaborator. The engine passes statuses through
// but does not own order semantics.
type OrderService interface {
	GetOrderStatus(ctx context.Context, orderID int64) (string, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status, approvalRemark string, actor entity.Actor) error
}

// CustomerService resolves the responsible heads for a customer. An empty
// user id means no head is configured.
type CustomerService interface {
	GetRegionalHead(ctx context.Context, customerID int64) (string, error)
	GetProvincialHead(ctx context.Context, customerID int64) (string, error)
}
