// Package port defines the interfaces the application layer depends on.
// Implementations live in the infrastructure layer.
package port

import (
	"context"

	"github.com/yundist/order-approval/internal/domain/entity"
)

// ProcessRepository is the read-only lookup of process definitions and their
// graphs. Node and router queries only return enabled, non-deleted rows.
type ProcessRepository interface {
	GetByCode(ctx context.Context, processCode string) (*entity.ProcessDefinition, error)
	GetStartNode(ctx context.Context, processID int64) (*entity.ProcessNode, error)
	GetNodeByID(ctx context.Context, id int64) (*entity.ProcessNode, error)
	GetOutgoingRouters(ctx context.Context, sourceNodeID int64) ([]*entity.ProcessRouter, error)
}

// InstanceRepository manages approval instance rows.
type InstanceRepository interface {
	Create(ctx context.Context, instance *entity.ApprovalInstance) error
	GetByID(ctx context.Context, id int64) (*entity.ApprovalInstance, error)
	GetByOrderID(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error)

	// UpdateStatusIf transitions the instance status only if it still has the
	// expected current status; returns entity.ErrConflict otherwise. This is
	// the optimistic guard against concurrent approval actions.
	UpdateStatusIf(ctx context.Context, id int64, fromStatus, toStatus, updatedBy string) error

	// UpdateCurrent moves the instance pointer to the given node/step.
	UpdateCurrent(ctx context.Context, id int64, nodeID int64, step int, updatedBy string) error

	// Delete hard-deletes an instance; used only when a resubmission discards
	// a prior, unacted instance.
	Delete(ctx context.Context, id int64) error
}

// TaskRepository manages approval task rows.
type TaskRepository interface {
	Create(ctx context.Context, task *entity.ApprovalTask) error
	GetByID(ctx context.Context, id int64) (*entity.ApprovalTask, error)
	GetByInstanceID(ctx context.Context, instanceID int64) ([]*entity.ApprovalTask, error)
	GetByStep(ctx context.Context, instanceID int64, taskStep int) ([]*entity.ApprovalTask, error)

	// GetNextPending returns the pending task with the smallest step greater
	// than afterStep, or nil if none remains.
	GetNextPending(ctx context.Context, instanceID int64, afterStep int) (*entity.ApprovalTask, error)

	// CompleteIf moves a task from fromStatus to toStatus, recording remark
	// and actor; returns entity.ErrConflict if the task was no longer in
	// fromStatus.
	CompleteIf(ctx context.Context, id int64, fromStatus, toStatus, remark, completedBy string) error

	// GetPendingByApprover returns the user's actionable tasks: pending tasks
	// at the current step of an in-progress instance.
	GetPendingByApprover(ctx context.Context, approverUserID string) ([]*entity.ApprovalTask, error)
	DeleteByInstanceID(ctx context.Context, instanceID int64) error
}

// AuditLogRepository appends audit trail entries. Writes participate in the
// ambient transaction.
type AuditLogRepository interface {
	Write(ctx context.Context, log *entity.AuditLog) error
}

// TransactionManager provides transaction boundaries for multi-repository operations
type TransactionManager interface {
	// WithTransaction executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
