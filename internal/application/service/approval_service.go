package service

import (
	"context"

	"github.com/yundist/order-approval/internal/application/port"
	"github.com/yundist/order-approval/internal/domain/entity"
	"github.com/yundist/order-approval/internal/domain/expr"
)

// ApprovalService starts approval processes and answers the guard and query
// surface around them.
type ApprovalService interface {
	// StartApprovalProcess resolves the approval path for a submission,
	// creates the instance and all of its tasks in one transaction, and
	// returns the persisted instance.
	StartApprovalProcess(ctx context.Context, sub *entity.SubmissionContext) (*entity.ApprovalInstance, error)

	// ValidateResubmission returns the existing instance for an order (nil if
	// none) or a business error when resubmission is blocked.
	ValidateResubmission(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error)

	// ValidateCancellation returns the existing instance for an order (nil if
	// none) or a business error when cancellation is blocked.
	ValidateCancellation(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error)

	GetPendingTasks(ctx context.Context, approverUserID string) ([]*entity.ApprovalTask, error)
	GetInstance(ctx context.Context, instanceID int64) (*entity.ApprovalInstance, error)
	GetTaskHistory(ctx context.Context, instanceID int64) ([]*entity.ApprovalTask, error)
}

type approvalServiceImpl struct {
	processRepo  port.ProcessRepository
	instanceRepo port.InstanceRepository
	taskRepo     port.TaskRepository
	auditRepo    port.AuditLogRepository
	orders       port.OrderService
	pathResolver *PathResolver
	assignees    *AssigneeResolver
	txManager    port.TransactionManager
	mapping      StatusMapping
	processCode  string
	logger       Logger
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(
	processRepo port.ProcessRepository,
	instanceRepo port.InstanceRepository,
	taskRepo port.TaskRepository,
	auditRepo port.AuditLogRepository,
	orders port.OrderService,
	pathResolver *PathResolver,
	assignees *AssigneeResolver,
	txManager port.TransactionManager,
	mapping StatusMapping,
	processCode string,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		processRepo:  processRepo,
		instanceRepo: instanceRepo,
		taskRepo:     taskRepo,
		auditRepo:    auditRepo,
		orders:       orders,
		pathResolver: pathResolver,
		assignees:    assignees,
		txManager:    txManager,
		mapping:      mapping,
		processCode:  processCode,
		logger:       logger,
	}
}

// StartApprovalProcess creates an approval instance and its ordered tasks.
// All lookups happen before the transaction; any failure aborts the whole
// operation so no partial instance or task rows are ever visible.
func (s *approvalServiceImpl) StartApprovalProcess(ctx context.Context, sub *entity.SubmissionContext) (*entity.ApprovalInstance, error) {
	def, err := s.processRepo.GetByCode(ctx, s.processCode)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, entity.NewNotFoundError("process definition %s", s.processCode)
	}

	// Resubmission guard: blocks if a human already exercised judgment.
	prior, err := s.ValidateResubmission(ctx, sub.OrderID)
	if err != nil {
		return nil, err
	}

	rctx := expr.Context{
		Amount:        sub.TotalAmount,
		Role:          sub.CreatorRole,
		QuotaExceeded: sub.QuotaExceeded,
	}

	path, err := s.pathResolver.ResolvePath(ctx, def.ID, rctx)
	if err != nil {
		return nil, err
	}

	// One task per node, in path order, taskStep 1-based. Assignee resolution
	// is intentionally sequential.
	tasks := make([]*entity.ApprovalTask, 0, len(path))
	for i, node := range path {
		res, err := s.assignees.Resolve(ctx, node, sub)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, &entity.ApprovalTask{
			NodeID:         node.ID,
			NodeKey:        node.NodeKey,
			TaskStep:       i + 1,
			ApproverUserID: res.ApproverUserID,
			Status:         res.Status,
			AutoApproved:   res.AutoApproved,
			Remark:         res.Remark,
		})
	}

	// The current task is the first step that genuinely needs a human.
	var currentTask *entity.ApprovalTask
	for _, task := range tasks {
		if task.Status == entity.TaskStatusPending {
			currentTask = task
			break
		}
	}

	instance := &entity.ApprovalInstance{
		ProcessID: def.ID,
		OrderID:   sub.OrderID,
		CreatedBy: sub.CreatorID,
	}

	var orderStatus string
	if currentTask != nil {
		instance.Status = entity.InstanceStatusInProgress
		instance.CurrentNodeID = currentTask.NodeID
		instance.CurrentStep = currentTask.TaskStep
		orderStatus, err = s.mapping.ForNode(currentTask.NodeKey)
		if err != nil {
			return nil, err
		}
	} else {
		// Every step auto-resolved: the instance is born approved, with the
		// step pointer past the last task.
		instance.Status = entity.InstanceStatusApproved
		instance.CurrentStep = len(tasks) + 1
		orderStatus = s.mapping.Approved
	}

	actor := entity.Actor{UserID: sub.CreatorID, DisplayName: sub.CreatorName}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if prior != nil {
			if err := s.taskRepo.DeleteByInstanceID(txCtx, prior.ID); err != nil {
				return err
			}
			if err := s.instanceRepo.Delete(txCtx, prior.ID); err != nil {
				return err
			}
		}

		if err := s.instanceRepo.Create(txCtx, instance); err != nil {
			return err
		}

		for _, task := range tasks {
			task.InstanceID = instance.ID
			if err := s.taskRepo.Create(txCtx, task); err != nil {
				return err
			}
		}

		if err := s.orders.UpdateOrderStatus(txCtx, sub.OrderID, orderStatus, "", actor); err != nil {
			return err
		}

		return s.auditRepo.Write(txCtx, &entity.AuditLog{
			OrderID:      sub.OrderID,
			InstanceID:   instance.ID,
			Action:       entity.AuditActionSubmit,
			OperatorID:   sub.CreatorID,
			OperatorName: sub.CreatorName,
			Detail:       "approval process started",
		})
	})
	if err != nil {
		s.logger.Error("Failed to start approval process", "error", err, "order_id", sub.OrderID)
		return nil, err
	}

	s.logger.Info("Approval process started",
		"order_id", sub.OrderID,
		"instance_id", instance.ID,
		"status", instance.Status,
		"steps", len(tasks))
	return instance, nil
}

// ValidateResubmission allows resubmission when no instance exists, or when
// the existing instance has seen no manual approval and the order is not in
// a locked operational state. Auto-approvals do not count as human action.
func (s *approvalServiceImpl) ValidateResubmission(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error) {
	instance, err := s.instanceRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, nil
	}

	orderStatus, err := s.orders.GetOrderStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if s.mapping.IsLocked(orderStatus) {
		return nil, entity.NewBusinessError("order %d is %s and cannot be resubmitted", orderID, orderStatus)
	}

	if err := s.requireNoManualApproval(ctx, instance, "resubmitted"); err != nil {
		return nil, err
	}
	return instance, nil
}

// ValidateCancellation allows cancellation of a rejected instance outright;
// otherwise the same "no manual approval yet" rule as resubmission applies.
func (s *approvalServiceImpl) ValidateCancellation(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error) {
	instance, err := s.instanceRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, nil
	}

	if instance.Status == entity.InstanceStatusRejected {
		return instance, nil
	}

	if err := s.requireNoManualApproval(ctx, instance, "cancelled"); err != nil {
		return nil, err
	}
	return instance, nil
}

// requireNoManualApproval fails when any task of the instance was approved by
// an actual human decision.
func (s *approvalServiceImpl) requireNoManualApproval(ctx context.Context, instance *entity.ApprovalInstance, verb string) error {
	tasks, err := s.taskRepo.GetByInstanceID(ctx, instance.ID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if task.Status == entity.TaskStatusApproved && !task.AutoApproved {
			return entity.NewBusinessError("order %d was already approved by %s and cannot be %s",
				instance.OrderID, task.CompletedBy, verb)
		}
	}
	return nil
}

// GetPendingTasks returns the pending tasks assigned to a user.
func (s *approvalServiceImpl) GetPendingTasks(ctx context.Context, approverUserID string) ([]*entity.ApprovalTask, error) {
	tasks, err := s.taskRepo.GetPendingByApprover(ctx, approverUserID)
	if err != nil {
		s.logger.Error("Failed to get pending tasks", "error", err, "approver", approverUserID)
		return nil, err
	}
	return tasks, nil
}

// GetInstance returns an approval instance by id.
func (s *approvalServiceImpl) GetInstance(ctx context.Context, instanceID int64) (*entity.ApprovalInstance, error) {
	instance, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, entity.NewNotFoundError("approval instance %d", instanceID)
	}
	return instance, nil
}

// GetTaskHistory returns all tasks of an instance in step order.
func (s *approvalServiceImpl) GetTaskHistory(ctx context.Context, instanceID int64) ([]*entity.ApprovalTask, error) {
	instance, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, entity.NewNotFoundError("approval instance %d", instanceID)
	}
	return s.taskRepo.GetByInstanceID(ctx, instanceID)
}
