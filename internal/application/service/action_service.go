package service

import (
	"context"
	"fmt"

	"github.com/yundist/order-approval/internal/application/port"
	"github.com/yundist/order-approval/internal/domain/entity"
	"github.com/yundist/order-approval/internal/domain/workflow"
)

// TaskActionRequest is an approve/reject action on one task.
type TaskActionRequest struct {
	TaskID int64  `json:"task_id"`
	Action string `json:"action"`
	Remark string `json:"remark"`
}

// TaskActionResult tells the caller where the instance ended up.
type TaskActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ActionService consumes approve/reject actions on approval tasks.
type ActionService interface {
	// ProcessTaskApproval applies an action to a task, skips sibling tasks at
	// the same step, advances or finalizes the instance, and updates the
	// order's externally visible status, all in one transaction.
	ProcessTaskApproval(ctx context.Context, req *TaskActionRequest, actor entity.Actor) (*TaskActionResult, error)
}

type actionServiceImpl struct {
	instanceRepo port.InstanceRepository
	taskRepo     port.TaskRepository
	auditRepo    port.AuditLogRepository
	orders       port.OrderService
	txManager    port.TransactionManager
	mapping      StatusMapping
	logger       Logger
}

// NewActionService creates a new ActionService.
func NewActionService(
	instanceRepo port.InstanceRepository,
	taskRepo port.TaskRepository,
	auditRepo port.AuditLogRepository,
	orders port.OrderService,
	txManager port.TransactionManager,
	mapping StatusMapping,
	logger Logger,
) ActionService {
	return &actionServiceImpl{
		instanceRepo: instanceRepo,
		taskRepo:     taskRepo,
		auditRepo:    auditRepo,
		orders:       orders,
		txManager:    txManager,
		mapping:      mapping,
		logger:       logger,
	}
}

// ProcessTaskApproval validates and commits one approval action. The state
// machine validates the instance transition; conditional status updates
// (UPDATE ... WHERE status = expected) guard against two concurrent actions
// both observing PENDING.
func (s *actionServiceImpl) ProcessTaskApproval(ctx context.Context, req *TaskActionRequest, actor entity.Actor) (*TaskActionResult, error) {
	if req.Action != entity.ActionAgree && req.Action != entity.ActionReject {
		return nil, entity.NewBusinessError("unsupported approval action %s", req.Action)
	}

	var result *TaskActionResult
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		task, err := s.taskRepo.GetByID(txCtx, req.TaskID)
		if err != nil {
			return err
		}
		if task == nil {
			return entity.NewNotFoundError("approval task %d", req.TaskID)
		}

		instance, err := s.instanceRepo.GetByID(txCtx, task.InstanceID)
		if err != nil {
			return err
		}
		if instance == nil {
			return entity.NewNotFoundError("approval instance %d", task.InstanceID)
		}

		if instance.Status == entity.InstanceStatusRejected {
			return entity.NewBusinessError("order %d approval was already rejected", instance.OrderID)
		}
		if instance.IsTerminal() {
			return entity.NewBusinessError("order %d approval already finished with status %s", instance.OrderID, instance.Status)
		}
		if task.Status != entity.TaskStatusPending {
			return entity.NewBusinessError("task %d is %s, only pending tasks can be acted on", task.ID, task.Status)
		}
		// Tasks are created up front for every step, so a later approver's
		// task is already PENDING; steps must still complete in order.
		if task.TaskStep != instance.CurrentStep {
			return entity.NewBusinessError("task %d is at step %d, not the current approval step %d", task.ID, task.TaskStep, instance.CurrentStep)
		}
		if task.ApproverUserID != actor.UserID {
			return entity.NewBusinessError("user %s is not the assignee of task %d", actor.UserID, task.ID)
		}

		machine, err := workflow.BuildApprovalStateMachine(workflow.State(instance.Status))
		if err != nil {
			return fmt.Errorf("build state machine: %w", err)
		}

		if req.Action == entity.ActionReject {
			result, err = s.reject(txCtx, machine, instance, task, req.Remark, actor)
		} else {
			result, err = s.agree(txCtx, machine, instance, task, req.Remark, actor)
		}
		return err
	})
	if err != nil {
		s.logger.Error("Failed to process task approval",
			"error", err, "task_id", req.TaskID, "action", req.Action, "actor", actor.UserID)
		return nil, err
	}

	s.logger.Info("Task approval processed",
		"task_id", req.TaskID, "action", req.Action, "actor", actor.UserID, "result", result.Status)
	return result, nil
}

// reject terminates the whole instance; a single rejection is final with no
// "retry this step" path.
func (s *actionServiceImpl) reject(ctx context.Context, machine workflow.StateMachine, instance *entity.ApprovalInstance, task *entity.ApprovalTask, remark string, actor entity.Actor) (*TaskActionResult, error) {
	if err := machine.Fire(workflow.TriggerReject); err != nil {
		return nil, err
	}

	if err := s.taskRepo.CompleteIf(ctx, task.ID, entity.TaskStatusPending, entity.TaskStatusRejected, remark, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.skipSiblings(ctx, instance.ID, task, actor); err != nil {
		return nil, err
	}
	if err := s.instanceRepo.UpdateStatusIf(ctx, instance.ID, entity.InstanceStatusInProgress, machine.State().String(), actor.UserID); err != nil {
		return nil, err
	}

	if err := s.finish(ctx, instance, task, entity.AuditActionReject, s.mapping.Rejected, remark, actor); err != nil {
		return nil, err
	}

	return &TaskActionResult{
		Status:  entity.InstanceStatusRejected,
		Message: "approval rejected",
	}, nil
}

// agree approves the task, then either advances the instance to the next
// pending step or finalizes it as approved.
func (s *actionServiceImpl) agree(ctx context.Context, machine workflow.StateMachine, instance *entity.ApprovalInstance, task *entity.ApprovalTask, remark string, actor entity.Actor) (*TaskActionResult, error) {
	if err := s.taskRepo.CompleteIf(ctx, task.ID, entity.TaskStatusPending, entity.TaskStatusApproved, remark, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.skipSiblings(ctx, instance.ID, task, actor); err != nil {
		return nil, err
	}

	next, err := s.taskRepo.GetNextPending(ctx, instance.ID, task.TaskStep)
	if err != nil {
		return nil, err
	}

	if next != nil {
		if err := machine.Fire(workflow.TriggerAdvance); err != nil {
			return nil, err
		}
		if err := s.instanceRepo.UpdateCurrent(ctx, instance.ID, next.NodeID, next.TaskStep, actor.UserID); err != nil {
			return nil, err
		}

		orderStatus, err := s.mapping.ForNode(next.NodeKey)
		if err != nil {
			return nil, err
		}
		if err := s.finish(ctx, instance, task, entity.AuditActionApprove, orderStatus, remark, actor); err != nil {
			return nil, err
		}

		return &TaskActionResult{
			Status:  entity.InstanceStatusInProgress,
			Message: fmt.Sprintf("advanced to step %d", next.TaskStep),
		}, nil
	}

	if err := machine.Fire(workflow.TriggerApprove); err != nil {
		return nil, err
	}
	if err := s.instanceRepo.UpdateStatusIf(ctx, instance.ID, entity.InstanceStatusInProgress, machine.State().String(), actor.UserID); err != nil {
		return nil, err
	}
	if err := s.finish(ctx, instance, task, entity.AuditActionApprove, s.mapping.Approved, remark, actor); err != nil {
		return nil, err
	}

	return &TaskActionResult{
		Status:  entity.InstanceStatusApproved,
		Message: "approval completed",
	}, nil
}

// skipSiblings marks the other pending tasks at the same step as skipped.
func (s *actionServiceImpl) skipSiblings(ctx context.Context, instanceID int64, acted *entity.ApprovalTask, actor entity.Actor) error {
	siblings, err := s.taskRepo.GetByStep(ctx, instanceID, acted.TaskStep)
	if err != nil {
		return err
	}
	for _, sibling := range siblings {
		if sibling.ID == acted.ID || sibling.Status != entity.TaskStatusPending {
			continue
		}
		if err := s.taskRepo.CompleteIf(ctx, sibling.ID, entity.TaskStatusPending, entity.TaskStatusSkipped,
			"peer approver acted, step skipped", actor.UserID); err != nil {
			return err
		}
	}
	return nil
}

// finish performs the side effects that commit atomically with the
// transition: order status update and audit log entry.
func (s *actionServiceImpl) finish(ctx context.Context, instance *entity.ApprovalInstance, task *entity.ApprovalTask, action, orderStatus, remark string, actor entity.Actor) error {
	if err := s.orders.UpdateOrderStatus(ctx, instance.OrderID, orderStatus, remark, actor); err != nil {
		return err
	}

	return s.auditRepo.Write(ctx, &entity.AuditLog{
		OrderID:      instance.OrderID,
		InstanceID:   instance.ID,
		TaskID:       task.ID,
		Action:       action,
		OperatorID:   actor.UserID,
		OperatorName: actor.DisplayName,
		Detail:       remark,
	})
}
