package service

import (
	"context"

	"github.com/yundist/order-approval/internal/application/port"
	"github.com/yundist/order-approval/internal/domain/entity"
)

// Resolution is the outcome of assigning one approval node for one
// submission: who approves, the task's initial status, and whether the step
// resolved without human action.
type Resolution struct {
	ApproverUserID string
	Status         string
	AutoApproved   bool
	Remark         string
}

// AssigneeResolver turns a node's assignment configuration into a concrete
// approver. It is read-only; customer lookups go through the collaborator.
type AssigneeResolver struct {
	customers port.CustomerService
	logger    Logger
}

// NewAssigneeResolver creates a new assignee resolver.
func NewAssigneeResolver(customers port.CustomerService, logger Logger) *AssigneeResolver {
	return &AssigneeResolver{
		customers: customers,
		logger:    logger,
	}
}

// Resolve determines the approver for node. A configured approver equal to
// the submitter is auto-approved. A missing provincial head skips the step;
// a missing regional head is a hard business error because every order must
// have one. Unsupported assignment configurations fail with a descriptive
// error rather than silently defaulting.
func (r *AssigneeResolver) Resolve(ctx context.Context, node *entity.ProcessNode, sub *entity.SubmissionContext) (*Resolution, error) {
	switch node.AssigneeType {
	case entity.AssigneeTypeUser:
		return r.resolveUser(node.AssigneeValue, sub), nil

	case entity.AssigneeTypeCustomerResponsible:
		return r.resolveCustomerResponsible(ctx, node, sub)

	case entity.AssigneeTypeRole:
		// Supported by the contract, not used by any current process.
		return nil, entity.NewBusinessError("role based assignment (%s) is not supported for node %s", node.AssigneeValue, node.NodeKey)

	default:
		return nil, entity.NewBusinessError("unsupported assignee type %s on node %s", node.AssigneeType, node.NodeKey)
	}
}

func (r *AssigneeResolver) resolveUser(approverID string, sub *entity.SubmissionContext) *Resolution {
	if approverID == sub.CreatorID {
		return &Resolution{
			ApproverUserID: approverID,
			Status:         entity.TaskStatusApproved,
			AutoApproved:   true,
			Remark:         "self-approval, auto-approved",
		}
	}
	return &Resolution{
		ApproverUserID: approverID,
		Status:         entity.TaskStatusPending,
	}
}

func (r *AssigneeResolver) resolveCustomerResponsible(ctx context.Context, node *entity.ProcessNode, sub *entity.SubmissionContext) (*Resolution, error) {
	switch node.AssigneeValue {
	case entity.AssigneeProvincialHead:
		headID, err := r.customers.GetProvincialHead(ctx, sub.CustomerID)
		if err != nil {
			return nil, err
		}
		if headID == "" {
			// The one case where an absent approver is not an error.
			return &Resolution{
				Status:       entity.TaskStatusSkipped,
				AutoApproved: true,
				Remark:       "no provincial head, step skipped",
			}, nil
		}
		return r.resolveUser(headID, sub), nil

	case entity.AssigneeRegionalHead:
		headID, err := r.customers.GetRegionalHead(ctx, sub.CustomerID)
		if err != nil {
			return nil, err
		}
		if headID == "" {
			return nil, entity.NewBusinessError("customer %d has no regional head, cannot submit order", sub.CustomerID)
		}
		return r.resolveUser(headID, sub), nil

	default:
		return nil, entity.NewBusinessError("unsupported customer responsible value %s on node %s", node.AssigneeValue, node.NodeKey)
	}
}
