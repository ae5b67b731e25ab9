package entity

import "time"

// ApprovalTask is one approver's unit of work within an instance, tied to one
// process node. Tasks at the same TaskStep are alternative approvers for one
// logical node; acting on one skips the rest.
//
// NodeKey is denormalized from the process node so the action processor can
// map a task to the externally visible order status without re-reading the
// process graph.
type ApprovalTask struct {
	ID             int64     `json:"id"`
	InstanceID     int64     `json:"instance_id"`
	NodeID         int64     `json:"node_id"`
	NodeKey        string    `json:"node_key"`
	TaskStep       int       `json:"task_step"`
	ApproverUserID string    `json:"approver_user_id,omitempty"`
	Status         string    `json:"status"`
	AutoApproved   bool      `json:"auto_approved"`
	Remark         string    `json:"remark,omitempty"`
	CompletedBy    string    `json:"completed_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Actor identifies the authenticated user performing a mutating call. The
// engine never authenticates, it only records who acted.
type Actor struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// SubmissionContext carries everything the engine needs about an order
// submission: routing inputs for condition evaluation and the submitter
// identity for self-approval checks.
type SubmissionContext struct {
	OrderID       int64   `json:"order_id"`
	CustomerID    int64   `json:"customer_id"`
	CreatorID     string  `json:"creator_id"`
	CreatorName   string  `json:"creator_name"`
	CreatorRole   string  `json:"creator_role"`
	TotalAmount   float64 `json:"total_amount"`
	QuotaExceeded bool    `json:"quota_exceeded"`
}

// AuditLog is one audit trail entry, written in the same transaction as the
// mutation it records.
type AuditLog struct {
	ID           int64     `json:"id"`
	OrderID      int64     `json:"order_id"`
	InstanceID   int64     `json:"instance_id"`
	TaskID       int64     `json:"task_id,omitempty"`
	Action       string    `json:"action"`
	OperatorID   string    `json:"operator_id"`
	OperatorName string    `json:"operator_name"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
