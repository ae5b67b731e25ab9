package entity

import "time"

// ApprovalInstance is one concrete run of a process definition for one order.
// At most one instance exists per order at a time.
type ApprovalInstance struct {
	ID            int64     `json:"id"`
	ProcessID     int64     `json:"process_id"`
	OrderID       int64     `json:"order_id"`
	CurrentNodeID int64     `json:"current_node_id,omitempty"`
	CurrentStep   int       `json:"current_step"`
	Status        string    `json:"status"`
	CreatedBy     string    `json:"created_by"`
	UpdatedBy     string    `json:"updated_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsTerminal reports whether the instance can no longer be acted on.
func (i *ApprovalInstance) IsTerminal() bool {
	switch i.Status {
	case InstanceStatusApproved, InstanceStatusRejected, InstanceStatusCancelled:
		return true
	}
	return false
}
