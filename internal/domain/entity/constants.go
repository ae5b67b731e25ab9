package entity

// Status constants for ApprovalInstance
const (
	InstanceStatusInProgress = "IN_PROGRESS"
	InstanceStatusApproved   = "APPROVED"
	InstanceStatusRejected   = "REJECTED"
	InstanceStatusCancelled  = "CANCELLED"
)

// Status constants for ApprovalTask
const (
	TaskStatusPending  = "PENDING"
	TaskStatusApproved = "APPROVED"
	TaskStatusRejected = "REJECTED"
	TaskStatusSkipped  = "SKIPPED"
)

// Node type constants for ProcessNode
const (
	NodeTypeStart    = "START"
	NodeTypeApproval = "APPROVAL"
)

// Assignee type constants for ProcessNode
const (
	AssigneeTypeRole                = "ROLE"
	AssigneeTypeUser                = "USER"
	AssigneeTypeCustomerResponsible = "CUSTOMER_RESPONSIBLE"
)

// Assignee value constants for CUSTOMER_RESPONSIBLE nodes
const (
	AssigneeRegionalHead   = "REGIONAL_HEAD"
	AssigneeProvincialHead = "PROVINCIAL_HEAD"
)

// Approval strategy constants for ProcessNode
const (
	StrategyAnyOne = "ANY_ONE"
	StrategyAll    = "ALL"
)

// Approval action constants
const (
	ActionAgree  = "AGREE"
	ActionReject = "REJECT"
)

// Audit log action constants
const (
	AuditActionSubmit  = "SUBMIT"
	AuditActionApprove = "APPROVE"
	AuditActionReject  = "REJECT"
)
