package entity

import "time"

// ProcessDefinition is the reusable approval process template, looked up by
// its globally unique business code (e.g. OFFLINE_ORDER).
type ProcessDefinition struct {
	ID          int64     `json:"id"`
	ProcessCode string    `json:"process_code"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProcessNode is one checkpoint in a process definition. The NodeKey is a
// stable business identifier used to map a node to an external order status.
type ProcessNode struct {
	ID               int64  `json:"id"`
	ProcessID        int64  `json:"process_id"`
	NodeKey          string `json:"node_key"`
	Name             string `json:"name"`
	NodeType         string `json:"node_type"`
	NodeOrder        int    `json:"node_order"`
	AssigneeType     string `json:"assignee_type"`
	AssigneeValue    string `json:"assignee_value"`
	ApprovalStrategy string `json:"approval_strategy"`
	Enabled          bool   `json:"enabled"`
	Deleted          bool   `json:"deleted"`
}

// ProcessRouter is a directed, conditional edge between two nodes. A nil/empty
// condition means "always true". Lower priority wins; ties break on ID.
type ProcessRouter struct {
	ID                  int64  `json:"id"`
	ProcessID           int64  `json:"process_id"`
	SourceNodeID        int64  `json:"source_node_id"`
	TargetNodeID        int64  `json:"target_node_id"`
	ConditionExpression string `json:"condition_expression,omitempty"`
	Priority            int    `json:"priority"`
	Enabled             bool   `json:"enabled"`
	Deleted             bool   `json:"deleted"`
}
