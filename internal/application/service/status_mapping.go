package service

import (
	"github.com/yundist/order-approval/internal/domain/entity"
)

// StatusMapping maps process node keys to externally visible order statuses.
// The mapping is configuration, not engine logic; a node without a mapped
// status fails loudly rather than guessing.
type StatusMapping struct {
	ByNodeKey map[string]string
	Approved  string
	Rejected  string
	Locked    []string
}

// ForNode returns the order status for a node key, or a business error if
// the node has no mapping.
func (m StatusMapping) ForNode(nodeKey string) (string, error) {
	status, ok := m.ByNodeKey[nodeKey]
	if !ok || status == "" {
		return "", entity.NewBusinessError("no order status mapped for approval node %s", nodeKey)
	}
	return status, nil
}

// IsLocked reports whether an order status blocks resubmission.
func (m StatusMapping) IsLocked(orderStatus string) bool {
	for _, s := range m.Locked {
		if s == orderStatus {
			return true
		}
	}
	return false
}
