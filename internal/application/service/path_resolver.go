package service

import (
	"context"
	"sort"

	"github.com/yundist/order-approval/internal/application/port"
	"github.com/yundist/order-approval/internal/domain/entity"
	"github.com/yundist/order-approval/internal/domain/expr"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// PathResolver walks a process graph and produces the ordered list of
// approval nodes an order must pass through. It is read-only with respect to
// engine state.
type PathResolver struct {
	processRepo port.ProcessRepository
	evaluator   *expr.Evaluator
	logger      Logger
}

// NewPathResolver creates a new path resolver.
func NewPathResolver(processRepo port.ProcessRepository, evaluator *expr.Evaluator, logger Logger) *PathResolver {
	return &PathResolver{
		processRepo: processRepo,
		evaluator:   evaluator,
		logger:      logger,
	}
}

// ResolvePath walks from the process start node, at each node evaluating
// outgoing routers in (priority, id) order and following the first whose
// condition is satisfied. Traversal halts when no router matches; an empty
// resulting path is a business error because submission needs at least one
// approver. Revisiting a node fails fast instead of looping forever.
func (r *PathResolver) ResolvePath(ctx context.Context, processID int64, rctx expr.Context) ([]*entity.ProcessNode, error) {
	start, err := r.processRepo.GetStartNode(ctx, processID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, entity.NewNotFoundError("start node for process %d", processID)
	}

	var path []*entity.ProcessNode
	visited := map[int64]bool{start.ID: true}
	current := start

	for {
		next, err := r.nextNode(ctx, current, rctx)
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}

		if visited[next.ID] {
			return nil, entity.NewBusinessError("process %d router graph has a cycle at node %s", processID, next.NodeKey)
		}
		visited[next.ID] = true

		path = append(path, next)
		current = next
	}

	if len(path) == 0 {
		return nil, entity.NewBusinessError("no approval route matched for process %d, submission cannot proceed", processID)
	}

	return path, nil
}

// nextNode evaluates the outgoing routers of node and returns the target of
// the first satisfied one, or nil when traversal should stop.
func (r *PathResolver) nextNode(ctx context.Context, node *entity.ProcessNode, rctx expr.Context) (*entity.ProcessNode, error) {
	routers, err := r.processRepo.GetOutgoingRouters(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	if len(routers) == 0 {
		return nil, nil
	}

	// Deterministic order: priority ascending, router id as tie-break.
	sort.Slice(routers, func(i, j int) bool {
		if routers[i].Priority != routers[j].Priority {
			return routers[i].Priority < routers[j].Priority
		}
		return routers[i].ID < routers[j].ID
	})

	for _, router := range routers {
		if !r.evaluator.Evaluate(router.ConditionExpression, rctx) {
			continue
		}

		target, err := r.processRepo.GetNodeByID(ctx, router.TargetNodeID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, entity.NewNotFoundError("router %d target node %d", router.ID, router.TargetNodeID)
		}
		if target.NodeType != entity.NodeTypeApproval {
			return nil, entity.NewBusinessError("router %d target node %s is not an approval node", router.ID, target.NodeKey)
		}
		return target, nil
	}

	// No condition satisfied: the previous node is the final approval step.
	return nil, nil
}
