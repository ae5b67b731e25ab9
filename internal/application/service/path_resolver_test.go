package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yundist/order-approval/internal/domain/entity"
	"github.com/yundist/order-approval/internal/domain/expr"
)

// graph wires a mockProcessRepo from in-memory nodes and routers.
func graph(nodes []*entity.ProcessNode, routers []*entity.ProcessRouter) *mockProcessRepo {
	return &mockProcessRepo{
		GetStartNodeFn: func(ctx context.Context, processID int64) (*entity.ProcessNode, error) {
			for _, n := range nodes {
				if n.NodeType == entity.NodeTypeStart {
					return n, nil
				}
			}
			return nil, nil
		},
		GetNodeByIDFn: func(ctx context.Context, id int64) (*entity.ProcessNode, error) {
			for _, n := range nodes {
				if n.ID == id {
					return n, nil
				}
			}
			return nil, nil
		},
		GetOutgoingRoutersFn: func(ctx context.Context, sourceNodeID int64) ([]*entity.ProcessRouter, error) {
			var out []*entity.ProcessRouter
			for _, r := range routers {
				if r.SourceNodeID == sourceNodeID {
					out = append(out, r)
				}
			}
			return out, nil
		},
	}
}

func newPathResolver(repo *mockProcessRepo) *PathResolver {
	return NewPathResolver(repo, expr.NewEvaluator(zap.NewNop()), noopLogger{})
}

func TestResolvePath_LinearPath(t *testing.T) {
	nodes := []*entity.ProcessNode{
		{ID: 1, NodeKey: "START", NodeType: entity.NodeTypeStart},
		{ID: 2, NodeKey: "PROVINCIAL_APPROVAL", NodeType: entity.NodeTypeApproval},
		{ID: 3, NodeKey: "REGIONAL_APPROVAL", NodeType: entity.NodeTypeApproval},
	}
	routers := []*entity.ProcessRouter{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2},
		{ID: 2, SourceNodeID: 2, TargetNodeID: 3},
	}

	path, err := newPathResolver(graph(nodes, routers)).ResolvePath(context.Background(), 1, expr.Context{})
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, "PROVINCIAL_APPROVAL", path[0].NodeKey)
	assert.Equal(t, "REGIONAL_APPROVAL", path[1].NodeKey)
}

func TestResolvePath_ConditionRouting(t *testing.T) {
	nodes := []*entity.ProcessNode{
		{ID: 1, NodeKey: "START", NodeType: entity.NodeTypeStart},
		{ID: 2, NodeKey: "PROVINCIAL_APPROVAL", NodeType: entity.NodeTypeApproval},
		{ID: 3, NodeKey: "REGIONAL_APPROVAL", NodeType: entity.NodeTypeApproval},
	}
	// Large orders go through the provincial head first; small orders route
	// straight to the regional head via the unconditional fallback.
	routers := []*entity.ProcessRouter{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2, ConditionExpression: "amountBetween(50000,-1)", Priority: 10},
		{ID: 2, SourceNodeID: 1, TargetNodeID: 3, Priority: 20},
		{ID: 3, SourceNodeID: 2, TargetNodeID: 3, Priority: 10},
	}
	resolver := newPathResolver(graph(nodes, routers))

	large, err := resolver.ResolvePath(context.Background(), 1, expr.Context{Amount: 80000})
	require.NoError(t, err)
	require.Len(t, large, 2)
	assert.Equal(t, "PROVINCIAL_APPROVAL", large[0].NodeKey)

	small, err := resolver.ResolvePath(context.Background(), 1, expr.Context{Amount: 1000})
	require.NoError(t, err)
	require.Len(t, small, 1)
	assert.Equal(t, "REGIONAL_APPROVAL", small[0].NodeKey)
}

func TestResolvePath_TieBreakOnRouterID(t *testing.T) {
	nodes := []*entity.ProcessNode{
		{ID: 1, NodeKey: "START", NodeType: entity.NodeTypeStart},
		{ID: 2, NodeKey: "A", NodeType: entity.NodeTypeApproval},
		{ID: 3, NodeKey: "B", NodeType: entity.NodeTypeApproval},
	}
	// Same priority, both unconditional: the lower router id must win, and the
	// result must not depend on the order rows come back from the store.
	routers := []*entity.ProcessRouter{
		{ID: 9, SourceNodeID: 1, TargetNodeID: 3, Priority: 10},
		{ID: 4, SourceNodeID: 1, TargetNodeID: 2, Priority: 10},
	}

	for i := 0; i < 5; i++ {
		path, err := newPathResolver(graph(nodes, routers)).ResolvePath(context.Background(), 1, expr.Context{})
		require.NoError(t, err)
		require.Len(t, path, 1)
		assert.Equal(t, "A", path[0].NodeKey)
	}
}

func TestResolvePath_CycleFailsFast(t *testing.T) {
	nodes := []*entity.ProcessNode{
		{ID: 1, NodeKey: "START", NodeType: entity.NodeTypeStart},
		{ID: 2, NodeKey: "A", NodeType: entity.NodeTypeApproval},
		{ID: 3, NodeKey: "B", NodeType: entity.NodeTypeApproval},
	}
	routers := []*entity.ProcessRouter{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2},
		{ID: 2, SourceNodeID: 2, TargetNodeID: 3},
		{ID: 3, SourceNodeID: 3, TargetNodeID: 2},
	}

	_, err := newPathResolver(graph(nodes, routers)).ResolvePath(context.Background(), 1, expr.Context{})
	require.Error(t, err)
	assert.True(t, entity.IsBusinessError(err))
	assert.Contains(t, err.Error(), "cycle")
}

func TestResolvePath_EmptyPathIsError(t *testing.T) {
	nodes := []*entity.ProcessNode{
		{ID: 1, NodeKey: "START", NodeType: entity.NodeTypeStart},
	}

	_, err := newPathResolver(graph(nodes, nil)).ResolvePath(context.Background(), 1, expr.Context{})
	require.Error(t, err)
	assert.True(t, entity.IsBusinessError(err))
	assert.Contains(t, err.Error(), "no approval route matched")
}

func TestResolvePath_NonApprovalTargetIsError(t *testing.T) {
	nodes := []*entity.ProcessNode{
		{ID: 1, NodeKey: "START", NodeType: entity.NodeTypeStart},
		{ID: 2, NodeKey: "START2", NodeType: entity.NodeTypeStart},
	}
	routers := []*entity.ProcessRouter{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2},
	}

	_, err := newPathResolver(graph(nodes, routers)).ResolvePath(context.Background(), 1, expr.Context{})
	require.Error(t, err)
	assert.True(t, entity.IsBusinessError(err))
}
