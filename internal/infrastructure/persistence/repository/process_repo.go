package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yundist/order-approval/internal/application/port"
	"github.com/yundist/order-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// ProcessRepository implements port.ProcessRepository. Process definitions
// are immutable reference data; all queries are read-only and filter out
// disabled or deleted rows.
type ProcessRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProcessRepository creates a new process repository
func NewProcessRepository(db *sql.DB, logger *zap.Logger) port.ProcessRepository {
	return &ProcessRepository{
		db:     db,
		logger: logger,
	}
}

// GetByCode retrieves a process definition by its business code
func (r *ProcessRepository) GetByCode(ctx context.Context, processCode string) (*entity.ProcessDefinition, error) {
	query := `
		SELECT id, process_code, name, created_at
		FROM process_definitions
		WHERE process_code = ?
	`

	var def entity.ProcessDefinition
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, processCode).Scan(
		&def.ID,
		&def.ProcessCode,
		&def.Name,
		&def.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get process definition", zap.String("process_code", processCode), zap.Error(err))
		return nil, fmt.Errorf("failed to get process definition: %w", err)
	}

	return &def, nil
}

// GetStartNode retrieves the enabled START node of a process
func (r *ProcessRepository) GetStartNode(ctx context.Context, processID int64) (*entity.ProcessNode, error) {
	query := nodeSelect + `
		WHERE process_id = ? AND node_type = ? AND enabled = 1 AND deleted = 0
	`

	node, err := r.scanNode(getExecutor(ctx, r.db).QueryRowContext(ctx, query, processID, entity.NodeTypeStart))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get start node", zap.Int64("process_id", processID), zap.Error(err))
		return nil, fmt.Errorf("failed to get start node: %w", err)
	}

	return node, nil
}

// GetNodeByID retrieves an enabled, non-deleted node by ID
func (r *ProcessRepository) GetNodeByID(ctx context.Context, id int64) (*entity.ProcessNode, error) {
	query := nodeSelect + `
		WHERE id = ? AND enabled = 1 AND deleted = 0
	`

	node, err := r.scanNode(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get process node", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get process node: %w", err)
	}

	return node, nil
}

// GetOutgoingRouters retrieves the enabled, non-deleted routers leaving a node
func (r *ProcessRepository) GetOutgoingRouters(ctx context.Context, sourceNodeID int64) ([]*entity.ProcessRouter, error) {
	query := `
		SELECT id, process_id, source_node_id, target_node_id, condition_expression, priority, enabled, deleted
		FROM process_routers
		WHERE source_node_id = ? AND enabled = 1 AND deleted = 0
		ORDER BY priority, id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, sourceNodeID)
	if err != nil {
		r.logger.Error("Failed to get outgoing routers", zap.Int64("source_node_id", sourceNodeID), zap.Error(err))
		return nil, fmt.Errorf("failed to get outgoing routers: %w", err)
	}
	defer rows.Close()

	var routers []*entity.ProcessRouter
	for rows.Next() {
		var router entity.ProcessRouter
		var condition sql.NullString

		err := rows.Scan(
			&router.ID,
			&router.ProcessID,
			&router.SourceNodeID,
			&router.TargetNodeID,
			&condition,
			&router.Priority,
			&router.Enabled,
			&router.Deleted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan process router: %w", err)
		}

		if condition.Valid {
			router.ConditionExpression = condition.String
		}

		routers = append(routers, &router)
	}

	return routers, rows.Err()
}

const nodeSelect = `
		SELECT id, process_id, node_key, name, node_type, node_order,
			assignee_type, assignee_value, approval_strategy, enabled, deleted
		FROM process_nodes
`

// scanNode scans a single node row
func (r *ProcessRepository) scanNode(row *sql.Row) (*entity.ProcessNode, error) {
	var node entity.ProcessNode
	var assigneeType, assigneeValue sql.NullString

	err := row.Scan(
		&node.ID,
		&node.ProcessID,
		&node.NodeKey,
		&node.Name,
		&node.NodeType,
		&node.NodeOrder,
		&assigneeType,
		&assigneeValue,
		&node.ApprovalStrategy,
		&node.Enabled,
		&node.Deleted,
	)
	if err != nil {
		return nil, err
	}

	if assigneeType.Valid {
		node.AssigneeType = assigneeType.String
	}
	if assigneeValue.Valid {
		node.AssigneeValue = assigneeValue.String
	}

	return &node, nil
}

// Verify interface compliance
var _ port.ProcessRepository = (*ProcessRepository)(nil)
