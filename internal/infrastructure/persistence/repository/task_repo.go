package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yundist/order-approval/internal/application/port"
	"github.com/yundist/order-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// TaskRepository implements port.TaskRepository
type TaskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new approval task repository
func NewTaskRepository(db *sql.DB, logger *zap.Logger) port.TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new approval task
func (r *TaskRepository) Create(ctx context.Context, task *entity.ApprovalTask) error {
	query := `
		INSERT INTO approval_tasks (
			instance_id, node_id, node_key, task_step,
			approver_user_id, status, auto_approved, remark
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var approver, remark sql.NullString
	if task.ApproverUserID != "" {
		approver = sql.NullString{String: task.ApproverUserID, Valid: true}
	}
	if task.Remark != "" {
		remark = sql.NullString{String: task.Remark, Valid: true}
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		task.InstanceID,
		task.NodeID,
		task.NodeKey,
		task.TaskStep,
		approver,
		task.Status,
		task.AutoApproved,
		remark,
	)
	if err != nil {
		r.logger.Error("Failed to create approval task",
			zap.Int64("instance_id", task.InstanceID),
			zap.Int("task_step", task.TaskStep),
			zap.Error(err))
		return fmt.Errorf("failed to create approval task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	return nil
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalTask, error) {
	query := taskSelect + ` WHERE id = ?`

	task, err := r.scanTask(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval task by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval task: %w", err)
	}

	return task, nil
}

// GetByInstanceID retrieves all tasks for an instance ordered by step
func (r *TaskRepository) GetByInstanceID(ctx context.Context, instanceID int64) ([]*entity.ApprovalTask, error) {
	query := taskSelect + ` WHERE instance_id = ? ORDER BY task_step, id`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, instanceID)
	if err != nil {
		r.logger.Error("Failed to get approval tasks by instance ID",
			zap.Int64("instance_id", instanceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get approval tasks: %w", err)
	}
	defer rows.Close()

	return r.scanTasks(rows)
}

// GetByStep retrieves the tasks at one step of an instance
func (r *TaskRepository) GetByStep(ctx context.Context, instanceID int64, taskStep int) ([]*entity.ApprovalTask, error) {
	query := taskSelect + ` WHERE instance_id = ? AND task_step = ? ORDER BY id`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, instanceID, taskStep)
	if err != nil {
		r.logger.Error("Failed to get approval tasks by step",
			zap.Int64("instance_id", instanceID),
			zap.Int("task_step", taskStep),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get approval tasks: %w", err)
	}
	defer rows.Close()

	return r.scanTasks(rows)
}

// GetNextPending retrieves the pending task with the smallest step after afterStep
func (r *TaskRepository) GetNextPending(ctx context.Context, instanceID int64, afterStep int) (*entity.ApprovalTask, error) {
	query := taskSelect + `
		WHERE instance_id = ? AND task_step > ? AND status = ?
		ORDER BY task_step, id
		LIMIT 1
	`

	task, err := r.scanTask(getExecutor(ctx, r.db).QueryRowContext(ctx, query, instanceID, afterStep, entity.TaskStatusPending))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get next pending task",
			zap.Int64("instance_id", instanceID),
			zap.Int("after_step", afterStep),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get next pending task: %w", err)
	}

	return task, nil
}

// CompleteIf moves a task between statuses with an optimistic guard on the
// expected current status.
func (r *TaskRepository) CompleteIf(ctx context.Context, id int64, fromStatus, toStatus, remark, completedBy string) error {
	query := `
		UPDATE approval_tasks
		SET status = ?, remark = ?, completed_by = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	var remarkVal sql.NullString
	if remark != "" {
		remarkVal = sql.NullString{String: remark, Valid: true}
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, toStatus, remarkVal, completedBy, id, fromStatus)
	if err != nil {
		r.logger.Error("Failed to complete approval task",
			zap.Int64("id", id),
			zap.String("to_status", toStatus),
			zap.Error(err))
		return fmt.Errorf("failed to complete approval task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %d is no longer %s: %w", id, fromStatus, entity.ErrConflict)
	}

	return nil
}

// GetPendingByApprover retrieves the actionable pending tasks assigned to a
// user. Tasks exist up front for every step, so the inbox only shows tasks at
// the current step of an in-progress instance; future steps stay hidden until
// the instance advances to them.
func (r *TaskRepository) GetPendingByApprover(ctx context.Context, approverUserID string) ([]*entity.ApprovalTask, error) {
	query := `
		SELECT t.id, t.instance_id, t.node_id, t.node_key, t.task_step,
			t.approver_user_id, t.status, t.auto_approved, t.remark, t.completed_by,
			t.created_at, t.updated_at
		FROM approval_tasks t
		JOIN approval_instances i ON i.id = t.instance_id
		WHERE t.approver_user_id = ?
			AND t.status = ?
			AND i.status = ?
			AND t.task_step = i.current_step
		ORDER BY t.created_at, t.id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, approverUserID, entity.TaskStatusPending, entity.InstanceStatusInProgress)
	if err != nil {
		r.logger.Error("Failed to get pending tasks by approver",
			zap.String("approver_user_id", approverUserID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get pending tasks: %w", err)
	}
	defer rows.Close()

	return r.scanTasks(rows)
}

// DeleteByInstanceID deletes all tasks of an instance
func (r *TaskRepository) DeleteByInstanceID(ctx context.Context, instanceID int64) error {
	query := `DELETE FROM approval_tasks WHERE instance_id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, instanceID)
	if err != nil {
		r.logger.Error("Failed to delete approval tasks",
			zap.Int64("instance_id", instanceID),
			zap.Error(err))
		return fmt.Errorf("failed to delete approval tasks: %w", err)
	}

	return nil
}

const taskSelect = `
		SELECT id, instance_id, node_id, node_key, task_step,
			approver_user_id, status, auto_approved, remark, completed_by,
			created_at, updated_at
		FROM approval_tasks
`

type taskScanner interface {
	Scan(dest ...interface{}) error
}

// scanTask scans a single task row
func (r *TaskRepository) scanTask(row taskScanner) (*entity.ApprovalTask, error) {
	var task entity.ApprovalTask
	var approver, remark, completedBy sql.NullString

	err := row.Scan(
		&task.ID,
		&task.InstanceID,
		&task.NodeID,
		&task.NodeKey,
		&task.TaskStep,
		&approver,
		&task.Status,
		&task.AutoApproved,
		&remark,
		&completedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if approver.Valid {
		task.ApproverUserID = approver.String
	}
	if remark.Valid {
		task.Remark = remark.String
	}
	if completedBy.Valid {
		task.CompletedBy = completedBy.String
	}

	return &task, nil
}

// scanTasks scans multiple task rows
func (r *TaskRepository) scanTasks(rows *sql.Rows) ([]*entity.ApprovalTask, error) {
	var tasks []*entity.ApprovalTask

	for rows.Next() {
		task, err := r.scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// Verify interface compliance
var _ port.TaskRepository = (*TaskRepository)(nil)
