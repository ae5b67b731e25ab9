package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yundist/order-approval/internal/domain/entity"
	"github.com/yundist/order-approval/internal/domain/expr"
)

type approvalFixture struct {
	service      ApprovalService
	instanceRepo *mockInstanceRepo
	taskRepo     *mockTaskRepo
	orders       *mockOrderService

	createdInstances []*entity.ApprovalInstance
	createdTasks     []*entity.ApprovalTask
	deletedInstances []int64
	deletedTaskSets  []int64
	orderUpdates     []string
	auditEntries     []*entity.AuditLog
}

// newApprovalFixture builds the service over the seeded two-step offline
// order process: START, then provincial head, then regional head.
func newApprovalFixture(t *testing.T, customers *mockCustomerService) *approvalFixture {
	t.Helper()

	nodes := []*entity.ProcessNode{
		{ID: 1, NodeKey: "START", NodeType: entity.NodeTypeStart},
		{ID: 2, NodeKey: "PROVINCIAL_APPROVAL", NodeType: entity.NodeTypeApproval,
			AssigneeType: entity.AssigneeTypeCustomerResponsible, AssigneeValue: entity.AssigneeProvincialHead},
		{ID: 3, NodeKey: "REGIONAL_APPROVAL", NodeType: entity.NodeTypeApproval,
			AssigneeType: entity.AssigneeTypeCustomerResponsible, AssigneeValue: entity.AssigneeRegionalHead},
	}
	routers := []*entity.ProcessRouter{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2, Priority: 10},
		{ID: 2, SourceNodeID: 2, TargetNodeID: 3, Priority: 10},
	}

	processRepo := graph(nodes, routers)
	processRepo.GetByCodeFn = func(ctx context.Context, processCode string) (*entity.ProcessDefinition, error) {
		if processCode != "OFFLINE_ORDER" {
			return nil, nil
		}
		return &entity.ProcessDefinition{ID: 1, ProcessCode: processCode}, nil
	}

	f := &approvalFixture{}

	var nextID int64
	f.instanceRepo = &mockInstanceRepo{
		CreateFn: func(ctx context.Context, instance *entity.ApprovalInstance) error {
			nextID++
			instance.ID = nextID
			f.createdInstances = append(f.createdInstances, instance)
			return nil
		},
		GetByOrderIDFn: func(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error) {
			return nil, nil
		},
		DeleteFn: func(ctx context.Context, id int64) error {
			f.deletedInstances = append(f.deletedInstances, id)
			return nil
		},
	}
	f.taskRepo = &mockTaskRepo{
		CreateFn: func(ctx context.Context, task *entity.ApprovalTask) error {
			task.ID = int64(len(f.createdTasks) + 1)
			f.createdTasks = append(f.createdTasks, task)
			return nil
		},
		GetByInstanceIDFn: func(ctx context.Context, instanceID int64) ([]*entity.ApprovalTask, error) {
			return nil, nil
		},
		DeleteByInstanceIDFn: func(ctx context.Context, instanceID int64) error {
			f.deletedTaskSets = append(f.deletedTaskSets, instanceID)
			return nil
		},
	}
	f.orders = &mockOrderService{
		GetOrderStatusFn: func(ctx context.Context, orderID int64) (string, error) {
			return "DRAFT", nil
		},
		UpdateOrderStatusFn: func(ctx context.Context, orderID int64, status, approvalRemark string, actor entity.Actor) error {
			f.orderUpdates = append(f.orderUpdates, status)
			return nil
		},
	}
	auditRepo := &mockAuditRepo{
		WriteFn: func(ctx context.Context, log *entity.AuditLog) error {
			f.auditEntries = append(f.auditEntries, log)
			return nil
		},
	}

	evaluator := expr.NewEvaluator(zap.NewNop())
	f.service = NewApprovalService(
		processRepo, f.instanceRepo, f.taskRepo, auditRepo, f.orders,
		NewPathResolver(processRepo, evaluator, noopLogger{}),
		NewAssigneeResolver(customers, noopLogger{}),
		&mockTxManager{}, testStatusMapping(), "OFFLINE_ORDER", noopLogger{},
	)
	return f
}

func staticCustomers(regional, provincial string) *mockCustomerService {
	return &mockCustomerService{
		GetRegionalHeadFn: func(ctx context.Context, customerID int64) (string, error) {
			return regional, nil
		},
		GetProvincialHeadFn: func(ctx context.Context, customerID int64) (string, error) {
			return provincial, nil
		},
	}
}

func TestStartApprovalProcess_SkipsMissingProvincialHead(t *testing.T) {
	f := newApprovalFixture(t, staticCustomers("user-42", ""))

	instance, err := f.service.StartApprovalProcess(context.Background(), &entity.SubmissionContext{
		OrderID:     100,
		CustomerID:  5,
		CreatorID:   "sales-1",
		TotalAmount: 20000,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.InstanceStatusInProgress, instance.Status)
	assert.Equal(t, 2, instance.CurrentStep)
	assert.Equal(t, int64(3), instance.CurrentNodeID)

	require.Len(t, f.createdTasks, 2)
	first, second := f.createdTasks[0], f.createdTasks[1]
	assert.Equal(t, entity.TaskStatusSkipped, first.Status)
	assert.True(t, first.AutoApproved)
	assert.Equal(t, 1, first.TaskStep)
	assert.Equal(t, entity.TaskStatusPending, second.Status)
	assert.Equal(t, "user-42", second.ApproverUserID)
	assert.Equal(t, 2, second.TaskStep)

	require.Len(t, f.orderUpdates, 1)
	assert.Equal(t, "PENDING_REGIONAL_APPROVAL", f.orderUpdates[0])

	require.Len(t, f.auditEntries, 1)
	assert.Equal(t, entity.AuditActionSubmit, f.auditEntries[0].Action)
}

func TestStartApprovalProcess_AllStepsAutoResolved(t *testing.T) {
	// Submitter is the regional head and there is no provincial head: every
	// step resolves without human action and the instance is born approved.
	f := newApprovalFixture(t, staticCustomers("sales-1", ""))

	instance, err := f.service.StartApprovalProcess(context.Background(), &entity.SubmissionContext{
		OrderID:    101,
		CustomerID: 5,
		CreatorID:  "sales-1",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.InstanceStatusApproved, instance.Status)
	assert.Equal(t, 3, instance.CurrentStep)
	assert.Equal(t, int64(0), instance.CurrentNodeID)

	require.Len(t, f.orderUpdates, 1)
	assert.Equal(t, "APPROVED", f.orderUpdates[0])
}

func TestStartApprovalProcess_ResubmissionReplacesPriorInstance(t *testing.T) {
	f := newApprovalFixture(t, staticCustomers("user-42", "user-7"))

	prior := &entity.ApprovalInstance{ID: 55, OrderID: 100, Status: entity.InstanceStatusRejected}
	f.instanceRepo.GetByOrderIDFn = func(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error) {
		return prior, nil
	}
	f.taskRepo.GetByInstanceIDFn = func(ctx context.Context, instanceID int64) ([]*entity.ApprovalTask, error) {
		return []*entity.ApprovalTask{
			{ID: 1, InstanceID: 55, Status: entity.TaskStatusRejected, CompletedBy: "user-7"},
		}, nil
	}

	instance, err := f.service.StartApprovalProcess(context.Background(), &entity.SubmissionContext{
		OrderID:    100,
		CustomerID: 5,
		CreatorID:  "sales-1",
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{55}, f.deletedTaskSets)
	assert.Equal(t, []int64{55}, f.deletedInstances)
	assert.NotEqual(t, prior.ID, instance.ID)
	require.Len(t, f.createdInstances, 1)
}

func TestStartApprovalProcess_UnknownProcessCode(t *testing.T) {
	f := newApprovalFixture(t, staticCustomers("user-42", "user-7"))

	broken := NewApprovalService(
		&mockProcessRepo{
			GetByCodeFn: func(ctx context.Context, processCode string) (*entity.ProcessDefinition, error) {
				return nil, nil
			},
		},
		f.instanceRepo, f.taskRepo, &mockAuditRepo{}, f.orders,
		nil, nil, &mockTxManager{}, testStatusMapping(), "MISSING", noopLogger{},
	)

	_, err := broken.StartApprovalProcess(context.Background(), &entity.SubmissionContext{OrderID: 1, CustomerID: 1, CreatorID: "u"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrNotFound))
}

func TestValidateResubmission(t *testing.T) {
	tests := []struct {
		name        string
		instance    *entity.ApprovalInstance
		tasks       []*entity.ApprovalTask
		orderStatus string
		wantErr     string
		wantNil     bool
	}{
		{
			name:    "no prior instance",
			wantNil: true,
		},
		{
			name:        "unacted instance allowed",
			instance:    &entity.ApprovalInstance{ID: 9, OrderID: 100, Status: entity.InstanceStatusInProgress},
			tasks:       []*entity.ApprovalTask{{Status: entity.TaskStatusPending}},
			orderStatus: "PENDING_REGIONAL_APPROVAL",
		},
		{
			name:        "auto approvals do not block",
			instance:    &entity.ApprovalInstance{ID: 9, OrderID: 100, Status: entity.InstanceStatusApproved},
			tasks:       []*entity.ApprovalTask{{Status: entity.TaskStatusApproved, AutoApproved: true}},
			orderStatus: "APPROVED",
		},
		{
			name:        "manual approval blocks",
			instance:    &entity.ApprovalInstance{ID: 9, OrderID: 100, Status: entity.InstanceStatusInProgress},
			tasks:       []*entity.ApprovalTask{{Status: entity.TaskStatusApproved, CompletedBy: "user-7"}},
			orderStatus: "PENDING_REGIONAL_APPROVAL",
			wantErr:     "already approved by user-7",
		},
		{
			name:        "locked order status blocks",
			instance:    &entity.ApprovalInstance{ID: 9, OrderID: 100, Status: entity.InstanceStatusApproved},
			orderStatus: "PUSHED",
			wantErr:     "cannot be resubmitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newApprovalFixture(t, staticCustomers("user-42", "user-7"))
			f.instanceRepo.GetByOrderIDFn = func(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error) {
				return tt.instance, nil
			}
			f.taskRepo.GetByInstanceIDFn = func(ctx context.Context, instanceID int64) ([]*entity.ApprovalTask, error) {
				return tt.tasks, nil
			}
			f.orders.GetOrderStatusFn = func(ctx context.Context, orderID int64) (string, error) {
				return tt.orderStatus, nil
			}

			got, err := f.service.ValidateResubmission(context.Background(), 100)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, entity.IsBusinessError(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
			} else {
				assert.Equal(t, tt.instance, got)
			}
		})
	}
}

func TestValidateCancellation(t *testing.T) {
	tests := []struct {
		name     string
		instance *entity.ApprovalInstance
		tasks    []*entity.ApprovalTask
		wantErr  string
		wantNil  bool
	}{
		{
			name:    "no instance",
			wantNil: true,
		},
		{
			name:     "rejected instance always cancellable",
			instance: &entity.ApprovalInstance{ID: 9, OrderID: 100, Status: entity.InstanceStatusRejected},
			tasks:    []*entity.ApprovalTask{{Status: entity.TaskStatusApproved, CompletedBy: "user-7"}},
		},
		{
			name:     "manual approval blocks cancellation",
			instance: &entity.ApprovalInstance{ID: 9, OrderID: 100, Status: entity.InstanceStatusInProgress},
			tasks:    []*entity.ApprovalTask{{Status: entity.TaskStatusApproved, CompletedBy: "user-7"}},
			wantErr:  "cannot be cancelled",
		},
		{
			name:     "pending instance cancellable",
			instance: &entity.ApprovalInstance{ID: 9, OrderID: 100, Status: entity.InstanceStatusInProgress},
			tasks:    []*entity.ApprovalTask{{Status: entity.TaskStatusPending}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newApprovalFixture(t, staticCustomers("user-42", "user-7"))
			f.instanceRepo.GetByOrderIDFn = func(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error) {
				return tt.instance, nil
			}
			f.taskRepo.GetByInstanceIDFn = func(ctx context.Context, instanceID int64) ([]*entity.ApprovalTask, error) {
				return tt.tasks, nil
			}

			got, err := f.service.ValidateCancellation(context.Background(), 100)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
			} else {
				assert.Equal(t, tt.instance, got)
			}
		})
	}
}

func TestGetTaskHistory_UnknownInstance(t *testing.T) {
	f := newApprovalFixture(t, staticCustomers("user-42", "user-7"))
	f.instanceRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.ApprovalInstance, error) {
		return nil, nil
	}

	_, err := f.service.GetTaskHistory(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrNotFound))
}
