package service

import (
	"context"

	"github.com/yundist/order-approval/internal/domain/entity"
)

// Func-field mocks for the port interfaces. Unset fields make the call fail
// loudly via nil dereference, which is what a test misconfiguration deserves.

type mockProcessRepo struct {
	GetByCodeFn          func(ctx context.Context, processCode string) (*entity.ProcessDefinition, error)
	GetStartNodeFn       func(ctx context.Context, processID int64) (*entity.ProcessNode, error)
	GetNodeByIDFn        func(ctx context.Context, id int64) (*entity.ProcessNode, error)
	GetOutgoingRoutersFn func(ctx context.Context, sourceNodeID int64) ([]*entity.ProcessRouter, error)
}

func (m *mockProcessRepo) GetByCode(ctx context.Context, processCode string) (*entity.ProcessDefinition, error) {
	return m.GetByCodeFn(ctx, processCode)
}

func (m *mockProcessRepo) GetStartNode(ctx context.Context, processID int64) (*entity.ProcessNode, error) {
	return m.GetStartNodeFn(ctx, processID)
}

func (m *mockProcessRepo) GetNodeByID(ctx context.Context, id int64) (*entity.ProcessNode, error) {
	return m.GetNodeByIDFn(ctx, id)
}

func (m *mockProcessRepo) GetOutgoingRouters(ctx context.Context, sourceNodeID int64) ([]*entity.ProcessRouter, error) {
	return m.GetOutgoingRoutersFn(ctx, sourceNodeID)
}

type mockInstanceRepo struct {
	CreateFn         func(ctx context.Context, instance *entity.ApprovalInstance) error
	GetByIDFn        func(ctx context.Context, id int64) (*entity.ApprovalInstance, error)
	GetByOrderIDFn   func(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error)
	UpdateStatusIfFn func(ctx context.Context, id int64, fromStatus, toStatus, updatedBy string) error
	UpdateCurrentFn  func(ctx context.Context, id int64, nodeID int64, step int, updatedBy string) error
	DeleteFn         func(ctx context.Context, id int64) error
}

func (m *mockInstanceRepo) Create(ctx context.Context, instance *entity.ApprovalInstance) error {
	return m.CreateFn(ctx, instance)
}

func (m *mockInstanceRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalInstance, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockInstanceRepo) GetByOrderID(ctx context.Context, orderID int64) (*entity.ApprovalInstance, error) {
	return m.GetByOrderIDFn(ctx, orderID)
}

func (m *mockInstanceRepo) UpdateStatusIf(ctx context.Context, id int64, fromStatus, toStatus, updatedBy string) error {
	return m.UpdateStatusIfFn(ctx, id, fromStatus, toStatus, updatedBy)
}

func (m *mockInstanceRepo) UpdateCurrent(ctx context.Context, id int64, nodeID int64, step int, updatedBy string) error {
	return m.UpdateCurrentFn(ctx, id, nodeID, step, updatedBy)
}

func (m *mockInstanceRepo) Delete(ctx context.Context, id int64) error {
	return m.DeleteFn(ctx, id)
}

type mockTaskRepo struct {
	CreateFn               func(ctx context.Context, task *entity.ApprovalTask) error
	GetByIDFn              func(ctx context.Context, id int64) (*entity.ApprovalTask, error)
	GetByInstanceIDFn      func(ctx context.Context, instanceID int64) ([]*entity.ApprovalTask, error)
	GetByStepFn            func(ctx context.Context, instanceID int64, taskStep int) ([]*entity.ApprovalTask, error)
	GetNextPendingFn       func(ctx context.Context, instanceID int64, afterStep int) (*entity.ApprovalTask, error)
	CompleteIfFn           func(ctx context.Context, id int64, fromStatus, toStatus, remark, completedBy string) error
	GetPendingByApproverFn func(ctx context.Context, approverUserID string) ([]*entity.ApprovalTask, error)
	DeleteByInstanceIDFn   func(ctx context.Context, instanceID int64) error
}

func (m *mockTaskRepo) Create(ctx context.Context, task *entity.ApprovalTask) error {
	return m.CreateFn(ctx, task)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalTask, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockTaskRepo) GetByInstanceID(ctx context.Context, instanceID int64) ([]*entity.ApprovalTask, error) {
	return m.GetByInstanceIDFn(ctx, instanceID)
}

func (m *mockTaskRepo) GetByStep(ctx context.Context, instanceID int64, taskStep int) ([]*entity.ApprovalTask, error) {
	return m.GetByStepFn(ctx, instanceID, taskStep)
}

func (m *mockTaskRepo) GetNextPending(ctx context.Context, instanceID int64, afterStep int) (*entity.ApprovalTask, error) {
	return m.GetNextPendingFn(ctx, instanceID, afterStep)
}

func (m *mockTaskRepo) CompleteIf(ctx context.Context, id int64, fromStatus, toStatus, remark, completedBy string) error {
	return m.CompleteIfFn(ctx, id, fromStatus, toStatus, remark, completedBy)
}

func (m *mockTaskRepo) GetPendingByApprover(ctx context.Context, approverUserID string) ([]*entity.ApprovalTask, error) {
	return m.GetPendingByApproverFn(ctx, approverUserID)
}

func (m *mockTaskRepo) DeleteByInstanceID(ctx context.Context, instanceID int64) error {
	return m.DeleteByInstanceIDFn(ctx, instanceID)
}

type mockAuditRepo struct {
	WriteFn func(ctx context.Context, log *entity.AuditLog) error
}

func (m *mockAuditRepo) Write(ctx context.Context, log *entity.AuditLog) error {
	if m.WriteFn == nil {
		return nil
	}
	return m.WriteFn(ctx, log)
}

type mockOrderService struct {
	GetOrderStatusFn    func(ctx context.Context, orderID int64) (string, error)
	UpdateOrderStatusFn func(ctx context.Context, orderID int64, status, approvalRemark string, actor entity.Actor) error
}

func (m *mockOrderService) GetOrderStatus(ctx context.Context, orderID int64) (string, error) {
	return m.GetOrderStatusFn(ctx, orderID)
}

func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status, approvalRemark string, actor entity.Actor) error {
	if m.UpdateOrderStatusFn == nil {
		return nil
	}
	return m.UpdateOrderStatusFn(ctx, orderID, status, approvalRemark, actor)
}

type mockCustomerService struct {
	GetRegionalHeadFn   func(ctx context.Context, customerID int64) (string, error)
	GetProvincialHeadFn func(ctx context.Context, customerID int64) (string, error)
}

func (m *mockCustomerService) GetRegionalHead(ctx context.Context, customerID int64) (string, error) {
	return m.GetRegionalHeadFn(ctx, customerID)
}

func (m *mockCustomerService) GetProvincialHead(ctx context.Context, customerID int64) (string, error) {
	return m.GetProvincialHeadFn(ctx, customerID)
}

// mockTxManager runs the function inline; tests assert on the calls made
// inside the transaction, not on transaction mechanics.
type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

func testStatusMapping() StatusMapping {
	return StatusMapping{
		ByNodeKey: map[string]string{
			"PROVINCIAL_APPROVAL": "PENDING_PROVINCIAL_APPROVAL",
			"REGIONAL_APPROVAL":   "PENDING_REGIONAL_APPROVAL",
		},
		Approved: "APPROVED",
		Rejected: "REJECTED",
		Locked:   []string{"PUSHING", "PUSHED", "DELIVERED", "CLOSED"},
	}
}
