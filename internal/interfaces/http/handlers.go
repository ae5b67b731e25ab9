package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yundist/order-approval/internal/application/service"
	"github.com/yundist/order-approval/internal/domain/entity"
	"github.com/yundist/order-approval/internal/infrastructure/export"
)

// Handlers contains the HTTP request handlers
type Handlers struct {
	approvalService service.ApprovalService
	actionService   service.ActionService
	exporter        *export.TaskHistoryExporter
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	approvalService service.ApprovalService,
	actionService service.ActionService,
	exporter *export.TaskHistoryExporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		approvalService: approvalService,
		actionService:   actionService,
		exporter:        exporter,
		logger:          logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StartApproval handles POST /api/approvals
func (h *Handlers) StartApproval(c *gin.Context) {
	var sub entity.SubmissionContext
	if err := c.ShouldBindJSON(&sub); err != nil {
		h.respondError(c, entity.NewBusinessError("invalid request body: %v", err))
		return
	}
	if sub.OrderID == 0 || sub.CustomerID == 0 || sub.CreatorID == "" {
		h.respondError(c, entity.NewBusinessError("order_id, customer_id and creator_id are required"))
		return
	}

	instance, err := h.approvalService.StartApprovalProcess(c.Request.Context(), &sub)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, instance)
}

// ProcessTaskAction handles POST /api/tasks/:id/action
func (h *Handlers) ProcessTaskAction(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, entity.NewBusinessError("invalid task id"))
		return
	}

	actor, err := actorFromHeaders(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body struct {
		Action string `json:"action"`
		Remark string `json:"remark"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, entity.NewBusinessError("invalid request body: %v", err))
		return
	}

	result, err := h.actionService.ProcessTaskApproval(c.Request.Context(), &service.TaskActionRequest{
		TaskID: taskID,
		Action: body.Action,
		Remark: body.Remark,
	}, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, result)
}

// ValidateResubmission handles GET /api/orders/:orderId/resubmission
func (h *Handlers) ValidateResubmission(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		h.respondError(c, entity.NewBusinessError("invalid order id"))
		return
	}

	instance, err := h.approvalService.ValidateResubmission(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, instance)
}

// ValidateCancellation handles GET /api/orders/:orderId/cancellation
func (h *Handlers) ValidateCancellation(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		h.respondError(c, entity.NewBusinessError("invalid order id"))
		return
	}

	instance, err := h.approvalService.ValidateCancellation(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, instance)
}

// ListPendingTasks handles GET /api/tasks/pending?user_id=
func (h *Handlers) ListPendingTasks(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		h.respondError(c, entity.NewBusinessError("user_id query parameter is required"))
		return
	}

	tasks, err := h.approvalService.GetPendingTasks(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, tasks)
}

// GetTaskHistory handles GET /api/instances/:id/tasks
func (h *Handlers) GetTaskHistory(c *gin.Context) {
	instanceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, entity.NewBusinessError("invalid instance id"))
		return
	}

	tasks, err := h.approvalService.GetTaskHistory(c.Request.Context(), instanceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, tasks)
}

// ExportTaskHistory handles GET /api/instances/:id/tasks/export
func (h *Handlers) ExportTaskHistory(c *gin.Context) {
	instanceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, entity.NewBusinessError("invalid instance id"))
		return
	}

	instance, err := h.approvalService.GetInstance(c.Request.Context(), instanceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	tasks, err := h.approvalService.GetTaskHistory(c.Request.Context(), instanceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	buf, err := h.exporter.Export(instance, tasks)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("approval-history-%d.xlsx", instanceID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// actorFromHeaders reads the authenticated actor identity set by the gateway.
func actorFromHeaders(c *gin.Context) (entity.Actor, error) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		return entity.Actor{}, entity.NewBusinessError("X-User-ID header is required")
	}
	return entity.Actor{
		UserID:      userID,
		DisplayName: c.GetHeader("X-User-Name"),
	}, nil
}

// respondOK writes the uniform success envelope
func (h *Handlers) respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "ok",
		"data":    data,
	})
}

// respondError maps domain errors to the uniform error envelope
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrConflict):
		status = http.StatusConflict
	case entity.IsBusinessError(err):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
	}

	c.JSON(status, gin.H{
		"code":    status,
		"message": err.Error(),
	})
}
