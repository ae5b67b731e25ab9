// Package export renders approval data into downloadable spreadsheets for
// back-office staff.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yundist/order-approval/internal/domain/entity"
)

const historySheet = "Approval History"

var historyHeaders = []string{"Step", "Node", "Approver", "Status", "Auto Approved", "Remark", "Completed By", "Updated At"}

// TaskHistoryExporter renders the task history of an approval instance as an
// xlsx workbook.
type TaskHistoryExporter struct {
	logger *zap.Logger
}

// NewTaskHistoryExporter creates a new exporter
func NewTaskHistoryExporter(logger *zap.Logger) *TaskHistoryExporter {
	return &TaskHistoryExporter{logger: logger}
}

// Export writes one row per task, in step order, and returns the workbook
// bytes ready to be served as an attachment.
func (e *TaskHistoryExporter) Export(instance *entity.ApprovalInstance, tasks []*entity.ApprovalTask) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Error("Failed to close workbook", zap.Error(err))
		}
	}()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	title := fmt.Sprintf("Order %d, approval instance %d (%s)", instance.OrderID, instance.ID, instance.Status)
	if err := f.SetCellValue(historySheet, "A1", title); err != nil {
		return nil, fmt.Errorf("failed to write title: %w", err)
	}

	for col, header := range historyHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(historySheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, task := range tasks {
		autoApproved := "NO"
		if task.AutoApproved {
			autoApproved = "YES"
		}
		values := []interface{}{
			task.TaskStep,
			task.NodeKey,
			task.ApproverUserID,
			task.Status,
			autoApproved,
			task.Remark,
			task.CompletedBy,
			task.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+3)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(historySheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write task row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	e.logger.Info("Exported task history",
		zap.Int64("instance_id", instance.ID),
		zap.Int("tasks", len(tasks)))
	return buf, nil
}
