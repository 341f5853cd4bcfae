package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/exporters"
)

// WorkbookExporter saves a workbook into a directory.
type WorkbookExporter interface {
	ExportToDir(ctx context.Context, dir string, now time.Time) (string, exporters.ExportResult, error)
}

// ExportAuditor records finished exports.
type ExportAuditor interface {
	LogExport(userID uint, filename string, err error)
}

// ExportWorkbookTask writes a timestamped xlsx workbook of the whole store.
type ExportWorkbookTask struct {
	Dir    string `json:"dir"`
	UserID uint   `json:"user_id"`
}

// Config returns the queue configuration for workbook exports.
func (t ExportWorkbookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "export_workbook",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExportWorkbookProcessor creates a processor function for ExportWorkbookTask.
// auditor may be nil.
func ExportWorkbookProcessor(exporter WorkbookExporter, auditor ExportAuditor, log logrus.FieldLogger) backlite.QueueProcessor[ExportWorkbookTask] {
	return func(ctx context.Context, task ExportWorkbookTask) error {
		if exporter == nil {
			return fmt.Errorf("workbook exporter not configured")
		}
		if task.Dir == "" {
			return fmt.Errorf("export directory is required")
		}

		path, result, err := exporter.ExportToDir(ctx, task.Dir, time.Now())
		if auditor != nil {
			auditor.LogExport(task.UserID, filepath.Base(path), err)
		}
		if err != nil {
			return fmt.Errorf("export workbook: %w", err)
		}

		log.WithFields(logrus.Fields{
			"path": path,
			"rows": result.Rows(),
		}).Info("Scheduled workbook export finished")
		return nil
	}
}

// NewExportWorkbookQueue creates a backlite queue for workbook exports.
func NewExportWorkbookQueue(exporter WorkbookExporter, auditor ExportAuditor, log logrus.FieldLogger) backlite.Queue {
	return backlite.NewQueue(ExportWorkbookProcessor(exporter, auditor, log))
}
