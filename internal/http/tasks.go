package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/tasks"
)

// TaskQueue enqueues background tasks and reports on them. tasks.Client
// satisfies it.
type TaskQueue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TaskDefaults fills in task parameters the request leaves out.
type TaskDefaults struct {
	ExportDir          string
	AuditRetentionDays int
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue    TaskQueue
	defaults TaskDefaults
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue, defaults TaskDefaults) *TasksController {
	return &TasksController{queue: queue, defaults: defaults}
}

func (tc *TasksController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/tasks/types", tc.ListTaskTypes)
	group.GET("/tasks/:id", tc.GetTaskStatus)
	group.POST("/tasks/:type/run", tc.RunTask)
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "export_workbook",
			Description: "Write an xlsx workbook of every apiary, hive, inspection and harvest",
			Queue:       tasks.ExportWorkbookTask{}.Config().Name,
		},
		{
			Type:        "cleanup_audit_events",
			Description: "Delete audit events older than the retention period",
			Queue:       tasks.CleanupAuditEventsTask{}.Config().Name,
		},
		{
			Type:        "cleanup_orphan_photos",
			Description: "Delete stored photos no apiary or hive refers to",
			Queue:       tasks.CleanupOrphanPhotosTask{}.Config().Name,
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task. Every field is
// optional.
type RunTaskRequest struct {
	Dir           string `json:"dir,omitempty"`
	RetentionDays int    `json:"retention_days,omitempty"`
	MinAgeMinutes int    `json:"min_age_minutes,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	var task backlite.Task
	switch taskType {
	case "export_workbook":
		dir := req.Dir
		if dir == "" {
			dir = tc.defaults.ExportDir
		}
		if dir == "" {
			respondBadRequest(c, "dir is required for export_workbook task")
			return
		}
		task = tasks.ExportWorkbookTask{Dir: dir, UserID: auth.GetUserID(c)}

	case "cleanup_audit_events":
		days := req.RetentionDays
		if days <= 0 {
			days = tc.defaults.AuditRetentionDays
		}
		task = tasks.CleanupAuditEventsTask{RetentionDays: days}

	case "cleanup_orphan_photos":
		task = tasks.CleanupOrphanPhotosTask{MinAgeMinutes: req.MinAgeMinutes}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	ids, err := tc.queue.Add(task).Save()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": ids[0],
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
