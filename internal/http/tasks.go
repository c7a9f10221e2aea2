package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"
)

// TaskStatusReader is implemented by tasks.Client.
type TaskStatusReader interface {
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// CleanupTrigger is implemented by scheduler.ImageCleanupScheduler.
type CleanupTrigger interface {
	RunNow() (string, error)
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	status  TaskStatusReader
	cleanup CleanupTrigger
	log     *zap.Logger
}

// NewTasksController creates a new TasksController.
func NewTasksController(status TaskStatusReader, cleanup CleanupTrigger, log *zap.Logger) *TasksController {
	return &TasksController{status: status, cleanup: cleanup, log: log}
}

// RunImageCleanup handles POST /api/tasks/cleanup-images/run
func (tc *TasksController) RunImageCleanup(c *gin.Context) {
	id, err := tc.cleanup.RunNow()
	if err != nil {
		respondInternalError(c, tc.log, err, "enqueue image cleanup")
		return
	}
	respondAccepted(c, "task enqueued", gin.H{
		"task_id": id,
		"type":    "cleanup_orphan_images",
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.status.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, tc.log, err, "task status")
		return
	}

	statusStr := taskStatusToString(status)
	if status == backlite.TaskStatusNotFound {
		c.JSON(http.StatusNotFound, gin.H{"id": taskID, "status": statusStr})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": statusStr,
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
