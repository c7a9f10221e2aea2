package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStatus struct {
	statuses map[string]backlite.TaskStatus
}

func (s *stubStatus) Status(_ context.Context, id string) (backlite.TaskStatus, error) {
	if st, ok := s.statuses[id]; ok {
		return st, nil
	}
	return backlite.TaskStatusNotFound, nil
}

type stubCleanup struct {
	id  string
	err error
}

func (s *stubCleanup) RunNow() (string, error) { return s.id, s.err }

func setupTasksRouter(status TaskStatusReader, cleanup CleanupTrigger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{TaskStatus: status, ImageCleanup: cleanup})
}

func TestTasks_RunImageCleanup(t *testing.T) {
	router := setupTasksRouter(&stubStatus{}, &stubCleanup{id: "task-1"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/tasks/cleanup-images/run", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, w.Body.String(), "task-1")
	assert.Contains(t, w.Body.String(), "cleanup_orphan_images")
}

func TestTasks_RunImageCleanupFails(t *testing.T) {
	router := setupTasksRouter(&stubStatus{}, &stubCleanup{err: errors.New("queue closed")})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/tasks/cleanup-images/run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTasks_GetTaskStatus(t *testing.T) {
	router := setupTasksRouter(&stubStatus{statuses: map[string]backlite.TaskStatus{
		"done": backlite.TaskStatusSuccess,
	}}, &stubCleanup{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/tasks/done", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success"`)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/tasks/missing", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestTasks_RoutesAbsentWithoutQueue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterConfig{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/tasks/cleanup-images/run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskStatusToString(t *testing.T) {
	assert.Equal(t, "pending", taskStatusToString(backlite.TaskStatusPending))
	assert.Equal(t, "running", taskStatusToString(backlite.TaskStatusRunning))
	assert.Equal(t, "failure", taskStatusToString(backlite.TaskStatusFailure))
	assert.Equal(t, "unknown", taskStatusToString(backlite.TaskStatus(99)))
}
