package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/chapterdesk/internal/tasks"
)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (q *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, task)
	return "task-1", nil
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("30 3 * * *"))
	assert.NoError(t, ValidateCronSchedule("*/15 * * * *"))
	assert.Error(t, ValidateCronSchedule("every day"))
	assert.Error(t, ValidateCronSchedule("0 0 3 * * *"))
}

func TestImageCleanupScheduler_RunNow(t *testing.T) {
	q := &fakeQueue{}
	s := NewImageCleanupScheduler(q, "30 3 * * *", 6*time.Hour, nil)

	id, err := s.RunNow()
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
	require.Len(t, q.tasks, 1)
	assert.Equal(t, tasks.CleanupOrphanImagesTask{GracePeriod: 6 * time.Hour}, q.tasks[0])

	q.err = errors.New("queue closed")
	_, err = s.RunNow()
	assert.Error(t, err)
}

func TestImageCleanupScheduler_StartStop(t *testing.T) {
	s := NewImageCleanupScheduler(&fakeQueue{}, "30 3 * * *", time.Hour, nil)
	assert.Nil(t, s.NextRunTime())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())

	next := s.NextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 30, next.Minute())

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestImageCleanupScheduler_StopsWithContext(t *testing.T) {
	s := NewImageCleanupScheduler(&fakeQueue{}, "0 * * * *", time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestImageCleanupScheduler_InvalidSchedule(t *testing.T) {
	s := NewImageCleanupScheduler(&fakeQueue{}, "nope", time.Hour, nil)
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}
