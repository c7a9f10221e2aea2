package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/tasks"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a standard five field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// Enqueuer adds tasks to the task queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// ImageCleanupScheduler periodically enqueues the orphan image cleanup
// task. The work itself runs on the task queue.
type ImageCleanupScheduler struct {
	queue       Enqueuer
	schedule    string
	gracePeriod time.Duration
	log         *zap.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewImageCleanupScheduler creates a new scheduler instance
func NewImageCleanupScheduler(queue Enqueuer, schedule string, gracePeriod time.Duration, log *zap.Logger) *ImageCleanupScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImageCleanupScheduler{
		queue:       queue,
		schedule:    schedule,
		gracePeriod: gracePeriod,
		log:         log.Named("scheduler"),
		cron:        cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the job and starts the cron runner. It stops when ctx is
// cancelled.
func (s *ImageCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunNow(); err != nil {
			s.log.Error("Failed to enqueue image cleanup", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule image cleanup job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.log.Info("Image cleanup scheduler started",
		zap.String("schedule", s.schedule),
		zap.Duration("grace_period", s.gracePeriod),
		zap.Time("next_run", s.nextRunLocked()))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron runner and waits for a running job to finish.
func (s *ImageCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	s.log.Info("Image cleanup scheduler stopped")
}

// RunNow enqueues a cleanup immediately and returns the task ID.
func (s *ImageCleanupScheduler) RunNow() (string, error) {
	id, err := s.queue.Enqueue(tasks.CleanupOrphanImagesTask{GracePeriod: s.gracePeriod})
	if err != nil {
		return "", err
	}
	s.log.Info("Image cleanup enqueued", zap.String("task_id", id))
	return id, nil
}

// IsRunning returns whether the scheduler is active
func (s *ImageCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next cleanup will be enqueued, or nil when
// the scheduler is not running.
func (s *ImageCleanupScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	t := s.nextRunLocked()
	return &t
}

func (s *ImageCleanupScheduler) nextRunLocked() time.Time {
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			if entry.Next.IsZero() {
				sched, err := cronParser.Parse(s.schedule)
				if err == nil {
					return sched.Next(time.Now())
				}
			}
			return entry.Next
		}
	}
	return time.Time{}
}
