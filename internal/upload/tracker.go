package upload

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/eventloop"
)

// State is the lifecycle state of an upload task.
type State int

const (
	StatePending State = iota
	StateSucceeded
	StateFailed
	StateAborted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Task is one in-flight or just finished upload.
type Task struct {
	ID     string
	State  State
	Source File
	Result string
	Err    error

	cancel context.CancelFunc
}

// Tracker runs uploads concurrently and reports each outcome on the loop.
// A task is forgotten once its outcome has been delivered.
type Tracker struct {
	adapter  Adapter
	dispatch eventloop.Dispatcher
	log      *zap.Logger

	mu    sync.Mutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}

// NewTracker creates a tracker uploading through adapter.
func NewTracker(adapter Adapter, dispatch eventloop.Dispatcher, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		adapter:  adapter,
		dispatch: dispatch,
		log:      log,
		tasks:    make(map[string]*Task),
	}
}

// Start begins uploading f and returns the task ID. done runs on the loop
// with the terminal task, unless the task was aborted first.
func (t *Tracker) Start(ctx context.Context, f File, done func(Task)) string {
	ctx, cancel := context.WithCancel(ctx)
	task := &Task{
		ID:     uuid.NewString(),
		State:  StatePending,
		Source: f,
		cancel: cancel,
	}

	t.mu.Lock()
	t.tasks[task.ID] = task
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()

		ref, err := t.adapter.Upload(ctx, f)
		t.finish(task, ref, err, done)
	}()

	return task.ID
}

func (t *Tracker) finish(task *Task, ref string, err error, done func(Task)) {
	t.mu.Lock()
	if task.State == StateAborted {
		delete(t.tasks, task.ID)
		t.mu.Unlock()
		t.log.Debug("Discarding aborted upload", zap.String("task", task.ID))
		return
	}
	if err != nil {
		task.State = StateFailed
		task.Err = err
	} else {
		task.State = StateSucceeded
		task.Result = ref
	}
	snapshot := *task
	t.mu.Unlock()

	posted := t.dispatch.Post(func() {
		t.mu.Lock()
		current, ok := t.tasks[task.ID]
		aborted := ok && current.State == StateAborted
		delete(t.tasks, task.ID)
		t.mu.Unlock()

		if !ok || aborted || done == nil {
			return
		}
		done(snapshot)
	})
	if !posted {
		t.mu.Lock()
		delete(t.tasks, task.ID)
		t.mu.Unlock()
		t.log.Debug("Event loop closed, upload result dropped", zap.String("task", task.ID))
	}
}

// Abort cancels one upload. Other uploads are unaffected. It reports whether
// a pending task with that ID existed.
func (t *Tracker) Abort(id string) bool {
	t.mu.Lock()
	task, ok := t.tasks[id]
	if !ok || task.State == StateAborted {
		t.mu.Unlock()
		return false
	}
	task.State = StateAborted
	cancel := task.cancel
	t.mu.Unlock()

	cancel()
	return true
}

// AbortAll cancels every task that has not delivered its outcome yet.
func (t *Tracker) AbortAll() int {
	t.mu.Lock()
	var cancels []context.CancelFunc
	for _, task := range t.tasks {
		if task.State == StateAborted {
			continue
		}
		task.State = StateAborted
		cancels = append(cancels, task.cancel)
	}
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return len(cancels)
}

// Get returns a copy of a tracked task.
func (t *Tracker) Get(id string) (Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Pending returns how many tasks have not delivered their outcome.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, task := range t.tasks {
		if task.State != StateAborted {
			n++
		}
	}
	return n
}

// Wait blocks until every upload goroutine has returned.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
