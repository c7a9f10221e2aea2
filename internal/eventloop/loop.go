// Package eventloop provides the single cooperative loop the authoring
// session runs on. Draft mutations, editor synchronisation and submission
// state transitions all execute on it; background work such as image uploads
// hands its results back through Post.
package eventloop

import (
	"context"
	"sync"
)

// Dispatcher schedules a function to run on the loop. Post reports false if
// the loop no longer accepts work, in which case fn will never run.
type Dispatcher interface {
	Post(fn func()) bool
}

// Loop executes posted functions one at a time, in posting order.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	done   chan struct{}
}

// New creates a loop. Call Run to start processing.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post enqueues fn. It never blocks.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run processes posted work until ctx is cancelled or Close is called.
// Work still queued at that point is dropped.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-l.wake:
		}

		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
		}

		if l.isClosed() {
			return
		}
	}
}

// Drain runs queued work on the calling goroutine until the queue is empty.
// It is meant for callers that drive the loop themselves, such as the CLI
// and tests, and must not be mixed with a concurrent Run.
func (l *Loop) Drain() int {
	n := 0
	for {
		fn, ok := l.next()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Do posts fn and waits until it has run. It returns false if the loop was
// closed before fn could run.
func (l *Loop) Do(ctx context.Context, fn func()) bool {
	ran := make(chan struct{})
	if !l.Post(func() {
		fn()
		close(ran)
	}) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-ctx.Done():
		return false
	case <-l.done:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Close stops accepting work and discards what is still queued.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.queue = nil
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
