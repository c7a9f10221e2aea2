package tasks

import (
	"time"

	"github.com/mikestefanello/backlite"
)

// Config tunes the task queue and the queues registered on it. Zero or
// negative fields fall back to DefaultConfig.
type Config struct {
	// Workers is the number of concurrent task workers.
	Workers int

	// MaxRetries is how often a failed task is tried again. Zero means a
	// single attempt.
	MaxRetries int

	// RetryDelay is how long a failed task waits before the next attempt.
	RetryDelay time.Duration

	// TaskTimeout bounds a single attempt.
	TaskTimeout time.Duration

	// ReleaseAfter returns tasks stuck in a worker to the queue.
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks are purged.
	CleanupInterval time.Duration

	// RetentionDuration is how long finished tasks are kept.
	RetentionDuration time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// WithDefaults fills unset fields from DefaultConfig. MaxRetries is only
// replaced when negative, zero retries is a valid setting.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = d.TaskTimeout
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = d.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.RetentionDuration <= 0 {
		c.RetentionDuration = d.RetentionDuration
	}
	return c
}

// Apply overrides the attempts, backoff, timeout and retention window of q
// with the configured values. The queue name and retention data policy are
// kept.
func (c Config) Apply(q backlite.Queue) backlite.Queue {
	c = c.WithDefaults()
	qc := q.Config()
	qc.MaxAttempts = c.MaxRetries + 1
	qc.Backoff = c.RetryDelay
	qc.Timeout = c.TaskTimeout
	if qc.Retention == nil {
		qc.Retention = &backlite.Retention{}
	}
	qc.Retention.Duration = c.RetentionDuration
	return q
}
