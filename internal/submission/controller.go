// Package submission validates a chapter draft and sends it to the admin
// API, tracking the Idle → Validating → Submitting → Idle lifecycle.
package submission

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/backend"
	"github.com/mrlokans/chapterdesk/internal/draft"
)

// State is the submission lifecycle state.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Outcome is the result of the last finished submission.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
	OutcomeInvalid
)

// Navigator is told where to go after a chapter was saved.
type Navigator interface {
	ChapterSaved(bookID uint, chapter backend.Chapter)
}

// Notifier shows transient messages to the author.
type Notifier interface {
	Success(message string)
	Error(message string)
}

const savedMessage = "Chapter saved"

// Config configures a Controller.
type Config struct {
	BookID    uint
	Transport Transport
	Navigator Navigator
	Notifier  Notifier
	Logger    *zap.Logger

	// OnStateChange, if set, is called after every transition.
	OnStateChange func(State)
}

// Controller drives one chapter form. Submit may be called from any
// goroutine; only one submission runs at a time.
type Controller struct {
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	state   State
	outcome Outcome
}

// NewController creates a Controller in the Idle state.
func NewController(cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{cfg: cfg, log: log}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outcome returns the outcome of the last finished submission.
func (c *Controller) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Submit validates d and, if valid, sends it. On success the draft is reset
// and the navigator informed. On failure the draft is left as it was apart
// from field errors reported by the server. A failed submission is not
// retried.
func (c *Controller) Submit(ctx context.Context, d *draft.Draft) error {
	if !c.begin() {
		return ErrInProgress
	}

	if fields := d.Validate(); len(fields) > 0 {
		c.finish(OutcomeInvalid)
		c.log.Debug("Chapter draft invalid", zap.Int("fields", len(fields)))
		return &ValidationError{Fields: fields}
	}

	req := NewRequest(c.cfg.BookID, d)
	c.transition(StateSubmitting)
	c.log.Info("Submitting chapter",
		zap.Uint("book_id", req.BookID),
		zap.String("mode", string(req.Mode)),
		zap.String("title", req.ChapterTitle))

	result, err := c.cfg.Transport.Send(ctx, req)
	if err != nil {
		var subErr *SubmissionError
		if !errors.As(err, &subErr) {
			subErr = &SubmissionError{Err: err}
		}
		for field, msg := range subErr.Fields {
			if d.Errors == nil {
				d.Errors = make(map[string]string)
			}
			d.Errors[field] = msg
		}
		c.finish(OutcomeFailure)
		c.log.Warn("Chapter submission failed", zap.Error(subErr))
		if c.cfg.Notifier != nil {
			c.cfg.Notifier.Error(subErr.UserMessage())
		}
		return subErr
	}

	d.Reset()
	c.finish(OutcomeSuccess)
	c.log.Info("Chapter saved",
		zap.Uint("chapter_id", result.Chapter.ID),
		zap.Uint("book_id", req.BookID))

	if c.cfg.Notifier != nil {
		msg := result.Message
		if msg == "" {
			msg = savedMessage
		}
		c.cfg.Notifier.Success(msg)
	}
	if c.cfg.Navigator != nil {
		c.cfg.Navigator.ChapterSaved(req.BookID, result.Chapter)
	}
	return nil
}

func (c *Controller) begin() bool {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return false
	}
	c.state = StateValidating
	c.mu.Unlock()
	c.notify(StateValidating)
	return true
}

func (c *Controller) transition(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.notify(s)
}

func (c *Controller) finish(o Outcome) {
	c.mu.Lock()
	c.state = StateIdle
	c.outcome = o
	c.mu.Unlock()
	c.notify(StateIdle)
}

func (c *Controller) notify(s State) {
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(s)
	}
}
