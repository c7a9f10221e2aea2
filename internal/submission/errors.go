package submission

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInProgress is returned by Submit while another submission is running.
var ErrInProgress = errors.New("submission already in progress")

// ValidationError reports draft fields that failed client side validation.
// No request was sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid chapter: " + strings.Join(parts, "; ")
}

// SubmissionError reports a rejected or failed chapter request. StatusCode
// is 0 when no response was received.
type SubmissionError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("chapter submission failed: %v", e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("chapter submission failed: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("chapter submission failed: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// UserMessage is the text shown to the author.
func (e *SubmissionError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode == 0 {
		return "Could not reach the server. Please try again."
	}
	return "Failed to save chapter. Please try again."
}
