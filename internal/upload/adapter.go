// Package upload turns an image dropped into the editor into a durable
// reference. The remote adapter stores the image on the backend; when it
// fails or takes too long the fallback adapter embeds the image inline.
package upload

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// File is one binary resource to upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Adapter sends one file and returns a reference to it, usually a URL.
type Adapter interface {
	Upload(ctx context.Context, f File) (string, error)
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc func(ctx context.Context, f File) (string, error)

func (fn AdapterFunc) Upload(ctx context.Context, f File) (string, error) {
	return fn(ctx, f)
}

var (
	// ErrTimeout is returned when the remote upload exceeds its ceiling.
	ErrTimeout = errors.New("upload timed out")

	// ErrAborted is returned when the caller cancelled the upload.
	ErrAborted = errors.New("upload aborted")

	// ErrEmptyFile is returned for a file without data.
	ErrEmptyFile = errors.New("file is empty")
)

// StatusError is a non-2xx response from the upload endpoint.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upload rejected: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("upload rejected: HTTP %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429 || e.StatusCode == 408
}

// Failure is returned when both the remote and the fallback adapter failed.
// It is the only upload error shown to the user.
type Failure struct {
	Remote   error
	Fallback error
}

func (e *Failure) Error() string {
	return fmt.Sprintf("image upload failed: %v", multierr.Combine(e.Remote, e.Fallback))
}

func (e *Failure) Unwrap() []error {
	return multierr.Errors(multierr.Combine(e.Remote, e.Fallback))
}

// Route tells the chain what to do after the remote adapter returned.
type Route int

const (
	RouteDone Route = iota
	RouteFallback
	RouteAbort
)

// Decide picks the route for a remote outcome. A cancelled parent context
// means the user (or unmount) aborted the upload and nothing may be inserted.
func Decide(ctx context.Context, err error) Route {
	switch {
	case err == nil:
		return RouteDone
	case ctx.Err() != nil, errors.Is(err, ErrAborted):
		return RouteAbort
	default:
		return RouteFallback
	}
}

// Chain tries the primary adapter first and degrades to the fallback.
type Chain struct {
	Primary  Adapter
	Fallback Adapter
	Logger   *zap.Logger
}

// NewChain composes remote and fallback adapters.
func NewChain(primary, fallback Adapter, log *zap.Logger) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{Primary: primary, Fallback: fallback, Logger: log}
}

func (c *Chain) Upload(ctx context.Context, f File) (string, error) {
	ref, err := c.Primary.Upload(ctx, f)
	switch Decide(ctx, err) {
	case RouteDone:
		return ref, nil
	case RouteAbort:
		return "", ErrAborted
	}

	if c.Fallback == nil {
		return "", &Failure{Remote: err}
	}

	c.Logger.Warn("Remote image upload failed, embedding inline",
		zap.String("file", f.Name), zap.Error(err))

	ref, ferr := c.Fallback.Upload(ctx, f)
	if ferr != nil {
		return "", &Failure{Remote: err, Fallback: ferr}
	}
	return ref, nil
}
