// Package editor keeps an imperative rich-text engine in step with a
// value-in/value-out chapter body.
//
// The Bridge owns the engine for the lifetime of an editing session. It
// forwards engine mutations to the caller and applies caller updates to the
// engine, comparing against the last synchronised snapshot on both paths so
// that a value never travels back to where it came from.
package editor

import (
	"errors"
	"fmt"
)

// Range is a selection expressed in character offsets of the document's
// text. Embedded images count as one character.
type Range struct {
	Start int
	End   int
}

// Collapsed reports whether the range is a plain cursor.
func (r Range) Collapsed() bool { return r.Start == r.End }

// Container is the mount point the engine renders into.
type Container struct {
	ID string
}

// Engine is a stateful rich-text editing widget.
type Engine interface {
	// Attach binds the engine to its container.
	Attach(c *Container) error

	// SetContent replaces the document. Listeners are notified.
	SetContent(markup string)

	// Content returns the live document as normalised HTML.
	Content() string

	// Normalize runs markup through the engine's parser without changing
	// the document.
	Normalize(markup string) string

	// TextLength is the length of the document in selection offsets.
	TextLength() int

	// Selection returns the current selection, if the engine has one.
	Selection() (Range, bool)

	// SetSelection moves the selection. It fails if r is outside the
	// document.
	SetSelection(r Range) error

	// InsertImage places an image at offset at. Listeners are notified.
	InsertImage(at int, src, alt string)

	// OnChange registers fn for document mutations and returns a function
	// that removes it.
	OnChange(fn func(markup string)) (remove func())

	// Focused reports whether the engine holds input focus.
	Focused() bool

	// Release frees resources. The engine is unusable afterwards.
	Release()
}

// EngineFactory creates a fresh, unattached engine.
type EngineFactory func() Engine

var (
	// ErrNoContainer is returned by Attach when there is nothing to mount on.
	ErrNoContainer = errors.New("editor container is not available")

	// ErrInvalidRange is returned by SetSelection for out of bounds ranges.
	ErrInvalidRange = errors.New("selection range is outside the document")

	// ErrReleased is returned when a released engine is attached again.
	ErrReleased = errors.New("engine has been released")
)

// MountError describes an engine that could not be attached. The bridge
// logs it and continues with a plain text area.
type MountError struct {
	Container string
	Err       error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount editor on %q: %v", e.Container, e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }

// SyncConflict describes an external value overriding content while the
// user had a live selection. External wins; it is only ever logged.
type SyncConflict struct {
	Selection Range
	Restored  bool
}

func (e *SyncConflict) Error() string {
	return fmt.Sprintf("external update replaced content under selection %d-%d (restored: %t)",
		e.Selection.Start, e.Selection.End, e.Restored)
}
