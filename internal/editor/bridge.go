package editor

import (
	"context"

	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/upload"
)

// Uploader starts image uploads on behalf of the bridge.
// *upload.Tracker implements it.
type Uploader interface {
	Start(ctx context.Context, f upload.File, done func(upload.Task)) string
	Abort(id string) bool
}

// Session is the state of one mounted editor.
type Session struct {
	engine             Engine
	lastSyncedSnapshot string
	hasFocus           bool
	degraded           bool
	removeListener     func()
}

// Options configures a Bridge.
type Options struct {
	// Factory creates the rich-text engine on Mount.
	Factory EngineFactory

	// Uploader handles embedded images. Without one InsertImage is a no-op.
	Uploader Uploader

	// OnChange receives every internally originated value.
	OnChange func(markup string)

	// OnUploadError is told about images that could not be stored, neither
	// remotely nor inline.
	OnUploadError func(name string, err error)

	Logger *zap.Logger
}

// Bridge presents a controlled value over an imperative Engine. It is not
// safe for concurrent use; all calls happen on the session's event loop.
type Bridge struct {
	opts Options
	log  *zap.Logger

	session  *Session
	applying bool

	uploadCtx    context.Context
	cancelUpload context.CancelFunc
	pending      map[string]pendingImage
	nextSeq      uint64
}

// pendingImage is where an uploading image goes. seq orders images that
// share a position, earlier insertions first.
type pendingImage struct {
	at  int
	seq uint64
}

// NewBridge creates an unmounted bridge.
func NewBridge(opts Options) *Bridge {
	if opts.Factory == nil {
		opts.Factory = HTMLEngineFactory
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{opts: opts, log: log}
}

// Mount creates the engine on container and seeds it with initialValue. A
// missing container or a failing attach is logged and the bridge carries on
// with a plain text area instead.
func (b *Bridge) Mount(container *Container, initialValue string) {
	if b.session != nil {
		b.log.Warn("Editor already mounted, ignoring mount request")
		return
	}

	engine := b.opts.Factory()
	degraded := false
	if err := engine.Attach(container); err != nil {
		id := ""
		if container != nil {
			id = container.ID
		}
		b.log.Warn("Rich-text editor unavailable, falling back to text area",
			zap.Error(&MountError{Container: id, Err: err}))
		engine.Release()
		engine = NewTextArea()
		_ = engine.Attach(container)
		degraded = true
	}

	b.applying = true
	engine.SetContent(initialValue)
	b.applying = false

	s := &Session{
		engine:             engine,
		lastSyncedSnapshot: initialValue,
		degraded:           degraded,
	}
	s.removeListener = engine.OnChange(b.handleEngineChange)
	b.session = s

	b.uploadCtx, b.cancelUpload = context.WithCancel(context.Background())
	b.pending = make(map[string]pendingImage)

	b.log.Debug("Editor mounted", zap.Bool("degraded", degraded))
}

func (b *Bridge) handleEngineChange(markup string) {
	if b.applying {
		return
	}
	b.OnInternalChange(markup)
}

// OnInternalChange records a value produced by the engine and emits it to
// the caller.
func (b *Bridge) OnInternalChange(markup string) {
	s := b.session
	if s == nil {
		return
	}
	s.hasFocus = s.engine.Focused()
	if markup == s.lastSyncedSnapshot {
		return
	}
	s.lastSyncedSnapshot = markup
	if b.opts.OnChange != nil {
		b.opts.OnChange(markup)
	}
}

// SyncExternalValue applies a value coming from the caller. Values already
// shown by the engine are not applied again, which is what keeps a value
// emitted by OnInternalChange from echoing back into the engine.
func (b *Bridge) SyncExternalValue(value string) {
	s := b.session
	if s == nil || value == s.lastSyncedSnapshot {
		return
	}

	e := s.engine
	live := e.Content()
	if value == live || e.Normalize(value) == live {
		s.lastSyncedSnapshot = value
		return
	}

	sel, hasSel := e.Selection()
	s.hasFocus = e.Focused()

	b.applying = true
	e.SetContent(value)
	b.applying = false

	if hasSel {
		restored := e.SetSelection(sel) == nil
		if !restored {
			end := e.TextLength()
			_ = e.SetSelection(Range{Start: end, End: end})
		}
		if s.hasFocus {
			b.log.Debug("External value replaced content under a live selection",
				zap.Error(&SyncConflict{Selection: sel, Restored: restored}))
		}
	}

	s.lastSyncedSnapshot = value
}

// InsertImage uploads f and inserts the resulting image where the cursor
// is now. It returns the upload task ID, or "" when nothing was started.
func (b *Bridge) InsertImage(f upload.File) string {
	s := b.session
	if s == nil || b.opts.Uploader == nil {
		return ""
	}

	at := s.engine.TextLength()
	if sel, ok := s.engine.Selection(); ok {
		at = sel.End
	}

	id := b.opts.Uploader.Start(b.uploadCtx, f, b.completeUpload)
	b.nextSeq++
	b.pending[id] = pendingImage{at: at, seq: b.nextSeq}
	return id
}

func (b *Bridge) completeUpload(task upload.Task) {
	slot, ok := b.pending[task.ID]
	if !ok || b.session == nil {
		b.log.Debug("Dropping upload result for detached editor", zap.String("task", task.ID))
		return
	}
	delete(b.pending, task.ID)

	if task.State != upload.StateSucceeded {
		b.log.Warn("Image could not be inserted",
			zap.String("file", task.Source.Name), zap.Error(task.Err))
		if b.opts.OnUploadError != nil {
			b.opts.OnUploadError(task.Source.Name, task.Err)
		}
		return
	}

	e := b.session.engine
	at := slot.at
	if l := e.TextLength(); at > l {
		at = l
	}
	e.InsertImage(at, task.Result, task.Source.Name)

	for id, p := range b.pending {
		if p.at > at || (p.at == at && p.seq > slot.seq) {
			p.at++
			b.pending[id] = p
		}
	}
}

// PendingUploads returns the number of images still uploading.
func (b *Bridge) PendingUploads() int {
	return len(b.pending)
}

// Value returns the last synchronised value.
func (b *Bridge) Value() string {
	if b.session == nil {
		return ""
	}
	return b.session.lastSyncedSnapshot
}

// Engine exposes the mounted engine, or nil.
func (b *Bridge) Engine() Engine {
	if b.session == nil {
		return nil
	}
	return b.session.engine
}

// Mounted reports whether a session is active.
func (b *Bridge) Mounted() bool { return b.session != nil }

// Degraded reports whether the session runs on the text area fallback.
func (b *Bridge) Degraded() bool { return b.session != nil && b.session.degraded }

// Unmount detaches the engine and aborts uploads started by this bridge.
// Calling it again has no effect.
func (b *Bridge) Unmount() {
	s := b.session
	if s == nil {
		return
	}
	b.session = nil

	if s.removeListener != nil {
		s.removeListener()
	}
	for id := range b.pending {
		b.opts.Uploader.Abort(id)
	}
	b.pending = nil
	if b.cancelUpload != nil {
		b.cancelUpload()
	}
	s.engine.Release()

	b.log.Debug("Editor unmounted")
}
