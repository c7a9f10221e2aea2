package editor

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/chapterdesk/internal/eventloop"
	"github.com/mrlokans/chapterdesk/internal/upload"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// controlledValue mimics a caller holding the chapter body: every emitted
// value is stored and handed straight back to the bridge.
type controlledValue struct {
	value   string
	emitted []string
	bridge  *Bridge
}

func (c *controlledValue) onChange(v string) {
	c.emitted = append(c.emitted, v)
	c.value = v
	c.bridge.SyncExternalValue(v)
}

func mountBridge(t *testing.T, initial string, opts Options) (*Bridge, *HTMLEngine, *controlledValue) {
	t.Helper()
	cv := &controlledValue{value: initial}
	opts.OnChange = cv.onChange
	b := NewBridge(opts)
	cv.bridge = b

	b.Mount(&Container{ID: "chapter-editor"}, initial)
	require.True(t, b.Mounted())
	e, ok := b.Engine().(*HTMLEngine)
	require.True(t, ok)
	return b, e, cv
}

func countEvents(e Engine) *int {
	n := 0
	e.OnChange(func(string) { n++ })
	return &n
}

func TestBridge_MountSeedsInitialValue(t *testing.T) {
	b, e, cv := mountBridge(t, "<p>Hello</p>", Options{})

	assert.Equal(t, "<p>Hello</p>", e.Content())
	assert.Equal(t, "<p>Hello</p>", b.Value())
	assert.Empty(t, cv.emitted, "seeding must not be reported as a user change")
	assert.False(t, b.Degraded())
}

func TestBridge_InternalChangeIsEmitted(t *testing.T) {
	b, e, cv := mountBridge(t, "", Options{})

	e.TypeText("Hello")

	require.Equal(t, []string{"<p>Hello</p>"}, cv.emitted)
	assert.Equal(t, "<p>Hello</p>", b.Value())
}

func TestBridge_NoEchoLoop(t *testing.T) {
	b, e, cv := mountBridge(t, "<p>Hi</p>", Options{})
	events := countEvents(e)

	e.TypeText(" there")
	require.Equal(t, 1, *events)
	require.Len(t, cv.emitted, 1)

	// The caller already passed the value back inside onChange; doing it
	// again must not touch the engine either.
	b.SyncExternalValue(cv.value)
	b.SyncExternalValue(cv.value)

	assert.Equal(t, 1, *events, "echoed value caused engine mutations")
	assert.Len(t, cv.emitted, 1)
}

func TestBridge_NormalizedEquivalentIsNotReapplied(t *testing.T) {
	b, e, _ := mountBridge(t, "<p>Hello</p>", Options{})
	events := countEvents(e)

	b.SyncExternalValue("<p>Hello")

	assert.Zero(t, *events)
	assert.Equal(t, "<p>Hello", b.Value())
}

func TestBridge_ExternalValuesConverge(t *testing.T) {
	b, e, cv := mountBridge(t, "", Options{})
	rng := rand.New(rand.NewSource(7))
	words := []string{"alpha", "beta", "gamma", "delta", "<b>bold</b>", "x &amp; y"}

	for i := 0; i < 200; i++ {
		var parts []string
		for j := 0; j < rng.Intn(4)+1; j++ {
			parts = append(parts, "<p>"+words[rng.Intn(len(words))]+"</p>")
		}
		value := strings.Join(parts, "")

		b.SyncExternalValue(value)

		require.Equal(t, e.Normalize(value), e.Content(), "step %d", i)
		require.Equal(t, value, b.Value())
	}
	assert.Empty(t, cv.emitted, "external updates are not echoed back out")
}

func TestBridge_RestoresSelection(t *testing.T) {
	b, e, _ := mountBridge(t, "<p>Hello world</p>", Options{})
	require.NoError(t, e.SetSelection(Range{Start: 2, End: 4}))

	b.SyncExternalValue("<p>Hello brave world</p>")

	sel, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, Range{Start: 2, End: 4}, sel)
	assert.Equal(t, "<p>Hello brave world</p>", e.Content())
}

func TestBridge_CursorMovesToEndWhenSelectionInvalid(t *testing.T) {
	b, e, _ := mountBridge(t, "<p>Hello world</p>", Options{})
	require.NoError(t, e.SetSelection(Range{Start: 8, End: 11}))

	b.SyncExternalValue("<p>Hi</p>")

	sel, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, Range{Start: 2, End: 2}, sel)
	assert.Equal(t, "<p>Hi</p>", e.Content())
}

func TestBridge_TypingAfterExternalUpdate(t *testing.T) {
	b, e, cv := mountBridge(t, "<p>ab</p>", Options{})
	e.Focus()

	b.SyncExternalValue("<p>abcd</p>")
	e.TypeText("!")

	assert.Equal(t, "<p>ab!cd</p>", e.Content(), "cursor survives the external update")
	assert.Equal(t, []string{"<p>ab!cd</p>"}, cv.emitted)
}

func TestBridge_MountFailureDegradesToTextArea(t *testing.T) {
	var emitted []string
	b := NewBridge(Options{OnChange: func(v string) { emitted = append(emitted, v) }})

	assert.NotPanics(t, func() { b.Mount(nil, "<p>Hello</p>") })

	require.True(t, b.Mounted())
	assert.True(t, b.Degraded())
	ta, ok := b.Engine().(*TextArea)
	require.True(t, ok)
	assert.Equal(t, "<p>Hello</p>", ta.Content())

	ta.TypeText(" more")
	assert.Equal(t, []string{"<p>Hello</p> more"}, emitted)

	b.SyncExternalValue("<p>Replaced</p>")
	assert.Equal(t, "<p>Replaced</p>", ta.Content())
}

func TestBridge_MountTwiceIsIgnored(t *testing.T) {
	b, e, _ := mountBridge(t, "<p>a</p>", Options{})
	b.Mount(&Container{ID: "other"}, "<p>b</p>")

	assert.Same(t, e, b.Engine())
	assert.Equal(t, "<p>a</p>", e.Content())
}

func TestBridge_UnmountIsIdempotent(t *testing.T) {
	b, e, cv := mountBridge(t, "<p>a</p>", Options{})

	b.Unmount()
	assert.NotPanics(t, b.Unmount)
	assert.False(t, b.Mounted())
	assert.Nil(t, b.Engine())
	assert.Empty(t, b.Value())

	// Calls after unmount are ignored.
	b.SyncExternalValue("<p>b</p>")
	b.OnInternalChange("<p>c</p>")
	e.TypeText("x")
	assert.Empty(t, cv.emitted)
}

func TestBridge_RemountAfterUnmount(t *testing.T) {
	b, _, _ := mountBridge(t, "<p>a</p>", Options{})
	b.Unmount()

	b.Mount(&Container{ID: "chapter-editor"}, "<p>b</p>")

	require.True(t, b.Mounted())
	assert.Equal(t, "<p>b</p>", b.Engine().Content())
}

// fakeUploader resolves uploads only when told to.
type fakeUploader struct {
	loop    *eventloop.Loop
	dones   map[string]func(upload.Task)
	files   map[string]upload.File
	aborted []string
}

func newFakeUploader(loop *eventloop.Loop) *fakeUploader {
	return &fakeUploader{
		loop:  loop,
		dones: make(map[string]func(upload.Task)),
		files: make(map[string]upload.File),
	}
}

func (f *fakeUploader) Start(ctx context.Context, file upload.File, done func(upload.Task)) string {
	id := file.Name
	f.dones[id] = done
	f.files[id] = file
	return id
}

func (f *fakeUploader) Abort(id string) bool {
	f.aborted = append(f.aborted, id)
	return true
}

func (f *fakeUploader) resolve(id, ref string, err error) {
	task := upload.Task{ID: id, Source: f.files[id], Result: ref, Err: err, State: upload.StateSucceeded}
	if err != nil {
		task.State = upload.StateFailed
	}
	done := f.dones[id]
	f.loop.Post(func() { done(task) })
}

func TestBridge_InsertImageAfterTyping(t *testing.T) {
	loop := eventloop.New()
	up := newFakeUploader(loop)
	b, e, cv := mountBridge(t, "<p>Hello</p>", Options{Uploader: up})
	require.NoError(t, e.SetSelection(Range{Start: 5, End: 5}))

	id := b.InsertImage(upload.File{Name: "a.png", Data: pngBytes})
	require.NotEmpty(t, id)
	assert.Equal(t, 1, b.PendingUploads())

	e.TypeText(" world")
	up.resolve(id, "/uploads/images/a.png", nil)
	loop.Drain()

	assert.Equal(t, `<p>Hello<img src="/uploads/images/a.png" alt="a.png"/> world</p>`, e.Content())
	assert.Equal(t, e.Content(), cv.value)
	assert.Zero(t, b.PendingUploads())
}

func TestBridge_ConcurrentUploadsResolveInAnyOrder(t *testing.T) {
	loop := eventloop.New()
	up := newFakeUploader(loop)
	b, e, _ := mountBridge(t, "<p>ab</p>", Options{Uploader: up})

	require.NoError(t, e.SetSelection(Range{Start: 1, End: 1}))
	idA := b.InsertImage(upload.File{Name: "a.png", Data: pngBytes})
	require.NoError(t, e.SetSelection(Range{Start: 2, End: 2}))
	idB := b.InsertImage(upload.File{Name: "b.png", Data: pngBytes})

	up.resolve(idA, "/a.png", nil)
	up.resolve(idB, "/b.png", nil)
	loop.Drain()

	assert.Equal(t, `<p>a<img src="/a.png" alt="a.png"/>b<img src="/b.png" alt="b.png"/></p>`, e.Content())
}

func TestBridge_FailedUploadDoesNotBlockOthers(t *testing.T) {
	loop := eventloop.New()
	up := newFakeUploader(loop)
	var failed []string
	b, e, _ := mountBridge(t, "<p>ab</p>", Options{
		Uploader:      up,
		OnUploadError: func(name string, err error) { failed = append(failed, name) },
	})

	idA := b.InsertImage(upload.File{Name: "a.png", Data: pngBytes})
	idB := b.InsertImage(upload.File{Name: "b.png", Data: pngBytes})

	up.resolve(idA, "", &upload.Failure{Remote: errors.New("down"), Fallback: upload.ErrNotImage})
	e.TypeText("c")
	up.resolve(idB, "/b.png", nil)
	loop.Drain()

	assert.Equal(t, []string{"a.png"}, failed)
	assert.Equal(t, `<p>ab<img src="/b.png" alt="b.png"/>c</p>`, e.Content())
}

func TestBridge_UploadAfterUnmountIsDiscarded(t *testing.T) {
	loop := eventloop.New()
	up := newFakeUploader(loop)
	b, e, cv := mountBridge(t, "<p>a</p>", Options{Uploader: up})

	id := b.InsertImage(upload.File{Name: "a.png", Data: pngBytes})
	b.Unmount()
	assert.Equal(t, []string{id}, up.aborted)

	up.resolve(id, "/a.png", nil)
	loop.Drain()

	assert.NotContains(t, e.Content(), "img")
	assert.Empty(t, cv.emitted)
}

func TestBridge_ImageInsertedOnceAfterRetries(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "/uploads/images/fig.png"})
	}))
	defer srv.Close()

	loop := eventloop.New()
	remote := upload.NewRemoteAdapter(upload.RemoteConfig{Endpoint: srv.URL, RetryDelay: time.Millisecond})
	tracker := upload.NewTracker(upload.NewChain(remote, upload.NewFallbackAdapter(), nil), loop, nil)

	b, e, _ := mountBridge(t, "<p>Figure:</p>", Options{Uploader: tracker})
	b.InsertImage(upload.File{Name: "fig.png", ContentType: "image/png", Data: pngBytes})

	tracker.Wait()
	loop.Drain()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, 1, strings.Count(e.Content(), "<img"))
	assert.Contains(t, e.Content(), `src="/uploads/images/fig.png"`)
}

func TestBridge_RemoteTimeoutFallsBackToInline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	loop := eventloop.New()
	remote := upload.NewRemoteAdapter(upload.RemoteConfig{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	tracker := upload.NewTracker(upload.NewChain(remote, upload.NewFallbackAdapter(), nil), loop, nil)

	b, e, cv := mountBridge(t, "<p>Figure:</p>", Options{Uploader: tracker})
	b.InsertImage(upload.File{Name: "fig.png", Data: pngBytes})

	tracker.Wait()
	loop.Drain()

	assert.Equal(t, 1, strings.Count(e.Content(), "<img"))
	assert.Contains(t, e.Content(), `src="data:image/png;base64,`)
	assert.Equal(t, e.Content(), cv.value)
}

func TestBridge_AdjacentImagesKeepInsertionOrder(t *testing.T) {
	loop := eventloop.New()
	up := newFakeUploader(loop)
	b, e, _ := mountBridge(t, "<p>ab</p>", Options{Uploader: up})

	require.NoError(t, e.SetSelection(Range{Start: 1, End: 1}))
	idA := b.InsertImage(upload.File{Name: "a.png", Data: pngBytes})
	require.NoError(t, e.SetSelection(Range{Start: 1, End: 1}))
	idB := b.InsertImage(upload.File{Name: "b.png", Data: pngBytes})
	require.NoError(t, e.SetSelection(Range{Start: 1, End: 1}))
	idC := b.InsertImage(upload.File{Name: "c.png", Data: pngBytes})

	up.resolve(idC, "/c.png", nil)
	loop.Drain()
	up.resolve(idA, "/a.png", nil)
	loop.Drain()
	up.resolve(idB, "/b.png", nil)
	loop.Drain()

	assert.Equal(t,
		`<p>a<img src="/a.png" alt="a.png"/><img src="/b.png" alt="b.png"/><img src="/c.png" alt="c.png"/>b</p>`,
		e.Content())
}
