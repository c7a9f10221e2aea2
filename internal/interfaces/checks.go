package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/chapterdesk/internal/database/books"
	"github.com/mrlokans/chapterdesk/internal/database/chapters"
	"github.com/mrlokans/chapterdesk/internal/database/images"
	"github.com/mrlokans/chapterdesk/internal/editor"
	"github.com/mrlokans/chapterdesk/internal/eventloop"
	"github.com/mrlokans/chapterdesk/internal/http"
	"github.com/mrlokans/chapterdesk/internal/scheduler"
	"github.com/mrlokans/chapterdesk/internal/storage"
	"github.com/mrlokans/chapterdesk/internal/submission"
	"github.com/mrlokans/chapterdesk/internal/tasks"
	"github.com/mrlokans/chapterdesk/internal/upload"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.ChapterStore = (*chapters.Repository)(nil)
var _ http.ImageStore = (*images.Repository)(nil)
var _ http.FileStore = (*storage.Store)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.ContentSource = (*chapters.Repository)(nil)
var _ tasks.ImageRecords = (*images.Repository)(nil)
var _ tasks.ImageFiles = (*storage.Store)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ http.TaskStatusReader = (*tasks.Client)(nil)
var _ http.CleanupTrigger = (*scheduler.ImageCleanupScheduler)(nil)

// =============================================================================
// Authoring Pipeline
// =============================================================================

// Engine implementations
var _ editor.Engine = (*editor.HTMLEngine)(nil)
var _ editor.Engine = (*editor.TextArea)(nil)

// Upload adapters
var _ upload.Adapter = (*upload.RemoteAdapter)(nil)
var _ upload.Adapter = (*upload.FallbackAdapter)(nil)
var _ upload.Adapter = (*upload.Chain)(nil)
var _ upload.Adapter = upload.AdapterFunc(nil)

var _ editor.Uploader = (*upload.Tracker)(nil)
var _ eventloop.Dispatcher = (*eventloop.Loop)(nil)
var _ submission.Transport = (*submission.HTTPTransport)(nil)
