// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore, ChapterStore, ImageStore: persistence used by the API (internal/http/stores.go)
//   - FileStore: uploaded images and PDFs on disk (internal/http/stores.go)
//   - ContentSource, ImageRecords, ImageFiles: inputs of the orphan image cleanup (internal/tasks/cleanup_images.go)
//
// ## Authoring Interfaces
//
//   - editor.Engine: a rich-text widget the bridge drives (internal/editor/engine.go)
//   - upload.Adapter: turns an image into a reference (internal/upload/adapter.go)
//   - editor.Uploader: runs uploads for the bridge (internal/editor/bridge.go)
//   - eventloop.Dispatcher: hands results back to the session loop (internal/eventloop/loop.go)
//   - submission.Transport, Navigator, Notifier: submission collaborators (internal/submission)
//
// # Adding a New Upload Target
//
// Implement upload.Adapter and put it in front of the fallback:
//
//	type S3Adapter struct{ bucket string }
//
//	func (a *S3Adapter) Upload(ctx context.Context, f upload.File) (string, error) {
//	    // store f.Data, return the public URL
//	}
//
//	chain := upload.NewChain(&S3Adapter{bucket: "covers"}, upload.NewFallbackAdapter(), log)
//
// Any error sends the image to the fallback unless the upload was
// cancelled, in which case nothing is inserted.
//
// # Adding a New Editor Engine
//
// Implement editor.Engine and pass a factory to the bridge:
//
//	bridge := editor.NewBridge(editor.Options{Factory: func() editor.Engine { return NewMyEngine() }})
//
// Attach must fail for containers the engine cannot use; the bridge then
// falls back to a plain text area. SetContent must notify listeners, the
// bridge suppresses the echo itself.
//
// Add a compile-time check to checks.go for every new implementation.
package interfaces
