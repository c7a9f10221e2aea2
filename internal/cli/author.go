package cli

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/backend"
	"github.com/mrlokans/chapterdesk/internal/config"
	"github.com/mrlokans/chapterdesk/internal/draft"
	"github.com/mrlokans/chapterdesk/internal/editor"
	"github.com/mrlokans/chapterdesk/internal/eventloop"
	"github.com/mrlokans/chapterdesk/internal/logging"
	"github.com/mrlokans/chapterdesk/internal/submission"
	"github.com/mrlokans/chapterdesk/internal/upload"
	"github.com/mrlokans/chapterdesk/internal/utils"
)

const editorContainerID = "chapter-body"

// AuthorCommand builds a chapter draft from a local file and submits it to
// the backend. HTML and Markdown become rich text, PDFs are uploaded as is.
type AuthorCommand struct {
	Source         string
	BookID         uint
	ChapterNumber  string
	ChapterTitle   string
	BaseURL        string
	ListBooks      bool
	UploadTimeout  time.Duration
	UploadAttempts int
	InlineMaxBytes int
	LogLevel       string

	out io.Writer
}

func NewAuthorCommand() *AuthorCommand {
	return &AuthorCommand{out: os.Stdout}
}

func (cmd *AuthorCommand) ParseFlags(args []string) error {
	defaults := config.NewConfig()
	fs := flag.NewFlagSet("author", flag.ExitOnError)

	fs.StringVar(&cmd.Source, "file", "", "Chapter source: .html, .md or .pdf (required unless -list)")
	fs.UintVar(&cmd.BookID, "book", 0, "ID of the book the chapter belongs to (required unless -list)")
	fs.StringVar(&cmd.ChapterNumber, "number", "", "Chapter number (optional)")
	fs.StringVar(&cmd.ChapterTitle, "title", "", "Chapter title (defaults to the file name)")
	fs.StringVar(&cmd.BaseURL, "server", defaults.Author.BaseURL, "Backend base URL")
	fs.BoolVar(&cmd.ListBooks, "list", false, "List books and exit")
	fs.DurationVar(&cmd.UploadTimeout, "upload-timeout", defaults.Author.UploadTimeout, "Ceiling for each image upload, retries included")
	fs.IntVar(&cmd.UploadAttempts, "upload-attempts", defaults.Author.UploadAttempts, "Attempts per image before inlining it")
	fs.IntVar(&cmd.InlineMaxBytes, "inline-max-bytes", defaults.Author.InlineMaxBytes, "Largest image embedded inline when the upload fails")
	fs.StringVar(&cmd.LogLevel, "log-level", defaults.Logging.Level, "Log level: none, debug, normal, warn")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s author [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Submit a chapter to the backend from an HTML, Markdown or PDF file.\n")
		fmt.Fprintf(os.Stderr, "Local images referenced by HTML or Markdown are uploaded and linked.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s author -list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s author -book 3 -number 1 -file ./chapter-01.md\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s author -book 3 -file ./appendix.pdf -title \"Appendix\"\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ListBooks {
		return nil
	}
	if cmd.Source == "" {
		fs.Usage()
		return fmt.Errorf("file is required")
	}
	if cmd.BookID == 0 {
		fs.Usage()
		return fmt.Errorf("book is required")
	}
	return nil
}

func (cmd *AuthorCommand) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := logging.New(cmd.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	return cmd.run(ctx, log)
}

func (cmd *AuthorCommand) run(ctx context.Context, log *zap.Logger) error {
	if cmd.out == nil {
		cmd.out = os.Stdout
	}
	editor.RegisterPlugins()

	client, err := backend.NewClient(cmd.BaseURL)
	if err != nil {
		return err
	}
	if _, err := client.FetchToken(ctx); err != nil {
		return fmt.Errorf("failed to fetch anti-forgery token: %w", err)
	}

	if cmd.ListBooks {
		return cmd.printBooks(ctx, client)
	}

	d, err := cmd.buildDraft(ctx, client, log)
	if err != nil {
		return err
	}

	ctrl := submission.NewController(submission.Config{
		BookID:    cmd.BookID,
		Transport: submission.NewHTTPTransport(client),
		Navigator: &printNavigator{out: cmd.out},
		Notifier:  &logNotifier{log: log},
		Logger:    log,
		OnStateChange: func(s submission.State) {
			log.Debug("Submission state changed", zap.Stringer("state", s))
		},
	})

	if err := ctrl.Submit(ctx, d); err != nil {
		for _, field := range sortedKeys(d.Errors) {
			log.Error("Invalid chapter field", zap.String("field", field), zap.String("message", d.Errors[field]))
		}
		return err
	}
	return nil
}

func (cmd *AuthorCommand) printBooks(ctx context.Context, client *backend.Client) error {
	books, err := client.Books(ctx)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}
	if len(books) == 0 {
		fmt.Fprintln(cmd.out, "No books found")
		return nil
	}
	for _, b := range books {
		fmt.Fprintf(cmd.out, "%4d  %s", b.ID, b.Title)
		if b.Author != "" {
			fmt.Fprintf(cmd.out, " by %s", b.Author)
		}
		fmt.Fprintln(cmd.out)
	}
	return nil
}

// buildDraft reads the source file into a draft ready for submission.
func (cmd *AuthorCommand) buildDraft(ctx context.Context, client *backend.Client, log *zap.Logger) (*draft.Draft, error) {
	data, err := os.ReadFile(cmd.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cmd.Source, err)
	}

	d := draft.New()
	d.SetChapterNumber(cmd.ChapterNumber)
	name := filepath.Base(cmd.Source)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		d.SetFile(&draft.File{Name: name, ContentType: "application/pdf", Data: data})
	case ".md", ".markdown":
		var buf bytes.Buffer
		if err := goldmark.Convert(data, &buf); err != nil {
			return nil, fmt.Errorf("failed to render markdown: %w", err)
		}
		data = buf.Bytes()
		fallthrough
	default:
		body, err := ComposeBody(ctx, string(data), filepath.Dir(cmd.Source), cmd.imageAdapter(client, log), log)
		if err != nil {
			return nil, err
		}
		d.SetBody(body)
		d.SetTitle(utils.TitleFromFilename(name))
	}

	if cmd.ChapterTitle != "" {
		d.SetTitle(cmd.ChapterTitle)
	}
	return d, nil
}

// imageAdapter uploads to the backend and inlines images it rejects.
func (cmd *AuthorCommand) imageAdapter(client *backend.Client, log *zap.Logger) upload.Adapter {
	remote := upload.NewRemoteAdapter(upload.RemoteConfig{
		Endpoint:    client.URL(backend.PathImageUploads),
		Timeout:     cmd.UploadTimeout,
		MaxAttempts: cmd.UploadAttempts,
		Token:       client.Token,
		HTTPClient:  client.HTTPClient(),
		Logger:      log,
	})
	fallback := upload.NewFallbackAdapter()
	if cmd.InlineMaxBytes > 0 {
		fallback.MaxBytes = cmd.InlineMaxBytes
	}
	return upload.NewChain(remote, fallback, log)
}

// ComposeBody loads markup into an editor session and re-inserts every local
// image through adapter, the way images dropped into the editor are
// handled. Image paths are resolved against baseDir.
func ComposeBody(ctx context.Context, markup, baseDir string, adapter upload.Adapter, log *zap.Logger) (string, error) {
	rest, refs := editor.DetachImages(markup, func(src string) bool {
		_, ok := localImagePath(baseDir, src)
		return ok
	})

	loop := eventloop.New()
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go loop.Run(loopCtx)

	tracker := upload.NewTracker(adapter, loop, log)
	var body string
	var failed error
	bridge := editor.NewBridge(editor.Options{
		Uploader: tracker,
		OnChange: func(markup string) { body = markup },
		OnUploadError: func(name string, err error) {
			failed = multierr.Append(failed, fmt.Errorf("%s: %w", name, err))
		},
		Logger: log,
	})

	started := loop.Do(ctx, func() {
		bridge.Mount(&editor.Container{ID: editorContainerID}, rest)
		body = bridge.Value()

		for _, ref := range refs {
			f, err := readImage(baseDir, ref)
			if err != nil {
				failed = multierr.Append(failed, err)
				continue
			}
			if err := bridge.Engine().SetSelection(editor.Range{Start: ref.Offset, End: ref.Offset}); err != nil {
				log.Debug("Image position outside document, appending", zap.String("src", ref.Src))
			}
			bridge.InsertImage(f)
		}
	})
	if !started {
		return "", ctx.Err()
	}

	waitUploads(ctx, tracker)

	finished := loop.Do(ctx, func() {
		if n := bridge.PendingUploads(); n > 0 {
			failed = multierr.Append(failed, fmt.Errorf("%d image uploads did not finish", n))
		}
		bridge.Unmount()
	})
	if !finished {
		return "", ctx.Err()
	}
	if failed != nil {
		return "", fmt.Errorf("images could not be stored: %w", failed)
	}
	if len(refs) > 0 {
		log.Info("Images attached", zap.Int("count", len(refs)))
	}
	return body, nil
}

// waitUploads waits for the tracker to settle or ctx to end, whichever
// comes first. On cancellation the remaining uploads are aborted.
func waitUploads(ctx context.Context, tracker *upload.Tracker) {
	done := make(chan struct{})
	go func() {
		tracker.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		tracker.AbortAll()
		<-done
	}
}

func readImage(baseDir string, ref editor.ImageRef) (upload.File, error) {
	path, _ := localImagePath(baseDir, ref.Src)
	data, err := os.ReadFile(path)
	if err != nil {
		return upload.File{}, fmt.Errorf("failed to read image %s: %w", ref.Src, err)
	}
	f := upload.File{Name: filepath.Base(path), Data: data}
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		f.ContentType = "image/svg+xml"
	}
	mime, err := upload.ImageMIME(f)
	if err != nil {
		return upload.File{}, fmt.Errorf("%s: %w", ref.Src, err)
	}
	f.ContentType = mime
	return f, nil
}

// localImagePath resolves src to an existing file. Remote URLs, data URIs and
// server paths are not local.
func localImagePath(baseDir, src string) (string, bool) {
	u, err := url.Parse(src)
	if err != nil || u.Host != "" {
		return "", false
	}
	var path string
	switch u.Scheme {
	case "file":
		path = u.Path
	case "":
		path = u.Path
		if path == "" {
			return "", false
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, filepath.FromSlash(path))
		}
	default:
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// logNotifier reports submission outcomes through the logger.
type logNotifier struct {
	log *zap.Logger
}

func (n *logNotifier) Success(msg string) { n.log.Info(msg) }
func (n *logNotifier) Error(msg string)   { n.log.Error(msg) }

// printNavigator prints where the saved chapter can be found.
type printNavigator struct {
	out io.Writer
}

func (n *printNavigator) ChapterSaved(bookID uint, ch backend.Chapter) {
	fmt.Fprintf(n.out, "Saved chapter %d %q to book %d\n", ch.ID, ch.ChapterTitle, bookID)
	if ch.PDFURL != "" {
		fmt.Fprintf(n.out, "PDF: %s\n", ch.PDFURL)
	}
}
