package entrypoint

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/config"
	"github.com/mrlokans/chapterdesk/internal/database"
	"github.com/mrlokans/chapterdesk/internal/database/books"
	"github.com/mrlokans/chapterdesk/internal/database/chapters"
	"github.com/mrlokans/chapterdesk/internal/database/images"
	"github.com/mrlokans/chapterdesk/internal/editor"
	http_controllers "github.com/mrlokans/chapterdesk/internal/http"
	"github.com/mrlokans/chapterdesk/internal/logging"
	"github.com/mrlokans/chapterdesk/internal/scheduler"
	"github.com/mrlokans/chapterdesk/internal/storage"
	"github.com/mrlokans/chapterdesk/internal/tasks"
)

// csrfKeyLength is the key size gorilla/csrf expects.
const csrfKeyLength = 32

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, log *zap.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// kill -2 is SIGINT, plain kill sends SIGTERM. SIGKILL can't be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log, err := logging.New(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting chapterdesk", zap.String("version", version))

	editor.RegisterPlugins()

	db, err := database.NewDatabase(cfg.Database.Path, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if cfg.Demo.SeedBooks {
		if err := db.SeedDemoBooks(); err != nil {
			log.Warn("Failed to seed demo books", zap.Error(err))
		}
	}

	files, err := storage.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxImageBytes, cfg.Uploads.MaxPDFBytes)
	if err != nil {
		log.Fatal("Failed to initialize upload storage", zap.Error(err))
	}
	log.Info("Upload storage ready", zap.String("dir", files.Root()))

	bookRepo := books.NewRepository(db.DB)
	chapterRepo := chapters.NewRepository(db.DB)
	imageRepo := images.NewRepository(db.DB)

	// Task queue and the orphan image cleanup it runs
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var cleanupScheduler *scheduler.ImageCleanupScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}.WithDefaults()

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg, log)
		if err != nil {
			log.Fatal("Failed to initialize task queue", zap.Error(err))
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("Error closing task client", zap.Error(err))
			}
		}()

		cleaner := &tasks.ImageCleaner{
			Content: chapterRepo,
			Records: imageRepo,
			Files:   files,
			Logger:  log,
		}
		taskClient.Register(tasks.NewCleanupOrphanImagesQueue(cleaner, taskCfg))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		cleanupScheduler = scheduler.NewImageCleanupScheduler(taskClient, cfg.ImageCleanup.Schedule, cfg.ImageCleanup.GracePeriod, log)
		if cfg.ImageCleanup.Enabled {
			if err := cleanupScheduler.Start(taskCtx); err != nil {
				log.Error("Failed to start image cleanup scheduler", zap.Error(err))
			}
		}
	} else {
		log.Info("Task queue disabled, orphan images will not be cleaned up")
	}

	var csrfSecret []byte
	if cfg.CSRF.Enabled {
		var generated bool
		csrfSecret, generated, err = CSRFSecret(cfg.CSRF.Secret)
		if err != nil {
			log.Fatal("Invalid CSRF secret", zap.Error(err))
		}
		if generated {
			log.Info("Generated CSRF secret (set CSRF_SECRET to persist tokens across restarts)")
		}
	} else {
		log.Warn("CSRF protection disabled")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:           db,
		BookStore:          bookRepo,
		ChapterStore:       chapterRepo,
		ImageStore:         imageRepo,
		Files:              files,
		Logger:             log,
		UploadsDir:         files.Root(),
		UploadsURLPrefix:   config.UploadsURLPrefix,
		PublicBaseURL:      cfg.Uploads.PublicBaseURL,
		MaxImageBytes:      cfg.Uploads.MaxImageBytes,
		MaxPDFBytes:        cfg.Uploads.MaxPDFBytes,
		CSRFSecret:         csrfSecret,
		CSRFSecure:         cfg.CSRF.SecureCookies,
		CSRFTrustedOrigins: cfg.CSRF.TrustedOrigins,
		ReadOnly:           cfg.Demo.ReadOnly,
		Version:            version,
	}
	if taskClient != nil {
		routerCfg.TaskStatus = taskClient
		routerCfg.ImageCleanup = cleanupScheduler
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, log, onShutdown)
}

// CSRFSecret decodes a configured secret, hex or raw, or generates a random
// one when none is configured. A value that hex decodes to the wrong length
// is taken as raw bytes. The bool reports whether it was generated.
func CSRFSecret(configured string) ([]byte, bool, error) {
	if configured == "" {
		secret := make([]byte, csrfKeyLength)
		if _, err := rand.Read(secret); err != nil {
			return nil, false, fmt.Errorf("failed to generate CSRF secret: %w", err)
		}
		return secret, true, nil
	}

	if decoded, err := hex.DecodeString(configured); err == nil && len(decoded) == csrfKeyLength {
		return decoded, false, nil
	}
	secret := []byte(configured)
	if len(secret) != csrfKeyLength {
		return nil, false, fmt.Errorf("CSRF secret must be %d bytes, got %d", csrfKeyLength, len(secret))
	}
	return secret, false, nil
}
