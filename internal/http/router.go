package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/demo"
	"github.com/mrlokans/chapterdesk/internal/security"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(security.HeadersMiddleware())

	healthController := NewHealthController(cfg.Database, cfg.UploadsDir, cfg.Version)
	router.GET("/health", healthController.Status)

	if cfg.UploadsDir != "" {
		router.Static(cfg.UploadsURLPrefix, cfg.UploadsDir)
	}

	api := router.Group("/api")
	if cfg.ReadOnly {
		log.Info("Demo mode enabled, write operations are blocked")
		api.Use(demo.NewMiddleware(true).Handler())
	}
	if len(cfg.CSRFSecret) > 0 {
		api.Use(security.CSRFMiddleware(cfg.CSRFSecret, cfg.CSRFSecure, cfg.CSRFTrustedOrigins))
		api.GET("/csrf", CSRFToken)
	}

	booksController := NewBooksController(cfg.BookStore, cfg.ChapterStore, cfg.UploadsURLPrefix, log)
	api.GET("/books", booksController.List)
	api.GET("/books/:id/chapters", booksController.Chapters)

	chaptersController := NewChaptersController(cfg.BookStore, cfg.ChapterStore, cfg.Files, cfg.UploadsURLPrefix, cfg.MaxPDFBytes, log)
	api.POST("/chapters", chaptersController.Create)
	api.DELETE("/chapters/:id", chaptersController.Delete)

	imagesController := NewImagesController(cfg.Files, cfg.ImageStore, cfg.UploadsURLPrefix, cfg.PublicBaseURL, cfg.MaxImageBytes, log)
	api.POST("/uploads/images", imagesController.Upload)

	if cfg.TaskStatus != nil && cfg.ImageCleanup != nil {
		tasksController := NewTasksController(cfg.TaskStatus, cfg.ImageCleanup, log)
		api.POST("/tasks/cleanup-images/run", tasksController.RunImageCleanup)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
