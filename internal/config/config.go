package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Logging
		Database
		Uploads
		CSRF
		Tasks
		ImageCleanup
		Demo
		Author
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Logging struct {
		Level string // none, debug, normal, warn
	}
	Database struct {
		Path string
	}
	Uploads struct {
		Dir           string
		MaxImageBytes int64
		MaxPDFBytes   int64
		PublicBaseURL string // Prefix for returned image URLs; empty means relative
	}
	CSRF struct {
		Enabled        bool
		Secret         string // 32 bytes; generated per process if empty
		SecureCookies  bool   // Set to false for local dev without HTTPS
		TrustedOrigins []string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	ImageCleanup struct {
		Enabled     bool
		Schedule    string        // Cron format: "30 3 * * *" = daily at 03:30
		GracePeriod time.Duration // Unreferenced images younger than this are kept
	}
	Demo struct {
		SeedBooks bool // Seed a few books into an empty database
		ReadOnly  bool // Refuse every write request
	}
	Author struct {
		BaseURL        string
		UploadTimeout  time.Duration
		UploadAttempts int
		InlineMaxBytes int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("log_level", "normal")
	v.SetDefault("database_path", DefaultDatabasePath)

	// Upload defaults
	v.SetDefault("uploads_dir", DefaultUploadsDir)
	v.SetDefault("uploads_max_image_bytes", 10<<20)
	v.SetDefault("uploads_max_pdf_bytes", 50<<20)
	v.SetDefault("uploads_public_base_url", "")

	// CSRF defaults
	v.SetDefault("csrf_enabled", true)
	v.SetDefault("csrf_secret", "")
	v.SetDefault("csrf_secure_cookies", false)
	v.SetDefault("csrf_trusted_origins", []string{})

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Orphan image cleanup defaults
	v.SetDefault("image_cleanup_enabled", true)
	v.SetDefault("image_cleanup_schedule", "30 3 * * *")
	v.SetDefault("image_cleanup_grace_period", "24h")

	v.SetDefault("demo_seed_books", true)
	v.SetDefault("demo_read_only", false)

	// Authoring client defaults
	v.SetDefault("author_base_url", "http://localhost:8190")
	v.SetDefault("author_upload_timeout", "15s")
	v.SetDefault("author_upload_attempts", 3)
	v.SetDefault("author_inline_max_bytes", 5<<20)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Logging: Logging{
			Level: v.GetString("LOG_LEVEL"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Uploads: Uploads{
			Dir:           v.GetString("UPLOADS_DIR"),
			MaxImageBytes: v.GetInt64("UPLOADS_MAX_IMAGE_BYTES"),
			MaxPDFBytes:   v.GetInt64("UPLOADS_MAX_PDF_BYTES"),
			PublicBaseURL: v.GetString("UPLOADS_PUBLIC_BASE_URL"),
		},
		CSRF: CSRF{
			Enabled:        v.GetBool("CSRF_ENABLED"),
			Secret:         v.GetString("CSRF_SECRET"),
			SecureCookies:  v.GetBool("CSRF_SECURE_COOKIES"),
			TrustedOrigins: v.GetStringSlice("CSRF_TRUSTED_ORIGINS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		ImageCleanup: ImageCleanup{
			Enabled:     v.GetBool("IMAGE_CLEANUP_ENABLED"),
			Schedule:    v.GetString("IMAGE_CLEANUP_SCHEDULE"),
			GracePeriod: v.GetDuration("IMAGE_CLEANUP_GRACE_PERIOD"),
		},
		Demo: Demo{
			SeedBooks: v.GetBool("DEMO_SEED_BOOKS"),
			ReadOnly:  v.GetBool("DEMO_READ_ONLY"),
		},
		Author: Author{
			BaseURL:        v.GetString("AUTHOR_BASE_URL"),
			UploadTimeout:  v.GetDuration("AUTHOR_UPLOAD_TIMEOUT"),
			UploadAttempts: v.GetInt("AUTHOR_UPLOAD_ATTEMPTS"),
			InlineMaxBytes: v.GetInt("AUTHOR_INLINE_MAX_BYTES"),
		},
	}
}
