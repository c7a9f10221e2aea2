package http

import (
	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	BookStore    BookStore
	ChapterStore ChapterStore
	ImageStore   ImageStore
	Files        FileStore
	Logger       *zap.Logger

	// Uploads directory served under UploadsURLPrefix
	UploadsDir       string
	UploadsURLPrefix string
	PublicBaseURL    string
	MaxImageBytes    int64
	MaxPDFBytes      int64

	// CSRF protection; disabled when CSRFSecret is empty
	CSRFSecret         []byte
	CSRFSecure         bool
	CSRFTrustedOrigins []string

	// ReadOnly refuses every write request (public demo instances)
	ReadOnly bool

	// Task queue (optional)
	TaskStatus   TaskStatusReader
	ImageCleanup CleanupTrigger

	// Application info
	Version string
}
