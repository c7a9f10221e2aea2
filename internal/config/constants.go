package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./chapterdesk.db"

	// DefaultUploadsDir holds uploaded images and chapter PDFs
	DefaultUploadsDir = "./uploads"

	// UploadsURLPrefix is where the uploads directory is served
	UploadsURLPrefix = "/uploads"
)
