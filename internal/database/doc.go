// Package database provides the data access layer for the admin backend.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, demo seeding
//	├── books/           # Book lookups for the book selector
//	├── chapters/        # Chapter CRUD
//	└── images/          # Uploaded image records and orphan queries
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./chapterdesk.db", log)
//
//	booksRepo := books.NewRepository(db.DB)
//	chaptersRepo := chapters.NewRepository(db.DB)
//	imagesRepo := images.NewRepository(db.DB)
//
// # Interface Implementations
//
//   - books.Repository: implements http.BookStore
//   - chapters.Repository: implements http.ChapterStore and tasks.ContentSource
//   - images.Repository: implements http.ImageStore and tasks.ImageRecords
package database
