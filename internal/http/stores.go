package http

import (
	"github.com/mrlokans/chapterdesk/internal/entities"
	"github.com/mrlokans/chapterdesk/internal/storage"
)

// BookStore is implemented by books.Repository.
type BookStore interface {
	ListBooks() ([]entities.Book, error)
	BookExists(id uint) (bool, error)
}

// ChapterStore is implemented by chapters.Repository.
type ChapterStore interface {
	CreateChapter(chapter *entities.Chapter) error
	ListChapters(bookID uint) ([]entities.Chapter, error)
	DeleteChapter(id uint) (*entities.Chapter, error)
}

// ImageStore is implemented by images.Repository.
type ImageStore interface {
	CreateImage(img *entities.UploadedImage) error
}

// FileStore is implemented by storage.Store.
type FileStore interface {
	SaveImage(originalName string, data []byte) (*storage.Stored, error)
	SavePDF(originalName string, data []byte) (*storage.Stored, error)
	RemoveImage(name string) error
	RemovePDF(name string) error
}
