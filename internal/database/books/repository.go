// Package books provides read access to the library's books.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	list, err := repo.ListBooks()
package books

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/chapterdesk/internal/entities"
)

// Repository handles book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBooks returns all books ordered by title.
func (r *Repository) ListBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("title ASC").Find(&books).Error
	return books, err
}

// GetBookByID retrieves a book without its chapters.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// BookExists reports whether a book with the given ID exists.
func (r *Repository) BookExists(id uint) (bool, error) {
	_, err := r.GetBookByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CreateBook stores a new book.
func (r *Repository) CreateBook(book *entities.Book) error {
	return r.db.Create(book).Error
}
