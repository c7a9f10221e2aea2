// Package chapters provides database operations for book chapters.
package chapters

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/chapterdesk/internal/entities"
)

// ErrDuplicateNumber is returned when a book already has a chapter with the
// requested number.
var ErrDuplicateNumber = errors.New("chapter number already used in this book")

// Repository handles chapter database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new chapters repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateChapter stores a chapter. Chapter numbers are unique per book;
// unnumbered chapters are not checked.
func (r *Repository) CreateChapter(chapter *entities.Chapter) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if chapter.ChapterNumber != nil {
			var count int64
			err := tx.Model(&entities.Chapter{}).
				Where("book_id = ? AND chapter_number = ?", chapter.BookID, *chapter.ChapterNumber).
				Count(&count).Error
			if err != nil {
				return fmt.Errorf("failed to check chapter number: %w", err)
			}
			if count > 0 {
				return ErrDuplicateNumber
			}
		}
		return tx.Create(chapter).Error
	})
}

// ListChapters returns the chapters of a book: numbered chapters in order,
// then unnumbered ones in creation order.
func (r *Repository) ListChapters(bookID uint) ([]entities.Chapter, error) {
	var chapters []entities.Chapter
	err := r.db.Where("book_id = ?", bookID).
		Order("chapter_number IS NULL, chapter_number ASC, id ASC").
		Find(&chapters).Error
	return chapters, err
}

// GetChapter retrieves a chapter by ID.
func (r *Repository) GetChapter(id uint) (*entities.Chapter, error) {
	var chapter entities.Chapter
	if err := r.db.First(&chapter, id).Error; err != nil {
		return nil, err
	}
	return &chapter, nil
}

// DeleteChapter removes a chapter and returns it so the caller can clean up
// its stored file.
func (r *Repository) DeleteChapter(id uint) (*entities.Chapter, error) {
	chapter, err := r.GetChapter(id)
	if err != nil {
		return nil, err
	}
	if err := r.db.Delete(&entities.Chapter{}, id).Error; err != nil {
		return nil, err
	}
	return chapter, nil
}

// EditorContents returns the HTML of every editor chapter.
func (r *Repository) EditorContents() ([]string, error) {
	var contents []string
	err := r.db.Model(&entities.Chapter{}).
		Where("content_type = ?", entities.ContentTypeEditor).
		Pluck("content", &contents).Error
	return contents, err
}
