// Package images keeps track of uploaded chapter images.
package images

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/chapterdesk/internal/entities"
)

// Repository handles uploaded image records.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new images repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateImage records an uploaded image.
func (r *Repository) CreateImage(img *entities.UploadedImage) error {
	return r.db.Create(img).Error
}

// ListCreatedBefore returns images uploaded before cutoff, oldest first.
func (r *Repository) ListCreatedBefore(cutoff time.Time) ([]entities.UploadedImage, error) {
	var imgs []entities.UploadedImage
	err := r.db.Where("created_at < ?", cutoff).Order("created_at ASC").Find(&imgs).Error
	return imgs, err
}

// DeleteImage removes an image record.
func (r *Repository) DeleteImage(id uint) error {
	return r.db.Delete(&entities.UploadedImage{}, id).Error
}
