package entities

import (
	"time"

	"gorm.io/gorm"
)

type ContentType string

const (
	ContentTypeEditor ContentType = "editor" // HTML authored in the rich-text editor
	ContentTypePDF    ContentType = "pdf"    // Uploaded PDF document
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == ContentTypeEditor || t == ContentTypePDF
}

type Book struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"index;size:512" json:"title"`
	Author      string         `gorm:"index;size:256" json:"author"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Chapters    []Chapter      `gorm:"foreignKey:BookID" json:"chapters,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type Chapter struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	BookID        uint        `gorm:"index;not null" json:"book_id"`
	ChapterNumber *int        `gorm:"index" json:"chapter_number,omitempty"`
	ChapterTitle  string      `gorm:"size:512" json:"chapter_title"`
	ContentType   ContentType `gorm:"size:16;not null" json:"content_type"`
	Content       string      `gorm:"type:text" json:"content,omitempty"` // HTML, editor chapters only
	PDFFile       string      `gorm:"size:255" json:"-"`                  // Stored file name, PDF chapters only
	PDFURL        string      `gorm:"-" json:"pdf_url,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// UploadedImage records an image accepted by the upload endpoint so that
// images no chapter ends up referencing can be removed later.
type UploadedImage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FileName     string    `gorm:"uniqueIndex;size:255" json:"file_name"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	ContentType  string    `gorm:"size:100" json:"content_type"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
