package database

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/chapterdesk/internal/entities"
)

var demoBooks = []entities.Book{
	{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Description: "An envoy visits the ice world of Gethen."},
	{Title: "Meditations", Author: "Marcus Aurelius", Description: "Private notes of a Roman emperor."},
	{Title: "The Elements of Style", Author: "William Strunk Jr.", Description: "A short guide to clear English prose."},
}

type Database struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewDatabase(dbPath string, log *zap.Logger) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Chapter{},
		&entities.UploadedImage{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Database initialized", zap.String("path", dbPath))
	return &Database{DB: db, log: log}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SeedDemoBooks inserts a few books when the library is empty, so a fresh
// install has something to attach chapters to.
func (d *Database) SeedDemoBooks() error {
	var count int64
	if err := d.DB.Model(&entities.Book{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count books: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, book := range demoBooks {
		var existing entities.Book
		err := d.DB.Where("title = ? AND author = ?", book.Title, book.Author).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := d.DB.Create(&book).Error; err != nil {
				return fmt.Errorf("failed to create book %s: %w", book.Title, err)
			}
			d.log.Info("Created demo book", zap.String("title", book.Title))
		}
	}
	return nil
}
