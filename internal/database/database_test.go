package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/chapterdesk/internal/entities"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase_Migrates(t *testing.T) {
	db := setupTestDB(t)

	for _, model := range []any{&entities.Book{}, &entities.Chapter{}, &entities.UploadedImage{}} {
		assert.True(t, db.DB.Migrator().HasTable(model))
	}
}

func TestSeedDemoBooks(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SeedDemoBooks())
	require.NoError(t, db.SeedDemoBooks())

	var count int64
	require.NoError(t, db.DB.Model(&entities.Book{}).Count(&count).Error)
	assert.Equal(t, int64(len(demoBooks)), count)
}

func TestSeedDemoBooks_SkipsNonEmptyLibrary(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.DB.Create(&entities.Book{Title: "Mine", Author: "Me"}).Error)

	require.NoError(t, db.SeedDemoBooks())

	var count int64
	require.NoError(t, db.DB.Model(&entities.Book{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
