package chapters

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/chapterdesk/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *entities.Book) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "chapters.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Book{}, &entities.Chapter{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	book := &entities.Book{Title: "Book", Author: "Author"}
	require.NoError(t, db.Create(book).Error)
	return NewRepository(db), book
}

func intPtr(n int) *int { return &n }

func TestRepository_CreateAndList(t *testing.T) {
	repo, book := setupTestDB(t)

	require.NoError(t, repo.CreateChapter(&entities.Chapter{BookID: book.ID, ChapterTitle: "Appendix", ContentType: entities.ContentTypeEditor, Content: "<p>a</p>"}))
	require.NoError(t, repo.CreateChapter(&entities.Chapter{BookID: book.ID, ChapterNumber: intPtr(2), ChapterTitle: "Two", ContentType: entities.ContentTypePDF, PDFFile: "two.pdf"}))
	require.NoError(t, repo.CreateChapter(&entities.Chapter{BookID: book.ID, ChapterNumber: intPtr(1), ChapterTitle: "One", ContentType: entities.ContentTypeEditor, Content: "<p>1</p>"}))

	chapters, err := repo.ListChapters(book.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	assert.Equal(t, "One", chapters[0].ChapterTitle)
	assert.Equal(t, "Two", chapters[1].ChapterTitle)
	assert.Equal(t, "Appendix", chapters[2].ChapterTitle)

	other, err := repo.ListChapters(book.ID + 1)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepository_DuplicateNumber(t *testing.T) {
	repo, book := setupTestDB(t)

	require.NoError(t, repo.CreateChapter(&entities.Chapter{BookID: book.ID, ChapterNumber: intPtr(3), ContentType: entities.ContentTypeEditor}))
	err := repo.CreateChapter(&entities.Chapter{BookID: book.ID, ChapterNumber: intPtr(3), ContentType: entities.ContentTypeEditor})
	assert.ErrorIs(t, err, ErrDuplicateNumber)

	// Unnumbered chapters never conflict.
	require.NoError(t, repo.CreateChapter(&entities.Chapter{BookID: book.ID, ContentType: entities.ContentTypeEditor}))
	require.NoError(t, repo.CreateChapter(&entities.Chapter{BookID: book.ID, ContentType: entities.ContentTypeEditor}))
}

func TestRepository_DeleteChapter(t *testing.T) {
	repo, book := setupTestDB(t)
	ch := &entities.Chapter{BookID: book.ID, ChapterTitle: "PDF", ContentType: entities.ContentTypePDF, PDFFile: "x.pdf"}
	require.NoError(t, repo.CreateChapter(ch))

	deleted, err := repo.DeleteChapter(ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "x.pdf", deleted.PDFFile)

	_, err = repo.GetChapter(ch.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.DeleteChapter(ch.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_EditorContents(t *testing.T) {
	repo, book := setupTestDB(t)
	require.NoError(t, repo.CreateChapter(&entities.Chapter{BookID: book.ID, ContentType: entities.ContentTypeEditor, Content: "<p>x</p>"}))
	require.NoError(t, repo.CreateChapter(&entities.Chapter{BookID: book.ID, ContentType: entities.ContentTypePDF, PDFFile: "y.pdf"}))

	contents, err := repo.EditorContents()
	require.NoError(t, err)
	assert.Equal(t, []string{"<p>x</p>"}, contents)
}
