package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/chapterdesk/internal/database"
	"github.com/mrlokans/chapterdesk/internal/database/books"
	"github.com/mrlokans/chapterdesk/internal/database/chapters"
	"github.com/mrlokans/chapterdesk/internal/database/images"
	"github.com/mrlokans/chapterdesk/internal/editor"
	"github.com/mrlokans/chapterdesk/internal/entities"
	"github.com/mrlokans/chapterdesk/internal/storage"
)

var (
	pngData = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	pdfData = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
)

type testEnv struct {
	router *gin.Engine
	db     *database.Database
	store  *storage.Store
	book   *entities.Book
}

func setupTestEnv(t *testing.T, csrfSecret []byte) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	editor.RegisterPlugins()

	dir := t.TempDir()
	db, err := database.NewDatabase(filepath.Join(dir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := storage.NewStore(filepath.Join(dir, "uploads"), 1<<20, 1<<20)
	require.NoError(t, err)

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert"}
	require.NoError(t, db.DB.Create(book).Error)

	router := NewRouter(RouterConfig{
		Database:         db,
		BookStore:        books.NewRepository(db.DB),
		ChapterStore:     chapters.NewRepository(db.DB),
		ImageStore:       images.NewRepository(db.DB),
		Files:            store,
		UploadsDir:       store.Root(),
		UploadsURLPrefix: "/uploads",
		MaxImageBytes:    1 << 20,
		MaxPDFBytes:      1 << 20,
		CSRFSecret:       csrfSecret,
		Version:          "test",
	})
	return &testEnv{router: router, db: db, store: store, book: book}
}

// multipartBody builds a form with the given fields and one file part.
func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func newJSONRequest(method, path, body string) *http.Request {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
