package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/chapterdesk/internal/entities"
)

func intPtr(n int) *int { return &n }

func TestBooks_List(t *testing.T) {
	env := setupTestEnv(t, nil)
	require.NoError(t, env.db.DB.Create(&entities.Book{Title: "Anathem", Author: "Neal Stephenson"}).Error)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/books", nil)
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Books []entities.Book `json:"books"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Books, 2)
	assert.Equal(t, "Anathem", resp.Books[0].Title)
	assert.Equal(t, "Dune", resp.Books[1].Title)
}

func TestBooks_Chapters(t *testing.T) {
	env := setupTestEnv(t, nil)
	chapters := []entities.Chapter{
		{BookID: env.book.ID, ChapterNumber: intPtr(2), ChapterTitle: "Second", ContentType: entities.ContentTypeEditor, Content: "<p>b</p>"},
		{BookID: env.book.ID, ChapterTitle: "Appendix", ContentType: entities.ContentTypePDF, PDFFile: "abc-appendix.pdf"},
		{BookID: env.book.ID, ChapterNumber: intPtr(1), ChapterTitle: "First", ContentType: entities.ContentTypeEditor, Content: "<p>a</p>"},
	}
	for i := range chapters {
		require.NoError(t, env.db.DB.Create(&chapters[i]).Error)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/books/%d/chapters", env.book.ID), nil)
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Chapters []struct {
			ChapterTitle string `json:"chapter_title"`
			PDFURL       string `json:"pdf_url"`
		} `json:"chapters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Chapters, 3)
	assert.Equal(t, "First", resp.Chapters[0].ChapterTitle)
	assert.Equal(t, "Second", resp.Chapters[1].ChapterTitle)
	assert.Equal(t, "Appendix", resp.Chapters[2].ChapterTitle)
	assert.Equal(t, "/uploads/pdf/abc-appendix.pdf", resp.Chapters[2].PDFURL)
	assert.Empty(t, resp.Chapters[0].PDFURL)
}

func TestBooks_ChaptersUnknownBook(t *testing.T) {
	env := setupTestEnv(t, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/books/999/chapters", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooks_ChaptersInvalidID(t *testing.T) {
	env := setupTestEnv(t, nil)

	for _, id := range []string{"0", "abc", "-1"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/books/"+id+"/chapters", nil)
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}
