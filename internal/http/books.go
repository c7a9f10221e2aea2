package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/entities"
	"github.com/mrlokans/chapterdesk/internal/storage"
)

type BooksController struct {
	books       BookStore
	chapters    ChapterStore
	assetPrefix string
	log         *zap.Logger
}

func NewBooksController(books BookStore, chapters ChapterStore, assetPrefix string, log *zap.Logger) *BooksController {
	return &BooksController{books: books, chapters: chapters, assetPrefix: assetPrefix, log: log}
}

// List handles GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	books, err := bc.books.ListBooks()
	if err != nil {
		respondInternalError(c, bc.log, err, "list books")
		return
	}
	if books == nil {
		books = []entities.Book{}
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

// Chapters handles GET /api/books/:id/chapters
func (bc *BooksController) Chapters(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	exists, err := bc.books.BookExists(id)
	if err != nil {
		respondInternalError(c, bc.log, err, "find book")
		return
	}
	if !exists {
		respondNotFound(c, "book")
		return
	}

	chapters, err := bc.chapters.ListChapters(id)
	if err != nil {
		respondInternalError(c, bc.log, err, "list chapters")
		return
	}
	if chapters == nil {
		chapters = []entities.Chapter{}
	}
	for i := range chapters {
		withPDFURL(&chapters[i], bc.assetPrefix)
	}
	c.JSON(http.StatusOK, gin.H{"chapters": chapters})
}

func withPDFURL(ch *entities.Chapter, prefix string) {
	if ch.ContentType == entities.ContentTypePDF && ch.PDFFile != "" {
		ch.PDFURL = storage.PDFURL(prefix, ch.PDFFile)
	}
}
