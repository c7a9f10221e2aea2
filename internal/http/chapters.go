package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrlokans/chapterdesk/internal/database/chapters"
	"github.com/mrlokans/chapterdesk/internal/draft"
	"github.com/mrlokans/chapterdesk/internal/editor"
	"github.com/mrlokans/chapterdesk/internal/entities"
	"github.com/mrlokans/chapterdesk/internal/storage"
	"github.com/mrlokans/chapterdesk/internal/utils"
)

const (
	fieldBookID      = "book_id"
	fieldContentType = "content_type"

	// Room for the form fields around the PDF part
	multipartOverhead = 1 << 20
)

type ChaptersController struct {
	books       BookStore
	chapters    ChapterStore
	files       FileStore
	assetPrefix string
	maxPDFBytes int64
	log         *zap.Logger
}

func NewChaptersController(books BookStore, chapters ChapterStore, files FileStore, assetPrefix string, maxPDFBytes int64, log *zap.Logger) *ChaptersController {
	return &ChaptersController{
		books:       books,
		chapters:    chapters,
		files:       files,
		assetPrefix: assetPrefix,
		maxPDFBytes: maxPDFBytes,
		log:         log,
	}
}

// editorChapterRequest is the JSON body of an editor chapter. chapter_number
// is accepted as a number or a numeric string.
type editorChapterRequest struct {
	BookID        uint   `json:"book_id"`
	ChapterNumber any    `json:"chapter_number"`
	ChapterTitle  string `json:"chapter_title"`
	Content       string `json:"content"`
	ContentType   string `json:"content_type"`
}

// Create handles POST /api/chapters
// Editor chapters are sent as JSON, PDF chapters as multipart form data.
func (cc *ChaptersController) Create(c *gin.Context) {
	switch c.ContentType() {
	case "application/json":
		cc.createEditorChapter(c)
	case "multipart/form-data":
		cc.createPDFChapter(c)
	default:
		respondError(c, http.StatusUnsupportedMediaType, "expected application/json or multipart/form-data")
	}
}

func (cc *ChaptersController) createEditorChapter(c *gin.Context) {
	var req editorChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}
	if req.ContentType != "" && req.ContentType != string(entities.ContentTypeEditor) {
		respondInvalid(c, "Invalid chapter", map[string]string{fieldContentType: "JSON bodies carry editor chapters"})
		return
	}

	fields := make(map[string]string)
	number, ok := chapterNumberFrom(req.ChapterNumber)
	if !ok {
		fields[draft.FieldChapterNumber] = "Chapter number must be a positive whole number"
	}
	title := strings.TrimSpace(req.ChapterTitle)
	if title == "" {
		fields[draft.FieldChapterTitle] = "Chapter title is required"
	}
	content := editor.Sanitize(req.Content)
	if draft.IsBlankHTML(content) {
		fields[draft.FieldContent] = "Chapter content is required"
	}
	if !cc.checkBook(c, req.BookID, fields) {
		return
	}
	if len(fields) > 0 {
		respondInvalid(c, "Invalid chapter", fields)
		return
	}

	chapter := &entities.Chapter{
		BookID:        req.BookID,
		ChapterNumber: number,
		ChapterTitle:  title,
		ContentType:   entities.ContentTypeEditor,
		Content:       content,
	}
	cc.save(c, chapter)
}

func (cc *ChaptersController) createPDFChapter(c *gin.Context) {
	if cc.maxPDFBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cc.maxPDFBytes+multipartOverhead)
	}
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "PDF file is too large")
			return
		}
		respondBadRequest(c, "invalid multipart body")
		return
	}
	if ct := c.PostForm(fieldContentType); ct != "" && ct != string(entities.ContentTypePDF) {
		respondInvalid(c, "Invalid chapter", map[string]string{fieldContentType: "multipart bodies carry PDF chapters"})
		return
	}

	fields := make(map[string]string)
	bookID, err := strconv.ParseUint(c.PostForm(fieldBookID), 10, 32)
	if err != nil {
		bookID = 0
	}
	number, ok := chapterNumberFrom(c.PostForm(draft.FieldChapterNumber))
	if !ok {
		fields[draft.FieldChapterNumber] = "Chapter number must be a positive whole number"
	}

	fh, err := c.FormFile(draft.FieldPDFFile)
	var data []byte
	if err != nil {
		fields[draft.FieldPDFFile] = "PDF file is required"
	} else {
		data, err = readFormFile(fh)
		if err != nil {
			respondBadRequest(c, "could not read PDF file")
			return
		}
	}
	if !cc.checkBook(c, uint(bookID), fields) {
		return
	}
	if len(fields) > 0 {
		respondInvalid(c, "Invalid chapter", fields)
		return
	}

	stored, err := cc.files.SavePDF(fh.Filename, data)
	if err != nil {
		if msg, ok := fileErrorMessage(err); ok {
			respondInvalid(c, "Invalid chapter", map[string]string{draft.FieldPDFFile: msg})
			return
		}
		respondInternalError(c, cc.log, err, "store PDF")
		return
	}

	title := strings.TrimSpace(c.PostForm(draft.FieldChapterTitle))
	if title == "" {
		title = utils.TitleFromFilename(fh.Filename)
	}
	chapter := &entities.Chapter{
		BookID:        uint(bookID),
		ChapterNumber: number,
		ChapterTitle:  title,
		ContentType:   entities.ContentTypePDF,
		PDFFile:       stored.FileName,
	}
	if !cc.save(c, chapter) {
		if err := cc.files.RemovePDF(stored.FileName); err != nil {
			cc.log.Warn("Failed to remove PDF of rejected chapter", zap.String("file", stored.FileName), zap.Error(err))
		}
	}
}

// checkBook adds a field error for an unknown book. It returns false if a
// response has already been written.
func (cc *ChaptersController) checkBook(c *gin.Context, bookID uint, fields map[string]string) bool {
	if bookID == 0 {
		fields[fieldBookID] = "Book is required"
		return true
	}
	exists, err := cc.books.BookExists(bookID)
	if err != nil {
		respondInternalError(c, cc.log, err, "find book")
		return false
	}
	if !exists {
		fields[fieldBookID] = "Book not found"
	}
	return true
}

func (cc *ChaptersController) save(c *gin.Context, chapter *entities.Chapter) bool {
	if err := cc.chapters.CreateChapter(chapter); err != nil {
		if errors.Is(err, chapters.ErrDuplicateNumber) {
			respondInvalid(c, "Invalid chapter", map[string]string{
				draft.FieldChapterNumber: fmt.Sprintf("Chapter %d already exists in this book", *chapter.ChapterNumber),
			})
			return false
		}
		respondInternalError(c, cc.log, err, "create chapter")
		return false
	}

	withPDFURL(chapter, cc.assetPrefix)
	cc.log.Info("Chapter created",
		zap.Uint("chapter_id", chapter.ID),
		zap.Uint("book_id", chapter.BookID),
		zap.String("content_type", string(chapter.ContentType)))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Chapter created",
		"chapter": chapter,
	})
	return true
}

// Delete handles DELETE /api/chapters/:id
func (cc *ChaptersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	chapter, err := cc.chapters.DeleteChapter(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "chapter")
		return
	}
	if err != nil {
		respondInternalError(c, cc.log, err, "delete chapter")
		return
	}

	if chapter.ContentType == entities.ContentTypePDF && chapter.PDFFile != "" {
		if err := cc.files.RemovePDF(chapter.PDFFile); err != nil {
			cc.log.Warn("Failed to remove chapter PDF", zap.String("file", chapter.PDFFile), zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}

// chapterNumberFrom accepts nil, "", a positive JSON number or a positive
// numeric string.
func chapterNumberFrom(v any) (*int, bool) {
	var n int
	switch t := v.(type) {
	case nil:
		return nil, true
	case float64:
		if t != float64(int(t)) {
			return nil, false
		}
		n = int(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, true
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return nil, false
		}
		n = parsed
	default:
		return nil, false
	}
	if n <= 0 {
		return nil, false
	}
	return &n, true
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// fileErrorMessage maps storage rejections to a user facing message.
func fileErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, storage.ErrEmpty):
		return "File is empty", true
	case errors.Is(err, storage.ErrTooLarge):
		return "File is too large", true
	case errors.Is(err, storage.ErrNotPDF):
		return "File is not a PDF document", true
	case errors.Is(err, storage.ErrNotImage):
		return "File is not a supported image", true
	}
	return "", false
}
