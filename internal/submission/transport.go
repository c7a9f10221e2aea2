package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/mrlokans/chapterdesk/internal/backend"
	"github.com/mrlokans/chapterdesk/internal/draft"
	"github.com/mrlokans/chapterdesk/internal/upload"
)

// Request is the wire-independent form of a chapter submission. It is a
// snapshot: later edits of the draft do not affect a request in flight.
type Request struct {
	BookID        uint
	Mode          draft.Mode
	ChapterNumber string
	ChapterTitle  string
	Body          string
	File          *draft.File
}

// NewRequest snapshots the draft for book bookID.
func NewRequest(bookID uint, d *draft.Draft) Request {
	req := Request{
		BookID:        bookID,
		Mode:          d.Mode(),
		ChapterNumber: strings.TrimSpace(d.ChapterNumber),
		ChapterTitle:  strings.TrimSpace(d.ChapterTitle),
	}
	switch c := d.Content.(type) {
	case draft.RichText:
		req.Body = c.Body
	case draft.PDF:
		if c.File != nil {
			f := *c.File
			req.File = &f
		}
	}
	return req
}

// Result is the stored chapter as acknowledged by the server.
type Result struct {
	Chapter backend.Chapter
	Message string
}

// Transport sends a chapter request.
type Transport interface {
	Send(ctx context.Context, req Request) (*Result, error)
}

// HTTPTransport posts chapters to the admin API: rich text as JSON, PDFs as
// multipart form data.
type HTTPTransport struct {
	client *backend.Client
}

// NewHTTPTransport creates a transport using client for cookies and the
// anti-forgery token.
func NewHTTPTransport(client *backend.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

type editorPayload struct {
	BookID        uint   `json:"book_id"`
	ChapterNumber *int   `json:"chapter_number,omitempty"`
	ChapterTitle  string `json:"chapter_title"`
	Content       string `json:"content"`
	ContentType   string `json:"content_type"`
}

type chapterResponse struct {
	Message string          `json:"message"`
	Chapter backend.Chapter `json:"chapter"`
}

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, req Request) (*Result, error) {
	var (
		body        []byte
		contentType string
		err         error
	)
	switch req.Mode {
	case draft.ModeRichText:
		body, contentType, err = encodeJSON(req)
	case draft.ModePDF:
		body, contentType, err = encodeMultipart(req)
	default:
		err = fmt.Errorf("unknown content mode %q", req.Mode)
	}
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.client.URL(backend.PathChapters), bytes.NewReader(body))
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	httpReq.Header.Set("Content-Type", contentType)
	t.client.Decorate(httpReq)

	resp, err := t.client.HTTPClient().Do(httpReq)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	defer resp.Body.Close()

	if err := backend.CheckResponse(resp); err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			return nil, &SubmissionError{
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Message,
				Fields:     apiErr.Fields,
				Err:        err,
			}
		}
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Err: err}
	}

	var out chapterResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return &Result{Chapter: out.Chapter, Message: out.Message}, nil
}

func encodeJSON(req Request) ([]byte, string, error) {
	payload := editorPayload{
		BookID:       req.BookID,
		ChapterTitle: req.ChapterTitle,
		Content:      req.Body,
		ContentType:  string(draft.ModeRichText),
	}
	if req.ChapterNumber != "" {
		n, err := strconv.Atoi(req.ChapterNumber)
		if err != nil {
			return nil, "", fmt.Errorf("chapter number %q: %w", req.ChapterNumber, err)
		}
		payload.ChapterNumber = &n
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}
	return body, "application/json", nil
}

func encodeMultipart(req Request) ([]byte, string, error) {
	if req.File == nil {
		return nil, "", errors.New("no PDF file")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"book_id", strconv.FormatUint(uint64(req.BookID), 10)},
		{"content_type", string(draft.ModePDF)},
	}
	if req.ChapterNumber != "" {
		fields = append(fields, [2]string{draft.FieldChapterNumber, req.ChapterNumber})
	}
	if req.ChapterTitle != "" {
		fields = append(fields, [2]string{draft.FieldChapterTitle, req.ChapterTitle})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	contentType := req.File.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	part, err := w.CreatePart(upload.FormFileHeader(draft.FieldPDFFile, req.File.Name, contentType))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.File.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
