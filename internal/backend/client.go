// Package backend talks to the library admin API: the book list, chapter
// listings and the anti-forgery token every write request carries.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout = 60 * time.Second

	// Paths served by the admin API.
	PathCSRF         = "/api/csrf"
	PathBooks        = "/api/books"
	PathChapters     = "/api/chapters"
	PathImageUploads = "/api/uploads/images"
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the admin API.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("admin API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("admin API error: HTTP %d: %s", e.StatusCode, e.Message)
}

// Book is an entry of the book selector.
type Book struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Chapter is a stored chapter as returned by the API.
type Chapter struct {
	ID            uint      `json:"id"`
	BookID        uint      `json:"book_id"`
	ChapterNumber *int      `json:"chapter_number,omitempty"`
	ChapterTitle  string    `json:"chapter_title"`
	ContentType   string    `json:"content_type"`
	Content       string    `json:"content,omitempty"`
	PDFURL        string    `json:"pdf_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Client is an admin API client. It keeps the session cookie the
// anti-forgery token is bound to.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
	}, nil
}

// HTTPClient returns the cookie-carrying HTTP client for other callers of
// the same API, such as the image upload adapter.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// URL resolves an API path against the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL.String() + path
}

// Token returns the cached anti-forgery token, or "" if none was fetched.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// FetchToken requests a fresh anti-forgery token and caches it. Servers
// without CSRF protection answer 404, which leaves the token empty.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"csrf_token"`
	}
	err := c.getJSON(ctx, PathCSRF, &out)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}

	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	return out.Token, nil
}

// Books lists the books a chapter can be added to.
func (c *Client) Books(ctx context.Context) ([]Book, error) {
	var out struct {
		Books []Book `json:"books"`
	}
	if err := c.getJSON(ctx, PathBooks, &out); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return out.Books, nil
}

// Chapters lists the chapters of a book.
func (c *Client) Chapters(ctx context.Context, bookID uint) ([]Chapter, error) {
	var out struct {
		Chapters []Chapter `json:"chapters"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%d/chapters", PathBooks, bookID), &out); err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return out.Chapters, nil
}

// DeleteChapter removes a chapter.
func (c *Client) DeleteChapter(ctx context.Context, id uint) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.URL(fmt.Sprintf("%s/%d", PathChapters, id)), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.Decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return CheckResponse(resp)
}

// Decorate adds the headers every API request carries.
func (c *Client) Decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.Decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CheckResponse turns a non-2xx response into an error. 404 becomes
// ErrNotFound, everything else an *APIError carrying the server message.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		var fields map[string]string
		if len(payload.Details) > 0 && json.Unmarshal(payload.Details, &fields) == nil {
			apiErr.Fields = fields
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
