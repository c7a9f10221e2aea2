package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// FieldImage is the multipart field carrying the image.
	FieldImage = "image"

	// FieldCSRFToken is the form field gorilla/csrf reads the token from.
	FieldCSRFToken = "gorilla.csrf.Token"

	// HeaderCSRFToken is the header gorilla/csrf reads the token from.
	HeaderCSRFToken = "X-CSRF-Token"

	defaultTimeout     = 15 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
	maxErrorBody       = 4096
)

// RemoteConfig configures a RemoteAdapter.
type RemoteConfig struct {
	// Endpoint is the absolute URL of the image upload endpoint.
	Endpoint string

	// Timeout is the ceiling for the whole upload including retries.
	Timeout time.Duration

	// MaxAttempts bounds how often a temporary failure is retried.
	MaxAttempts int

	// RetryDelay is multiplied by the attempt number between retries.
	RetryDelay time.Duration

	// Token returns the anti-forgery token, or "" when there is none.
	Token func() string

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// RemoteAdapter uploads images to the backend as multipart form data.
type RemoteAdapter struct {
	cfg RemoteConfig
	log *zap.Logger
}

// NewRemoteAdapter creates a RemoteAdapter, filling in defaults.
func NewRemoteAdapter(cfg RemoteConfig) *RemoteAdapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &RemoteAdapter{cfg: cfg, log: log}
}

type uploadResponse struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Upload sends f and returns the URL issued by the server. It gives up with
// ErrTimeout once the configured ceiling is reached.
func (a *RemoteAdapter) Upload(ctx context.Context, f File) (string, error) {
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}

	body, contentType, err := a.encode(f)
	if err != nil {
		return "", err
	}

	ceiling, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ceiling.Done():
				return "", a.ceilingErr(ctx, lastErr)
			case <-time.After(a.cfg.RetryDelay * time.Duration(attempt-1)):
			}
		}

		url, err := a.send(ceiling, body, contentType)
		if err == nil {
			return url, nil
		}
		lastErr = err

		if ceiling.Err() != nil {
			return "", a.ceilingErr(ctx, err)
		}

		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return "", err
		}

		a.log.Debug("Image upload attempt failed",
			zap.String("file", f.Name),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return "", lastErr
}

func (a *RemoteAdapter) ceilingErr(parent context.Context, cause error) error {
	if parent.Err() != nil {
		return ErrAborted
	}
	if cause == nil {
		return ErrTimeout
	}
	return fmt.Errorf("%w after %s: %v", ErrTimeout, a.cfg.Timeout, cause)
}

func (a *RemoteAdapter) encode(f File) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if a.cfg.Token != nil {
		if token := a.cfg.Token(); token != "" {
			if err := w.WriteField(FieldCSRFToken, token); err != nil {
				return nil, "", err
			}
		}
	}

	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	part, err := w.CreatePart(FormFileHeader(FieldImage, f.Name, ct))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// FormFileHeader builds the part header of a multipart file field with an
// explicit content type. multipart.Writer.CreateFormFile always sends
// application/octet-stream.
func FormFileHeader(field, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	return h
}

func (a *RemoteAdapter) send(ctx context.Context, body []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if a.cfg.Token != nil {
		if token := a.cfg.Token(); token != "" {
			req.Header.Set(HeaderCSRFToken, token)
		}
	}

	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var out uploadResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Error
		if msg == "" && len(raw) <= maxErrorBody {
			msg = string(bytes.TrimSpace(raw))
		}
		return "", &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload response has no url")
	}
	return out.URL, nil
}
