package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
)

// DefaultMaxInlineBytes bounds the size of an image embedded as data URI.
const DefaultMaxInlineBytes = 5 << 20

// ErrNotImage is returned when the fallback is asked to inline a non-image.
var ErrNotImage = errors.New("file is not an image")

// FallbackAdapter embeds the image into the document as a data URI. It needs
// no network and resolves immediately.
type FallbackAdapter struct {
	MaxBytes int
}

// NewFallbackAdapter returns a fallback with the default size limit.
func NewFallbackAdapter() *FallbackAdapter {
	return &FallbackAdapter{MaxBytes: DefaultMaxInlineBytes}
}

func (a *FallbackAdapter) Upload(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrAborted
	}
	return DataURI(f, a.MaxBytes)
}

// DataURI encodes f as a base64 data URI. maxBytes <= 0 disables the size
// check.
func DataURI(f File, maxBytes int) (string, error) {
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}
	if maxBytes > 0 && len(f.Data) > maxBytes {
		return "", fmt.Errorf("image %q is %d bytes, inline limit is %d", f.Name, len(f.Data), maxBytes)
	}

	mime, err := ImageMIME(f)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(mime) + 13 + base64.StdEncoding.EncodedLen(len(f.Data)))
	b.WriteString("data:")
	b.WriteString(mime)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(f.Data))
	return b.String(), nil
}

// ImageMIME determines the image type from the file's magic bytes, falling
// back to the declared content type for formats without a signature (SVG).
func ImageMIME(f File) (string, error) {
	if filetype.IsImage(f.Data) {
		kind, err := filetype.Match(f.Data)
		if err == nil && kind != filetype.Unknown {
			return kind.MIME.Value, nil
		}
	}
	if ct := strings.ToLower(strings.TrimSpace(f.ContentType)); strings.HasPrefix(ct, "image/svg") {
		return "image/svg+xml", nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotImage, f.Name)
}
