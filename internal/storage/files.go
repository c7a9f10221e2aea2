// Package storage keeps uploaded chapter assets on the local disk.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/mrlokans/chapterdesk/internal/utils"
)

var (
	ErrNotImage = errors.New("file is not a supported image")
	ErrNotPDF   = errors.New("file is not a PDF document")
	ErrTooLarge = errors.New("file exceeds the size limit")
	ErrEmpty    = errors.New("file is empty")
	ErrBadName  = errors.New("invalid stored file name")
)

const (
	imagesSubdir = "images"
	pdfSubdir    = "pdf"

	pdfMIME = "application/pdf"
)

// Stored describes a file written by Store.
type Stored struct {
	FileName    string // Name relative to its kind's directory
	ContentType string
	Size        int64
}

// Store writes images and PDFs below a root directory. File names are
// derived from the original name plus a random prefix, so uploads never
// overwrite each other.
type Store struct {
	root          string
	maxImageBytes int64
	maxPDFBytes   int64
}

// NewStore creates the directory layout under root.
func NewStore(root string, maxImageBytes, maxPDFBytes int64) (*Store, error) {
	for _, dir := range []string{imagesSubdir, pdfSubdir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return &Store{root: root, maxImageBytes: maxImageBytes, maxPDFBytes: maxPDFBytes}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// SaveImage sniffs data and stores it if it is an image.
func (s *Store) SaveImage(originalName string, data []byte) (*Stored, error) {
	if err := s.checkSize(data, s.maxImageBytes); err != nil {
		return nil, err
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(data) {
		return nil, ErrNotImage
	}
	name := storedName(originalName, kind.Extension)
	if err := writeAtomic(filepath.Join(s.root, imagesSubdir), name, data); err != nil {
		return nil, err
	}
	return &Stored{FileName: name, ContentType: kind.MIME.Value, Size: int64(len(data))}, nil
}

// SavePDF stores data if it is a PDF document.
func (s *Store) SavePDF(originalName string, data []byte) (*Stored, error) {
	if err := s.checkSize(data, s.maxPDFBytes); err != nil {
		return nil, err
	}
	if !filetype.Is(data, "pdf") {
		return nil, ErrNotPDF
	}
	name := storedName(originalName, "pdf")
	if err := writeAtomic(filepath.Join(s.root, pdfSubdir), name, data); err != nil {
		return nil, err
	}
	return &Stored{FileName: name, ContentType: pdfMIME, Size: int64(len(data))}, nil
}

// ImagePath returns the path of a stored image.
func (s *Store) ImagePath(name string) (string, error) {
	return s.path(imagesSubdir, name)
}

// PDFPath returns the path of a stored PDF.
func (s *Store) PDFPath(name string) (string, error) {
	return s.path(pdfSubdir, name)
}

// RemoveImage deletes a stored image. Missing files are not an error.
func (s *Store) RemoveImage(name string) error {
	return s.remove(imagesSubdir, name)
}

// RemovePDF deletes a stored PDF. Missing files are not an error.
func (s *Store) RemovePDF(name string) error {
	return s.remove(pdfSubdir, name)
}

// ImageURL is the public path an image is served under, relative to the
// uploads prefix.
func ImageURL(prefix, name string) string {
	return strings.TrimRight(prefix, "/") + "/" + imagesSubdir + "/" + name
}

// PDFURL is the public path a PDF is served under.
func PDFURL(prefix, name string) string {
	return strings.TrimRight(prefix, "/") + "/" + pdfSubdir + "/" + name
}

func (s *Store) checkSize(data []byte, limit int64) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	if limit > 0 && int64(len(data)) > limit {
		return fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(data), limit)
	}
	return nil
}

func (s *Store) path(kind, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrBadName
	}
	return filepath.Join(s.root, kind, name), nil
}

func (s *Store) remove(kind, name string) error {
	p, err := s.path(kind, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// storedName is the slug of the original name with the sniffed extension
// and a short random prefix.
func storedName(originalName, ext string) string {
	base := strings.TrimSuffix(originalName, filepath.Ext(originalName)) + "." + ext
	return utils.StoredFilename(uuid.NewString()[:8], base)
}

// writeAtomic writes to a temp file in dir and renames it into place.
func writeAtomic(dir, name string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, "upload_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, filepath.Join(dir, name))
}
