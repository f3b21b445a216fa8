// Package images keeps the photos of newly acquired fridge items on disk.
package images

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Store writes images into a single directory under random names.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("images: upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("images: create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under a new file name and returns that name.
func (s *Store) Save(data []byte) (string, error) {
	ext, ok := extensions[DetectContentType(data)]
	if !ok {
		return "", fmt.Errorf("%w: not an image", domain.ErrInvalidInput)
	}

	name := uuid.NewString() + ext

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("images: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("images: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("images: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("images: rename: %w", err)
	}

	return name, nil
}

// Remove deletes a stored image. Missing files are not an error.
func (s *Store) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("%w: bad image name %q", domain.ErrInvalidInput, name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("images: remove: %w", err)
	}
	return nil
}

// DetectContentType sniffs the MIME type of an upload.
func DetectContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// IsImage reports whether data looks like a supported image.
func IsImage(data []byte) bool {
	_, ok := extensions[DetectContentType(data)]
	return ok
}
