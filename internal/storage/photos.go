package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxPhotoSize is the largest accepted upload.
const MaxPhotoSize = 5 * 1024 * 1024

// ErrInvalidPhoto is returned for uploads that are too large or of an unsupported type.
var ErrInvalidPhoto = errors.New("invalid photo")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// PhotoStore writes listing photos to local disk under Dir/<business id>/.
type PhotoStore struct {
	Dir     string
	BaseURL string
	now     func() time.Time
}

// NewPhotoStore constructs a PhotoStore serving files under baseURL.
func NewPhotoStore(dir, baseURL string) *PhotoStore {
	if dir == "" {
		dir = "uploads"
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return &PhotoStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// Save validates and stores a photo, returning its public URL.
func (s *PhotoStore) Save(businessID uuid.UUID, filename string, size int64, r io.Reader) (string, error) {
	if size > MaxPhotoSize {
		return "", fmt.Errorf("%w: file exceeds the 5MB limit", ErrInvalidPhoto)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: only JPG, PNG and WebP images are allowed", ErrInvalidPhoto)
	}

	dir := filepath.Join(s.Dir, businessID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%d%s", s.now().UnixNano(), ext)
	target := filepath.Join(dir, name)
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(r, MaxPhotoSize+1))
	if err != nil {
		os.Remove(target)
		return "", fmt.Errorf("write photo: %w", err)
	}
	if written > MaxPhotoSize {
		os.Remove(target)
		return "", fmt.Errorf("%w: file exceeds the 5MB limit", ErrInvalidPhoto)
	}

	return path.Join(s.BaseURL, businessID.String(), name), nil
}
