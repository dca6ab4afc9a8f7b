package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// ErrUnsupportedImageType is returned for uploads whose content type is not
// an accepted image format.
var ErrUnsupportedImageType = errors.New("unsupported image type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore stores property images in an object-storage backend under
// generated keys so uploaded filenames never reach the bucket.
type ImageStore struct {
	backend ObjectStorage
}

// NewImageStore constructs an ImageStore over the provided backend.
func NewImageStore(backend ObjectStorage) *ImageStore {
	return &ImageStore{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Save uploads an image and returns the generated object key. The key is a
// random UUID with an extension derived from the content type.
func (s *ImageStore) Save(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	ext, ok := imageExtensions[normalizeContentType(contentType)]
	if !ok {
		return "", ErrUnsupportedImageType
	}
	key := uuid.NewString() + ext
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Open returns a reader for a stored image.
func (s *ImageStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Remove deletes a stored image.
func (s *ImageStore) Remove(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *ImageStore) Bucket() string {
	return s.backend.Bucket()
}

// ContentTypeForKey maps a stored key's extension back to a content type,
// defaulting to octet-stream for unknown extensions.
func ContentTypeForKey(key string) string {
	for contentType, ext := range imageExtensions {
		if strings.HasSuffix(key, ext) {
			return contentType
		}
	}
	return "application/octet-stream"
}

func normalizeContentType(contentType string) string {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(normalized, ";"); i >= 0 {
		normalized = strings.TrimSpace(normalized[:i])
	}
	if normalized == "image/jpg" {
		return "image/jpeg"
	}
	return normalized
}
