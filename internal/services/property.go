package services

import (
	"context"
	"io"
	"strings"

	"github.com/lebbnb/apiserver/internal/storage"
	"github.com/lebbnb/apiserver/types"
)

const (
	maxTitleLength   = 200
	maxAddressLength = 300
)

// PropertyRepository defines persistence operations for properties.
type PropertyRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Property, int, error)
	Get(ctx context.Context, id int) (types.Property, error)
	Create(ctx context.Context, property types.Property) (types.Property, error)
	Update(ctx context.Context, property types.Property) (types.Property, error)
	SetImages(ctx context.Context, id int, images []string) error
	Delete(ctx context.Context, id int) error
}

// ImageUpload is one file from a multipart upload request.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// PropertyService encapsulates property listing use-cases, including the
// image lifecycle against object storage.
type PropertyService struct {
	repo   PropertyRepository
	images *storage.ImageStore
}

func NewPropertyService(repo PropertyRepository, images *storage.ImageStore) *PropertyService {
	return &PropertyService{repo: repo, images: images}
}

func (s *PropertyService) List(ctx context.Context, offset, limit int) ([]types.Property, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *PropertyService) Get(ctx context.Context, id int) (types.Property, error) {
	return s.repo.Get(ctx, id)
}

func (s *PropertyService) Create(ctx context.Context, property types.Property) (types.Property, error) {
	if err := validateProperty(property); err != nil {
		return types.Property{}, err
	}
	return s.repo.Create(ctx, property)
}

func (s *PropertyService) Update(ctx context.Context, property types.Property) (types.Property, error) {
	if err := validateProperty(property); err != nil {
		return types.Property{}, err
	}
	return s.repo.Update(ctx, property)
}

// Delete removes a property and best-effort removes its stored images.
func (s *PropertyService) Delete(ctx context.Context, id int) error {
	property, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	for _, key := range property.Images {
		_ = s.images.Remove(ctx, key)
	}
	return nil
}

// AddImages stores each upload under a generated key and appends the keys
// to the property's image list.
func (s *PropertyService) AddImages(ctx context.Context, id int, uploads []ImageUpload) (types.Property, error) {
	property, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Property{}, err
	}

	keys := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		key, err := s.images.Save(ctx, upload.Reader, upload.Size, upload.ContentType)
		if err != nil {
			// Roll back objects stored so far; the listing is untouched.
			for _, stored := range keys {
				_ = s.images.Remove(ctx, stored)
			}
			return types.Property{}, err
		}
		keys = append(keys, key)
	}

	property.Images = append(property.Images, keys...)
	if err := s.repo.SetImages(ctx, id, property.Images); err != nil {
		for _, stored := range keys {
			_ = s.images.Remove(ctx, stored)
		}
		return types.Property{}, err
	}
	return property, nil
}

// RemoveImage detaches an image key from the property and deletes the
// underlying object.
func (s *PropertyService) RemoveImage(ctx context.Context, id int, key string) (types.Property, error) {
	property, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Property{}, err
	}

	remaining := make([]string, 0, len(property.Images))
	found := false
	for _, existing := range property.Images {
		if existing == key {
			found = true
			continue
		}
		remaining = append(remaining, existing)
	}
	if !found {
		return types.Property{}, validationError("image not attached to property")
	}

	if err := s.repo.SetImages(ctx, id, remaining); err != nil {
		return types.Property{}, err
	}
	_ = s.images.Remove(ctx, key)

	property.Images = remaining
	return property, nil
}

// OpenImage streams a stored image.
func (s *PropertyService) OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error) {
	reader, err := s.images.Open(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return reader, storage.ContentTypeForKey(key), nil
}

func validateProperty(property types.Property) error {
	title := strings.TrimSpace(property.Title)
	address := strings.TrimSpace(property.Address)
	switch {
	case title == "":
		return validationError("title is required")
	case len(title) > maxTitleLength:
		return validationError("title cannot exceed 200 characters")
	case address == "":
		return validationError("address is required")
	case len(address) > maxAddressLength:
		return validationError("address cannot exceed 300 characters")
	}
	return nil
}
