package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/lebbnb/apiserver/internal/storage"
	"github.com/lebbnb/apiserver/internal/store"
	"github.com/lebbnb/apiserver/types"
)

type fakePropertyRepo struct {
	properties map[int]*types.Property
	nextID     int
	failSet    bool
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{properties: map[int]*types.Property{}, nextID: 1}
}

func (r *fakePropertyRepo) List(_ context.Context, offset, limit int) ([]types.Property, int, error) {
	var items []types.Property
	for _, property := range r.properties {
		items = append(items, *property)
	}
	total := len(items)
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, total, nil
}

func (r *fakePropertyRepo) Get(_ context.Context, id int) (types.Property, error) {
	property, ok := r.properties[id]
	if !ok {
		return types.Property{}, store.ErrNotFound
	}
	return *property, nil
}

func (r *fakePropertyRepo) Create(_ context.Context, property types.Property) (types.Property, error) {
	property.ID = r.nextID
	r.nextID++
	r.properties[property.ID] = &property
	return property, nil
}

func (r *fakePropertyRepo) Update(_ context.Context, property types.Property) (types.Property, error) {
	existing, ok := r.properties[property.ID]
	if !ok {
		return types.Property{}, store.ErrNotFound
	}
	existing.Title = property.Title
	existing.Address = property.Address
	return *existing, nil
}

func (r *fakePropertyRepo) SetImages(_ context.Context, id int, images []string) error {
	if r.failSet {
		return errors.New("boom")
	}
	property, ok := r.properties[id]
	if !ok {
		return store.ErrNotFound
	}
	property.Images = images
	return nil
}

func (r *fakePropertyRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.properties[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.properties, id)
	return nil
}

// fakeObjectStorage keeps stored objects in a map so tests can observe the
// image lifecycle without a real bucket.
type fakeObjectStorage struct {
	objects map[string][]byte
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: map[string][]byte{}}
}

func (f *fakeObjectStorage) EnsureBucket(_ context.Context) error { return nil }

func (f *fakeObjectStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStorage) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStorage) Bucket() string { return "test-bucket" }

func newTestPropertyService() (*PropertyService, *fakePropertyRepo, *fakeObjectStorage) {
	repo := newFakePropertyRepo()
	objects := newFakeObjectStorage()
	return NewPropertyService(repo, storage.NewImageStore(objects)), repo, objects
}

func upload(data, contentType string) ImageUpload {
	return ImageUpload{
		Reader:      strings.NewReader(data),
		Size:        int64(len(data)),
		ContentType: contentType,
	}
}

func TestPropertyCreateValidation(t *testing.T) {
	service, _, _ := newTestPropertyService()
	ctx := context.Background()

	var validationErr ValidationError
	if _, err := service.Create(ctx, types.Property{Address: "1 Main St"}); !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}
	if _, err := service.Create(ctx, types.Property{Title: "Riverside flat"}); !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error for missing address, got %v", err)
	}

	created, err := service.Create(ctx, types.Property{Title: "Riverside flat", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}
}

func TestPropertyAddImages(t *testing.T) {
	service, repo, objects := newTestPropertyService()
	ctx := context.Background()

	created, err := service.Create(ctx, types.Property{Title: "Riverside flat", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := service.AddImages(ctx, created.ID, []ImageUpload{
		upload("jpeg-bytes", "image/jpeg"),
		upload("png-bytes", "image/png"),
	})
	if err != nil {
		t.Fatalf("add images: %v", err)
	}
	if len(updated.Images) != 2 {
		t.Fatalf("expected two image keys, got %d", len(updated.Images))
	}
	if len(objects.objects) != 2 {
		t.Fatalf("expected two stored objects, got %d", len(objects.objects))
	}
	if len(repo.properties[created.ID].Images) != 2 {
		t.Fatalf("expected image keys to be persisted")
	}
}

func TestPropertyAddImagesRejectsUnsupportedType(t *testing.T) {
	service, _, objects := newTestPropertyService()
	ctx := context.Background()

	created, err := service.Create(ctx, types.Property{Title: "Riverside flat", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = service.AddImages(ctx, created.ID, []ImageUpload{
		upload("jpeg-bytes", "image/jpeg"),
		upload("exe-bytes", "application/octet-stream"),
	})
	if !errors.Is(err, storage.ErrUnsupportedImageType) {
		t.Fatalf("expected ErrUnsupportedImageType, got %v", err)
	}
	// The already-stored object from the same batch is rolled back.
	if len(objects.objects) != 0 {
		t.Fatalf("expected stored objects to be rolled back, got %d", len(objects.objects))
	}
}

func TestPropertyAddImagesRollsBackOnPersistFailure(t *testing.T) {
	service, repo, objects := newTestPropertyService()
	ctx := context.Background()

	created, err := service.Create(ctx, types.Property{Title: "Riverside flat", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	repo.failSet = true
	if _, err := service.AddImages(ctx, created.ID, []ImageUpload{upload("jpeg-bytes", "image/jpeg")}); err == nil {
		t.Fatalf("expected persist failure to surface")
	}
	if len(objects.objects) != 0 {
		t.Fatalf("expected stored objects to be rolled back, got %d", len(objects.objects))
	}
}

func TestPropertyRemoveImage(t *testing.T) {
	service, _, objects := newTestPropertyService()
	ctx := context.Background()

	created, err := service.Create(ctx, types.Property{Title: "Riverside flat", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := service.AddImages(ctx, created.ID, []ImageUpload{upload("jpeg-bytes", "image/jpeg")})
	if err != nil {
		t.Fatalf("add images: %v", err)
	}
	key := updated.Images[0]

	if _, err := service.RemoveImage(ctx, created.ID, "missing.jpg"); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}

	after, err := service.RemoveImage(ctx, created.ID, key)
	if err != nil {
		t.Fatalf("remove image: %v", err)
	}
	if len(after.Images) != 0 {
		t.Fatalf("expected image list to be empty")
	}
	if len(objects.objects) != 0 {
		t.Fatalf("expected object to be deleted")
	}
}

func TestPropertyDeleteCleansUpImages(t *testing.T) {
	service, _, objects := newTestPropertyService()
	ctx := context.Background()

	created, err := service.Create(ctx, types.Property{Title: "Riverside flat", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.AddImages(ctx, created.ID, []ImageUpload{upload("jpeg-bytes", "image/jpeg")}); err != nil {
		t.Fatalf("add images: %v", err)
	}

	if err := service.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.Get(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if len(objects.objects) != 0 {
		t.Fatalf("expected stored objects to be removed")
	}
}

func TestPropertyOpenImage(t *testing.T) {
	service, _, _ := newTestPropertyService()
	ctx := context.Background()

	created, err := service.Create(ctx, types.Property{Title: "Riverside flat", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := service.AddImages(ctx, created.ID, []ImageUpload{upload("jpeg-bytes", "image/jpeg")})
	if err != nil {
		t.Fatalf("add images: %v", err)
	}

	reader, contentType, err := service.OpenImage(ctx, updated.Images[0])
	if err != nil {
		t.Fatalf("open image: %v", err)
	}
	defer reader.Close()
	if contentType != "image/jpeg" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("unexpected image payload %q", data)
	}
}
