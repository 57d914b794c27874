package media

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	blobrepo "storefront/internal/repository/blob"
)

type memoryRepo struct {
	objects map[string]blobrepo.Object
}

func (r *memoryRepo) Put(_ context.Context, contentType string, data []byte) (string, error) {
	id := "b1"
	r.objects[id] = blobrepo.Object{ID: id, ContentType: contentType, Data: data}
	return id, nil
}

func (r *memoryRepo) Get(_ context.Context, id string) (*blobrepo.Object, error) {
	o, ok := r.objects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.objects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.objects, id)
	return nil
}

func TestUploadBuildsURLAndSniffsType(t *testing.T) {
	repo := &memoryRepo{objects: map[string]blobrepo.Object{}}
	svc := New(repo, "http://files.test/")
	img, err := svc.Upload(context.Background(), "", []byte("\x89PNG\r\n\x1a\n0000"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if img.ID != "b1" || img.URL != "http://files.test/blobs/b1" {
		t.Fatalf("unexpected image %+v", img)
	}
	if repo.objects["b1"].ContentType != "image/png" {
		t.Fatalf("expected sniffed png, got %q", repo.objects["b1"].ContentType)
	}
}

func TestUploadRejectsEmpty(t *testing.T) {
	svc := New(&memoryRepo{objects: map[string]blobrepo.Object{}}, "")
	if _, err := svc.Upload(context.Background(), "image/png", nil); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteRemovesObject(t *testing.T) {
	repo := &memoryRepo{objects: map[string]blobrepo.Object{}}
	svc := New(repo, "")
	img, err := svc.Upload(context.Background(), "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := svc.Delete(context.Background(), img.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), img.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), img.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
