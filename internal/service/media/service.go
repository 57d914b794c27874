package media

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain"
	blobrepo "storefront/internal/repository/blob"
)

// MaxUploadBytes bounds a single uploaded image.
const MaxUploadBytes = 8 << 20

// Service stores uploaded product images and builds their public URLs.
type Service struct {
	repo    blobrepo.Repository
	baseURL string
}

// New creates a Service. baseURL prefixes direct blob links and may be empty,
// in which case links are host-relative.
func New(repo blobrepo.Repository, baseURL string) *Service {
	return &Service{repo: repo, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Service) Upload(ctx context.Context, contentType string, data []byte) (domain.Image, error) {
	if len(data) == 0 {
		return domain.Image{}, domain.Invalid("image", "image is empty")
	}
	if len(data) > MaxUploadBytes {
		return domain.Image{}, domain.Invalid("image", "image too large")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	id, err := s.repo.Put(ctx, contentType, data)
	if err != nil {
		return domain.Image{}, err
	}
	return domain.Image{ID: id, URL: s.URL(id)}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*blobrepo.Object, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes an uploaded image that no product ended up referencing.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) URL(id string) string {
	return s.baseURL + "/blobs/" + id
}
