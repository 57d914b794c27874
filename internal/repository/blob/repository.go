package blob

import (
	"context"
)

type Object struct {
	ID          string
	ContentType string
	Data        []byte
}

type Repository interface {
	Put(ctx context.Context, contentType string, data []byte) (string, error)
	Get(ctx context.Context, id string) (*Object, error)
	Delete(ctx context.Context, id string) error
}
