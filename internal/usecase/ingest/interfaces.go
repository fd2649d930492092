package ingest

import (
	"context"

	"github.com/futig/rag-chatbot/internal/entity"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

type Store interface {
	EnsureCollection(ctx context.Context, dim int) (bool, error)
	Upsert(ctx context.Context, points []entity.Point) error
	DeleteCollection(ctx context.Context) error
}
