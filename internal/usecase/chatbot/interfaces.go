package chatbot

import (
	"context"

	"github.com/futig/rag-chatbot/internal/entity"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]entity.ContextPassage, error)
	Count(ctx context.Context) (int64, error)
	Name() string
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
	Model() string
}
