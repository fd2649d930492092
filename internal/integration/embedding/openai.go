package embedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/futig/rag-chatbot/internal/config"
	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/futig/rag-chatbot/internal/integration/common"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint (OpenAI, TEI, Ollama)
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	maxLength  int
	dimensions int
}

func NewOpenAIEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (*OpenAIEmbedder, error) {
	e := &OpenAIEmbedder{
		client:    common.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.HTTPClientConfig),
		model:     cfg.Model,
		maxLength: cfg.MaxLength,
	}

	vec, err := e.Embed(ctx, dimensionSample)
	if err != nil {
		return nil, fmt.Errorf("detect embedding dimensions: %w", err)
	}
	e.dimensions = len(vec)

	logger.Info("OpenAI-compatible embedder initialized",
		zap.String("model", cfg.Model),
		zap.String("base_url", cfg.BaseURL),
		zap.Int("dimensions", e.dimensions),
	)

	return e, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	input, err := prepareInput(text, e.maxLength)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{input},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		if common.OpenAIStatusCode(err) == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w: create embeddings: %w", entity.ErrEmbedding, entity.ErrUpstreamRateLimited, err)
		}
		return nil, fmt.Errorf("%w: create embeddings: %w", entity.ErrEmbedding, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: %w: no embeddings returned", entity.ErrEmbedding, entity.ErrMalformedResponse)
	}

	vec := resp.Data[0].Embedding
	if err := checkDimensions(vec, e.dimensions); err != nil {
		return nil, err
	}

	ctxzap.Debug(ctx, "text embedded",
		zap.Int("dimensions", len(vec)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
	)
	return vec, nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *OpenAIEmbedder) Model() string {
	return e.model
}
