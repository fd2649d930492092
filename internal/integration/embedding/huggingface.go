package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/futig/rag-chatbot/internal/config"
	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/futig/rag-chatbot/internal/integration/common"
	pkghttp "github.com/futig/rag-chatbot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/hupe1980/go-huggingface"
	"go.uber.org/zap"
)

// HuggingFaceEmbedder uses the Inference API feature-extraction pipeline
type HuggingFaceEmbedder struct {
	client     *huggingface.InferenceClient
	model      string
	maxLength  int
	dimensions int
}

func NewHuggingFaceEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (*HuggingFaceEmbedder, error) {
	httpClient := common.NewHTTPClient(cfg.HTTPClientConfig, pkghttp.WithStatusRecording())

	client := huggingface.NewInferenceClient(cfg.APIKey, func(o *huggingface.InferenceClientOptions) {
		if cfg.BaseURL != "" {
			o.InferenceEndpoint = strings.TrimRight(cfg.BaseURL, "/")
		}
		o.HTTPClient = httpClient
	})
	client.SetModel(cfg.Model)

	e := &HuggingFaceEmbedder{
		client:    client,
		model:     cfg.Model,
		maxLength: cfg.MaxLength,
	}

	vec, err := e.embed(ctx, dimensionSample)
	if err != nil {
		return nil, fmt.Errorf("detect embedding dimensions: %w", err)
	}
	e.dimensions = len(vec)

	logger.Info("HuggingFace embedder initialized",
		zap.String("model", cfg.Model),
		zap.Int("dimensions", e.dimensions),
	)

	return e, nil
}

func (e *HuggingFaceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text)
}

func (e *HuggingFaceEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	input, err := prepareInput(text, e.maxLength)
	if err != nil {
		return nil, err
	}

	ctx, status := pkghttp.WithStatusCapture(ctx)
	resp, err := e.client.FeatureExtractionWithAutomaticReduction(ctx, &huggingface.FeatureExtractionRequest{
		Inputs: []string{input},
		Options: huggingface.Options{
			WaitForModel: huggingface.PTR(true),
			UseCache:     huggingface.PTR(true),
		},
	})
	if err != nil {
		if status.Code() == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w: huggingface feature extraction: %w", entity.ErrEmbedding, entity.ErrUpstreamRateLimited, err)
		}
		return nil, fmt.Errorf("%w: huggingface feature extraction: %w", entity.ErrEmbedding, err)
	}

	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: %w: no embeddings returned", entity.ErrEmbedding, entity.ErrMalformedResponse)
	}

	vec := resp[0]
	if err := checkDimensions(vec, e.dimensions); err != nil {
		return nil, err
	}

	ctxzap.Debug(ctx, "text embedded", zap.Int("dimensions", len(vec)))
	return vec, nil
}

func (e *HuggingFaceEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *HuggingFaceEmbedder) Model() string {
	return e.model
}
