package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/futig/rag-chatbot/internal/config"
	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/futig/rag-chatbot/internal/integration/common"
	pkghttp "github.com/futig/rag-chatbot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const distanceCosine = "Cosine"

// Connector talks to the Qdrant REST API for a single collection
type Connector struct {
	connector  *pkghttp.Connector
	collection string
	threshold  float32
	dimensions atomic.Int64
}

func NewConnector(
	cfg config.QdrantConfig,
	collection string,
	scoreThreshold float64,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, cfg.URL, logger,
			pkghttp.WithAuthHeader("api-key", cfg.APIKey),
		),
		collection: collection,
		threshold:  float32(scoreThreshold),
	}
}

func (c *Connector) Name() string {
	return config.VectorStoreQdrant
}

func (c *Connector) Collection() string {
	return c.collection
}

func (c *Connector) collectionPath() string {
	return "/collections/" + url.PathEscape(c.collection)
}

// Search returns up to topK passages ordered by descending similarity
func (c *Connector) Search(ctx context.Context, vector []float32, topK int) ([]entity.ContextPassage, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", entity.ErrValidation, topK)
	}
	if dim := int(c.dimensions.Load()); dim > 0 && len(vector) != dim {
		return nil, fmt.Errorf("%w: %w: vector has %d dimensions, collection expects %d",
			entity.ErrRetrieval, entity.ErrDimensionMismatch, len(vector), dim)
	}

	req := searchRequest{
		Vector:      vector,
		Limit:       topK,
		WithPayload: true,
	}
	if c.threshold > 0 {
		req.ScoreThreshold = &c.threshold
	}

	var resp searchResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, c.collectionPath()+"/points/search", req, &resp)
	if err != nil {
		return nil, c.wrapError("search", err)
	}

	passages := make([]entity.ContextPassage, 0, len(resp.Result))
	for _, p := range resp.Result {
		passages = append(passages, entity.PassageFromPayload(string(p.ID), p.Score, p.Payload))
	}

	ctxzap.Debug(ctx, "qdrant search completed",
		zap.Int("top_k", topK),
		zap.Int("hits", len(passages)),
	)

	return passages, nil
}

// Count returns the number of points stored in the collection
func (c *Connector) Count(ctx context.Context) (int64, error) {
	info, err := c.describe(ctx)
	if err != nil {
		return 0, err
	}
	if info.Result.PointsCount == nil {
		return 0, nil
	}
	return *info.Result.PointsCount, nil
}

// EnsureCollection creates the collection with cosine distance when it is missing.
// created reports whether a new collection was made.
func (c *Connector) EnsureCollection(ctx context.Context, dim int) (bool, error) {
	if dim < 1 {
		return false, fmt.Errorf("%w: vector size must be positive, got %d", entity.ErrValidation, dim)
	}

	info, err := c.describe(ctx)
	switch {
	case err == nil:
		existing := info.Result.Config.Params.Vectors.Size
		if existing != 0 && existing != dim {
			return false, fmt.Errorf("%w: %w: collection %q has vector size %d, embedder produces %d",
				entity.ErrRetrieval, entity.ErrDimensionMismatch, c.collection, existing, dim)
		}
		c.dimensions.Store(int64(dim))
		return false, nil
	case !errors.Is(err, entity.ErrCollectionNotFound):
		return false, err
	}

	ctxzap.Info(ctx, "creating qdrant collection",
		zap.String("collection", c.collection),
		zap.Int("vector_size", dim),
	)

	req := createCollectionRequest{Vectors: vectorParams{Size: dim, Distance: distanceCosine}}
	if err := c.connector.DoRequest(ctx, http.MethodPut, c.collectionPath(), req, &statusResponse{}); err != nil {
		return false, c.wrapError("create collection", err)
	}

	c.dimensions.Store(int64(dim))
	return true, nil
}

// Upsert writes points and waits until they are indexed
func (c *Connector) Upsert(ctx context.Context, points []entity.Point) error {
	if len(points) == 0 {
		return nil
	}

	req := upsertRequest{Points: make([]upsertPoint, 0, len(points))}
	for _, p := range points {
		req.Points = append(req.Points, upsertPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
	}

	err := c.connector.DoRequest(ctx, http.MethodPut, c.collectionPath()+"/points", req, &statusResponse{},
		pkghttp.WithQueryParam("wait", "true"),
	)
	if err != nil {
		return c.wrapError("upsert points", err)
	}

	ctxzap.Debug(ctx, "points upserted", zap.Int("count", len(points)))
	return nil
}

// DeleteCollection drops the collection; a missing collection is not an error
func (c *Connector) DeleteCollection(ctx context.Context) error {
	err := c.connector.DoRequest(ctx, http.MethodDelete, c.collectionPath(), nil, &statusResponse{})
	if err != nil {
		if pkghttp.StatusCode(err) == http.StatusNotFound {
			return nil
		}
		return c.wrapError("delete collection", err)
	}

	c.dimensions.Store(0)
	ctxzap.Info(ctx, "qdrant collection deleted", zap.String("collection", c.collection))
	return nil
}

func (c *Connector) describe(ctx context.Context) (*collectionInfoResponse, error) {
	var resp collectionInfoResponse
	if err := c.connector.DoRequest(ctx, http.MethodGet, c.collectionPath(), nil, &resp); err != nil {
		return nil, c.wrapError("describe collection", err)
	}
	return &resp, nil
}

func (c *Connector) wrapError(op string, err error) error {
	var decodeErr *pkghttp.DecodeError
	switch {
	case pkghttp.StatusCode(err) == http.StatusNotFound:
		return fmt.Errorf("%w: qdrant %s: %w: %w", entity.ErrRetrieval, op, entity.ErrCollectionNotFound, err)
	case errors.As(err, &decodeErr):
		return fmt.Errorf("%w: qdrant %s: %w: %w", entity.ErrRetrieval, op, entity.ErrMalformedResponse, err)
	default:
		return fmt.Errorf("%w: qdrant %s: %w", entity.ErrRetrieval, op, err)
	}
}
