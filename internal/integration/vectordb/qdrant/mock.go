package qdrant

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector keeps the collection in memory and scores with cosine similarity
type MockConnector struct {
	mu        sync.RWMutex
	points    map[string]entity.Point
	dim       int
	exists    bool
	threshold float32
	logger    *zap.Logger
}

func NewMockConnector(scoreThreshold float64, logger *zap.Logger) *MockConnector {
	return &MockConnector{
		points:    make(map[string]entity.Point),
		threshold: float32(scoreThreshold),
		logger:    logger,
	}
}

func (m *MockConnector) Name() string {
	return "mock"
}

func (m *MockConnector) Search(ctx context.Context, vector []float32, topK int) ([]entity.ContextPassage, error) {
	ctxzap.Info(ctx, "[MOCK] searching vector store", zap.Int("top_k", topK))

	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", entity.ErrValidation, topK)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.dim > 0 && len(vector) != m.dim {
		return nil, fmt.Errorf("%w: %w: vector has %d dimensions, collection expects %d",
			entity.ErrRetrieval, entity.ErrDimensionMismatch, len(vector), m.dim)
	}

	passages := make([]entity.ContextPassage, 0, len(m.points))
	for id, p := range m.points {
		score := cosine(vector, p.Vector)
		if score < m.threshold {
			continue
		}
		passages = append(passages, entity.PassageFromPayload(id, score, p.Payload))
	}

	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].Score == passages[j].Score {
			return passages[i].ID < passages[j].ID
		}
		return passages[i].Score > passages[j].Score
	})
	if len(passages) > topK {
		passages = passages[:topK]
	}

	ctxzap.Info(ctx, "[MOCK] search completed", zap.Int("hits", len(passages)))
	return passages, nil
}

func (m *MockConnector) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.points)), nil
}

func (m *MockConnector) EnsureCollection(ctx context.Context, dim int) (bool, error) {
	if dim < 1 {
		return false, fmt.Errorf("%w: vector size must be positive, got %d", entity.ErrValidation, dim)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exists {
		if m.dim != dim {
			return false, fmt.Errorf("%w: %w: collection has vector size %d, embedder produces %d",
				entity.ErrRetrieval, entity.ErrDimensionMismatch, m.dim, dim)
		}
		return false, nil
	}

	ctxzap.Info(ctx, "[MOCK] creating collection", zap.Int("vector_size", dim))
	m.exists = true
	m.dim = dim
	return true, nil
}

func (m *MockConnector) Upsert(ctx context.Context, points []entity.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range points {
		m.points[p.ID] = p
	}

	ctxzap.Info(ctx, "[MOCK] points upserted", zap.Int("count", len(points)))
	return nil
}

func (m *MockConnector) DeleteCollection(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.points = make(map[string]entity.Point)
	m.exists = false
	m.dim = 0
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
