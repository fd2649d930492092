package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockDimensions = 384

// MockEmbedder hashes lowercase tokens into a fixed-size unit vector, so texts
// sharing words land close together without any model.
type MockEmbedder struct {
	logger *zap.Logger
}

func NewMockEmbedder(logger *zap.Logger) *MockEmbedder {
	return &MockEmbedder{logger: logger}
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	input, err := prepareInput(text, 0)
	if err != nil {
		return nil, err
	}

	ctxzap.Debug(ctx, "[MOCK] embedding text", zap.Int("length", len(input)))

	vec := make([]float32, mockDimensions)
	tokens := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%mockDimensions] += 1
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}

	return vec, nil
}

func (m *MockEmbedder) Dimensions() int {
	return mockDimensions
}

func (m *MockEmbedder) Model() string {
	return "mock-embedding"
}
