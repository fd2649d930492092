package chatbot

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/futig/rag-chatbot/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const totalDocumentsKey = "total_documents"

type Config struct {
	TopK                int
	MaxTopK             int
	MaxTokens           int
	Temperature         float64
	SimilarityThreshold float64
	CollectionName      string
	StatsCacheTTL       time.Duration
}

type Usecase struct {
	embedder  Embedder
	searcher  Searcher
	generator Generator
	cfg       Config

	served     atomic.Int64
	statsCache *cache.Cache
	logger     *zap.Logger
}

func NewUsecase(
	embedder Embedder,
	searcher Searcher,
	generator Generator,
	cfg Config,
	logger *zap.Logger,
) *Usecase {
	ttl := cfg.StatsCacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	return &Usecase{
		embedder:   embedder,
		searcher:   searcher,
		generator:  generator,
		cfg:        cfg,
		statsCache: cache.New(ttl, 2*ttl),
		logger:     logger,
	}
}

// DefaultTopK is used when a caller does not pick one
func (u *Usecase) DefaultTopK() int {
	return u.cfg.TopK
}

// AnswerQuery runs embed, search, prompt and generate strictly in sequence.
// Any step failing aborts the query; nothing is retried.
func (u *Usecase) AnswerQuery(ctx context.Context, q *entity.Query) (*entity.Answer, error) {
	question, err := u.validate(q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctxzap.Info(ctx, "answering query",
		zap.Int("top_k", q.TopK),
		zap.Int("question_length", len(question)),
	)

	vector, err := u.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	embeddedAt := time.Now()
	logger.Stage(ctx, "embedding", start, zap.String("model", u.embedder.Model()))

	passages, err := u.searcher.Search(ctx, vector, q.TopK)
	if err != nil {
		return nil, fmt.Errorf("search context: %w", err)
	}
	retrievedAt := time.Now()
	logger.Stage(ctx, "retrieval", embeddedAt, zap.Int("passages", len(passages)))

	prompt := BuildPrompt(question, passages)

	text, err := u.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %w: blank answer", entity.ErrGeneration, entity.ErrMalformedResponse)
	}
	generatedAt := time.Now()
	logger.Stage(ctx, "generation", retrievedAt, zap.String("model", u.generator.Model()))

	sources := make([]entity.Source, 0, len(passages))
	for _, p := range passages {
		sources = append(sources, entity.Source{
			ID:       p.ID,
			Score:    p.Score,
			Metadata: p.Metadata,
		})
	}

	answer := &entity.Answer{
		Answer:   text,
		Question: question,
		Sources:  sources,
		Stats: entity.QueryStats{
			Passages:     len(passages),
			EmbeddingMs:  embeddedAt.Sub(start).Milliseconds(),
			RetrievalMs:  retrievedAt.Sub(embeddedAt).Milliseconds(),
			GenerationMs: generatedAt.Sub(retrievedAt).Milliseconds(),
			TotalMs:      generatedAt.Sub(start).Milliseconds(),
		},
	}

	u.served.Add(1)

	ctxzap.Info(ctx, "query answered",
		zap.Int("passages", len(passages)),
		zap.Int64("total_ms", answer.Stats.TotalMs),
	)

	return answer, nil
}

func (u *Usecase) validate(q *entity.Query) (string, error) {
	if q == nil {
		return "", fmt.Errorf("%w: query is required", entity.ErrValidation)
	}

	question := strings.TrimSpace(q.Question)
	if question == "" {
		return "", fmt.Errorf("%w: question must not be empty", entity.ErrValidation)
	}

	if q.TopK < 1 || q.TopK > u.cfg.MaxTopK {
		return "", fmt.Errorf("%w: top_k must be between 1 and %d, got %d", entity.ErrValidation, u.cfg.MaxTopK, q.TopK)
	}

	return question, nil
}

// Stats reports counters and the collection size. A failing count is logged
// and reported as unknown rather than failing the call.
func (u *Usecase) Stats(ctx context.Context) *entity.Stats {
	stats := &entity.Stats{
		QueriesServed:  u.served.Load(),
		LLMProvider:    u.generator.Name(),
		Model:          u.generator.Model(),
		EmbeddingModel: u.embedder.Model(),
		VectorDB:       u.searcher.Name(),
		Collection:     u.cfg.CollectionName,
		MaxTokens:      u.cfg.MaxTokens,
		DefaultTopK:    u.cfg.TopK,
	}

	if cached, ok := u.statsCache.Get(totalDocumentsKey); ok {
		total := cached.(int64)
		stats.TotalDocuments = &total
		return stats
	}

	total, err := u.searcher.Count(ctx)
	if err != nil {
		ctxzap.Warn(ctx, "failed to count documents", zap.Error(err))
		return stats
	}

	u.statsCache.SetDefault(totalDocumentsKey, total)
	stats.TotalDocuments = &total

	return stats
}

func (u *Usecase) Settings() *entity.Settings {
	return &entity.Settings{
		TopK:                u.cfg.TopK,
		MaxTopK:             u.cfg.MaxTopK,
		MaxTokens:           u.cfg.MaxTokens,
		Temperature:         u.cfg.Temperature,
		SimilarityThreshold: u.cfg.SimilarityThreshold,
		LLMProvider:         u.generator.Name(),
		Model:               u.generator.Model(),
		EmbeddingModel:      u.embedder.Model(),
		CollectionName:      u.cfg.CollectionName,
	}
}
