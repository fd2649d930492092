package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/rag-chatbot/internal/config"
	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/futig/rag-chatbot/internal/integration/embedding"
	"github.com/futig/rag-chatbot/internal/integration/llm"
	"github.com/futig/rag-chatbot/internal/integration/vectordb/qdrant"
	pkgRetry "github.com/futig/rag-chatbot/internal/pkg/retry"
	"github.com/futig/rag-chatbot/internal/repository"
	"github.com/futig/rag-chatbot/internal/usecase/chatbot"
	"github.com/futig/rag-chatbot/internal/usecase/ingest"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type embedder interface {
	chatbot.Embedder
	ingest.Embedder
}

type vectorStore interface {
	chatbot.Searcher
	ingest.Store
}

// components are the adapters shared by every entry point
type components struct {
	embedder  embedder
	store     vectorStore
	generator chatbot.Generator
	db        *pgxpool.Pool
}

func (c *components) close() {
	if c.db != nil {
		c.db.Close()
	}
}

// buildComponents selects and connects the embedder, vector store and LLM client.
// The embedder dimension check and the database ping run under the startup retry policy.
func buildComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	c := &components{}

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		c.embedder = embedding.NewMockEmbedder(logger)
		c.store = qdrant.NewMockConnector(cfg.SimilarityThreshold, logger)
		c.generator = llm.NewMockProvider(logger)
		return c, nil
	}

	logger.Info("Using real connectors for external services",
		zap.String("embedding_provider", cfg.EmbeddingCfg.Provider),
		zap.String("vector_store", cfg.VectorStore),
		zap.String("llm_provider", cfg.LLMCfg.Provider),
	)

	err := cfg.StartupRetry.Do(ctx, func(ctx context.Context) error {
		var err error
		c.embedder, err = newEmbedder(ctx, cfg.EmbeddingCfg, logger)
		return err
	}, func(n uint, err error) {
		logger.Warn("embedding provider not ready, retrying",
			zap.Uint("attempt", n+1),
			zap.Error(err),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("setup embedder: %w", err)
	}

	switch cfg.VectorStore {
	case config.VectorStorePgvector:
		var db *pgxpool.Pool
		err := cfg.StartupRetry.Do(ctx, func(ctx context.Context) error {
			var err error
			db, err = setupDatabase(ctx, cfg, logger)
			return err
		}, func(n uint, err error) {
			logger.Warn("database not ready, retrying",
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		})
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}

		logger.Info("Running database migrations")
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		c.db = db
		c.store = repository.NewVectorPostgres(db, cfg.CollectionName, cfg.SimilarityThreshold)
	default:
		c.store = qdrant.NewConnector(cfg.QdrantCfg, cfg.CollectionName, cfg.SimilarityThreshold, logger)
	}

	switch cfg.LLMCfg.Provider {
	case config.ProviderOpenAICompatible:
		c.generator = llm.NewOpenAICompatibleProvider(cfg.LLMCfg, logger)
	default:
		c.generator = llm.NewHuggingFaceProvider(cfg.LLMCfg, logger)
	}

	return c, nil
}

func newEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (embedder, error) {
	if cfg.Provider == config.ProviderOpenAICompatible {
		return embedding.NewOpenAIEmbedder(ctx, cfg, logger)
	}
	return embedding.NewHuggingFaceEmbedder(ctx, cfg, logger)
}

// bootstrapCollection creates the collection when missing and seeds it from DATA_PATH
func bootstrapCollection(ctx context.Context, cfg *config.Config, c *components, logger *zap.Logger) error {
	var created bool
	err := cfg.StartupRetry.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = c.store.EnsureCollection(ctx, c.embedder.Dimensions())
		// a wrong vector size will not fix itself
		if errors.Is(err, entity.ErrValidation) || errors.Is(err, entity.ErrDimensionMismatch) {
			return pkgRetry.Unrecoverable(err)
		}
		return err
	}, func(n uint, err error) {
		logger.Warn("vector store not ready, retrying",
			zap.String("vector_db", c.store.Name()),
			zap.Uint("attempt", n+1),
			zap.Error(err),
		)
	})
	if err != nil {
		return fmt.Errorf("ensure collection %q: %w", cfg.CollectionName, err)
	}

	if !created {
		logger.Info("Collection ready", zap.String("collection", cfg.CollectionName))
		return nil
	}

	if cfg.DataPath == "" {
		logger.Warn("Collection created empty, DATA_PATH is not set",
			zap.String("collection", cfg.CollectionName),
		)
		return nil
	}

	items, err := ingest.LoadItems(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}

	ingestUC := ingest.NewUsecase(c.embedder, c.store, ingest.Config{BatchSize: cfg.IngestBatchSize}, logger)
	res, err := ingestUC.Ingest(ctxWithLogger(ctx, logger, "SeedCollection"), items)
	if err != nil {
		return fmt.Errorf("seed collection: %w", err)
	}

	logger.Info("Collection seeded",
		zap.String("collection", cfg.CollectionName),
		zap.Int("ingested", res.Ingested),
		zap.Int("skipped", res.Skipped),
	)
	return nil
}
