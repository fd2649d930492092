package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/rag-chatbot/internal/api"
	chatbotapi "github.com/futig/rag-chatbot/internal/api/chatbot"
	"github.com/futig/rag-chatbot/internal/config"
	pkgLogger "github.com/futig/rag-chatbot/internal/pkg/logger"
	"github.com/futig/rag-chatbot/internal/telegram"
	"github.com/futig/rag-chatbot/internal/usecase/chatbot"
	"github.com/futig/rag-chatbot/internal/usecase/ingest"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Build wires the HTTP API
func Build() (*App, error) {
	ctx := context.Background()

	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	c, chatbotUC, err := buildChatbot(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	chatbotHandler := chatbotapi.NewHandler(chatbotUC, cfg.MaxRequestBytes)
	logger.Info("API handlers initialized")

	router := api.SetupRouter(api.RouterConfig{
		Version:        cfg.AppVersion,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, chatbotHandler, logger)
	logger.Info("HTTP router configured")

	// WriteTimeout leaves room for the request timeout middleware to answer first
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
		zap.String("llm_provider", c.generator.Name()),
		zap.String("vector_db", c.store.Name()),
	)

	return &App{
		server: server,
		db:     c.db,
		logger: logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot.
// The returned cleanup releases the database pool, if any.
func BuildTelegramBot() (telegram.Bot, func(), *zap.Logger, error) {
	ctx := context.Background()

	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.TelegramCfg.BotToken == "" {
		return nil, nil, nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required to run the bot")
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	c, chatbotUC, err := buildChatbot(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	bot, err := telegram.NewBot(&cfg.TelegramCfg, cfg.TopK, chatbotUC, logger)
	if err != nil {
		c.close()
		return nil, nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, c.close, logger, nil
}

// IngestJob loads the knowledge base into the configured vector store
type IngestJob struct {
	usecase  *ingest.Usecase
	dataPath string
	cleanup  func()
	logger   *zap.Logger
}

// BuildIngest wires the components needed by cmd/ingest.
// Command-line flags must be registered before it is called: config loading parses them.
func BuildIngest() (*IngestJob, error) {
	ctx := context.Background()

	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &IngestJob{
		usecase:  ingest.NewUsecase(c.embedder, c.store, ingest.Config{BatchSize: cfg.IngestBatchSize}, logger),
		dataPath: cfg.DataPath,
		cleanup:  c.close,
		logger:   logger,
	}, nil
}

// Run reads the data file and ingests it. An empty dataPath falls back to DATA_PATH,
// recreate drops the collection first.
func (j *IngestJob) Run(ctx context.Context, dataPath string, recreate bool) (*ingest.Result, error) {
	defer j.cleanup()

	if dataPath == "" {
		dataPath = j.dataPath
	}
	if dataPath == "" {
		return nil, fmt.Errorf("no knowledge base file: set DATA_PATH or pass -data")
	}

	items, err := ingest.LoadItems(dataPath)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	j.logger.Info("Knowledge base loaded",
		zap.String("path", dataPath),
		zap.Int("items", len(items)),
		zap.Bool("recreate", recreate),
	)

	return j.usecase.Run(ctxWithLogger(ctx, j.logger, "Ingest"), items, recreate)
}

// Logger returns the job logger
func (j *IngestJob) Logger() *zap.Logger {
	return j.logger
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	return cfg, logger, nil
}

// buildChatbot connects the adapters, bootstraps the collection and creates the orchestrator
func buildChatbot(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, *chatbot.Usecase, error) {
	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := bootstrapCollection(ctx, cfg, c, logger); err != nil {
		c.close()
		return nil, nil, err
	}

	chatbotUC := chatbot.NewUsecase(c.embedder, c.store, c.generator, chatbot.Config{
		TopK:                cfg.TopK,
		MaxTopK:             cfg.MaxTopK,
		MaxTokens:           cfg.LLMCfg.MaxTokens,
		Temperature:         cfg.LLMCfg.Temperature,
		SimilarityThreshold: cfg.SimilarityThreshold,
		CollectionName:      cfg.CollectionName,
		StatsCacheTTL:       cfg.StatsCacheTTL,
	}, logger)
	logger.Info("Use cases initialized")

	return c, chatbotUC, nil
}

func ctxWithLogger(ctx context.Context, logger *zap.Logger, action string) context.Context {
	return pkgLogger.WithAction(ctxzap.ToContext(ctx, logger), action)
}
