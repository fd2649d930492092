package telegram

import (
	"context"
	"fmt"

	"github.com/futig/rag-chatbot/internal/config"
	"github.com/futig/rag-chatbot/internal/telegram/bot"
	"github.com/futig/rag-chatbot/internal/telegram/handlers"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot on top of the chatbot usecase.
// Questions are asked with topK passages.
func NewBot(
	cfg *config.TelegramConfig,
	topK int,
	chatbotUC handlers.ChatbotUsecase,
	logger *zap.Logger,
) (Bot, error) {
	b, err := bot.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.SetQuestionHandler(handlers.NewQuestionHandler(b.API(), b.Sender(), chatbotUC, topK, logger))

	logger.Info("telegram bot initialized successfully")

	return b, nil
}
