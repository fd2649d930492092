package handlers

import (
	"context"
	"fmt"

	pkgRetry "github.com/futig/rag-chatbot/internal/pkg/retry"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// MessageSender provides centralized message sending functionality
type MessageSender struct {
	bot    BotAPI
	retry  pkgRetry.RetryConfig
	logger *zap.Logger
}

// NewMessageSender creates a new MessageSender.
// retryCfg is only used by SendWithRetry.
func NewMessageSender(bot BotAPI, retryCfg pkgRetry.RetryConfig, logger *zap.Logger) *MessageSender {
	return &MessageSender{
		bot:    bot,
		retry:  retryCfg,
		logger: logger,
	}
}

// Send sends a message to the specified chat
func (s *MessageSender) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	_, err := s.bot.Send(msg)
	if err != nil {
		s.logger.Error("failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
		return err
	}

	return nil
}

// SendWithRetry sends a message, retrying transient failures. Used for answers.
func (s *MessageSender) SendWithRetry(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	err := s.retry.Do(ctx, func(context.Context) error {
		_, err := s.bot.Send(msg)
		return err
	}, func(n uint, err error) {
		s.logger.Warn("failed to send message, retrying",
			zap.Error(err),
			zap.Uint("attempt", n+1),
			zap.Int64("chat_id", chatID),
		)
	})
	if err != nil {
		s.logger.Error("failed to send message after retries",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}
