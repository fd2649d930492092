package handlers

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram typing action expires after 5 seconds, so we send every 4 seconds
const typingInterval = 4 * time.Second

// TypingNotifier sends periodic "typing" actions to show bot activity
type TypingNotifier struct {
	bot      BotAPI
	chatID   int64
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
	started  bool
}

// NewTypingNotifier creates a new typing indicator
func NewTypingNotifier(bot BotAPI, chatID int64, logger *zap.Logger) *TypingNotifier {
	return &TypingNotifier{
		bot:      bot,
		chatID:   chatID,
		interval: typingInterval,
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// Start sends a typing action right away and then every interval until Stop or ctx is done
func (t *TypingNotifier) Start(ctx context.Context) {
	if t.started {
		return
	}
	t.started = true

	t.sendAction("failed to send initial typing action")

	ticker := time.NewTicker(t.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.sendAction("failed to send typing action")
			case <-t.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops sending typing indicators
func (t *TypingNotifier) Stop() {
	if !t.started {
		return
	}
	t.stopOnce.Do(func() { close(t.done) })
}

func (t *TypingNotifier) sendAction(failureMsg string) {
	action := tgbotapi.NewChatAction(t.chatID, tgbotapi.ChatTyping)
	if _, err := t.bot.Request(action); err != nil {
		t.logger.Warn(failureMsg,
			zap.Error(err),
			zap.Int64("chat_id", t.chatID),
		)
	}
}
