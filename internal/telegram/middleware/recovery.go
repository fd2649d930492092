package middleware

import (
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// RecoveryMiddleware recovers from panics
type RecoveryMiddleware struct {
	logger *zap.Logger
	notify func(chatID int64)
}

// NewRecoveryMiddleware creates a new recovery middleware.
// notify is called with the chat of the update that panicked.
func NewRecoveryMiddleware(logger *zap.Logger, notify func(chatID int64)) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		logger: logger,
		notify: notify,
	}
}

// Handle recovers from panics
func (m *RecoveryMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic recovered in telegram handler",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
				zap.Int("update_id", update.UpdateID),
			)

			if update.Message != nil && m.notify != nil {
				m.notify(update.Message.Chat.ID)
			}
		}
	}()

	next(update)
}
