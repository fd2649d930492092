package handlers

import (
	"context"

	"github.com/futig/rag-chatbot/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the part of *tgbotapi.BotAPI the handlers talk to
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ChatbotUsecase answers questions coming from the chat
type ChatbotUsecase interface {
	AnswerQuery(ctx context.Context, q *entity.Query) (*entity.Answer, error)
	DefaultTopK() int
}

// Message represents a normalized Telegram message
type Message struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
}

// Handler processes plain (non-command) messages
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	messageSender *MessageSender
}

// sendMessage is a convenience wrapper for messageSender.Send
func (h *BaseHandler) sendMessage(chatID int64, text string) {
	if h.messageSender != nil {
		_ = h.messageSender.Send(chatID, text)
	}
}
