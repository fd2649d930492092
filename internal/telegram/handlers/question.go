package handlers

import (
	"context"
	"strings"

	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/futig/rag-chatbot/internal/pkg/logger"
	"github.com/futig/rag-chatbot/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// QuestionHandler answers every plain text message through the chatbot pipeline
type QuestionHandler struct {
	BaseHandler
	bot       BotAPI
	chatbotUC ChatbotUsecase
	topK      int
	logger    *zap.Logger
}

// NewQuestionHandler creates a handler that asks with topK passages per question.
// A non-positive topK falls back to the usecase default.
func NewQuestionHandler(bot BotAPI, sender *MessageSender, chatbotUC ChatbotUsecase, topK int, logger *zap.Logger) *QuestionHandler {
	if topK <= 0 {
		topK = chatbotUC.DefaultTopK()
	}
	return &QuestionHandler{
		BaseHandler: BaseHandler{messageSender: sender},
		bot:         bot,
		chatbotUC:   chatbotUC,
		topK:        topK,
		logger:      logger,
	}
}

// Handle implements Handler
func (h *QuestionHandler) Handle(ctx context.Context, msg *Message) error {
	ctx = logger.WithAction(ctx, "TelegramQuestion")
	ctx = logger.AddFields(ctx,
		zap.Int64("chat_id", msg.ChatID),
		zap.Int64("user_id", msg.UserID),
	)

	question := strings.TrimSpace(msg.Text)
	if question == "" {
		h.sendMessage(msg.ChatID, render.MsgEmptyQuestion)
		return nil
	}

	typing := NewTypingNotifier(h.bot, msg.ChatID, h.logger)
	typing.Start(ctx)
	answer, err := h.chatbotUC.AnswerQuery(ctx, &entity.Query{
		Question: question,
		TopK:     h.topK,
	})
	typing.Stop()

	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	ctxzap.Info(ctx, "question answered",
		zap.Int("passages", answer.Stats.Passages),
		zap.Int64("total_ms", answer.Stats.TotalMs),
	)

	if h.messageSender == nil {
		return nil
	}
	return h.messageSender.SendWithRetry(ctx, msg.ChatID, render.RenderAnswer(answer))
}
