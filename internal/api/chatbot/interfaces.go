package chatbot

import (
	"context"

	"github.com/futig/rag-chatbot/internal/entity"
)

type ChatbotUsecase interface {
	AnswerQuery(ctx context.Context, q *entity.Query) (*entity.Answer, error)
	Stats(ctx context.Context) *entity.Stats
	Settings() *entity.Settings
	DefaultTopK() int
}
