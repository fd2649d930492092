package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/futig/rag-chatbot/internal/entity"
	pkgRetry "github.com/futig/rag-chatbot/internal/pkg/retry"
	"github.com/futig/rag-chatbot/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBot struct {
	mu        sync.Mutex
	sent      []string
	actions   int
	failSends int
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends > 0 {
		f.failSends--
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeChatbot struct {
	answer *entity.Answer
	err    error
	got    *entity.Query
	calls  int
}

func (f *fakeChatbot) AnswerQuery(_ context.Context, q *entity.Query) (*entity.Answer, error) {
	f.calls++
	f.got = q
	return f.answer, f.err
}

func (f *fakeChatbot) DefaultTopK() int { return 5 }

func newTestHandler(bot *fakeBot, uc *fakeChatbot, topK int) *QuestionHandler {
	retryCfg := pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: time.Millisecond}
	sender := NewMessageSender(bot, retryCfg, zap.NewNop())
	return NewQuestionHandler(bot, sender, uc, topK, zap.NewNop())
}

func TestQuestionHandler_AnswersWithSources(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeChatbot{answer: &entity.Answer{
		Answer:   "The capital of France is Paris.",
		Question: "What is the capital of France?",
		Sources: []entity.Source{
			{ID: "p1", Score: 0.91, Metadata: map[string]any{"source": "data.json"}},
		},
	}}

	h := newTestHandler(bot, uc, 0)
	err := h.Handle(context.Background(), &Message{ChatID: 10, UserID: 20, Text: "  What is the capital of France? "})
	require.NoError(t, err)

	require.NotNil(t, uc.got)
	assert.Equal(t, "What is the capital of France?", uc.got.Question)
	assert.Equal(t, 5, uc.got.TopK)

	msgs := bot.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "The capital of France is Paris.")
	assert.Contains(t, msgs[0], "data.json")
	assert.GreaterOrEqual(t, bot.actions, 1)
}

func TestQuestionHandler_UsesConfiguredTopK(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeChatbot{answer: &entity.Answer{Answer: "ok"}}

	h := newTestHandler(bot, uc, 3)
	require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 1, Text: "question"}))
	assert.Equal(t, 3, uc.got.TopK)
}

func TestQuestionHandler_EmptyText(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeChatbot{}

	h := newTestHandler(bot, uc, 0)
	require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 1, Text: "   "}))

	assert.Zero(t, uc.calls)
	assert.Equal(t, []string{render.MsgEmptyQuestion}, bot.messages())
}

func TestQuestionHandler_MapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rate limited",
			err:  fmt.Errorf("%w: huggingface: %w", entity.ErrGeneration, entity.ErrUpstreamRateLimited),
			want: render.ErrQuotaExceeded,
		},
		{
			name: "retrieval down",
			err:  fmt.Errorf("%w: qdrant: boom", entity.ErrRetrieval),
			want: render.ErrServiceUnavailable,
		},
		{
			name: "timeout",
			err:  fmt.Errorf("%w: %w", entity.ErrEmbedding, context.DeadlineExceeded),
			want: render.ErrTimeout,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: render.ErrGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &fakeBot{}
			h := newTestHandler(bot, &fakeChatbot{err: tt.err}, 0)

			require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 1, Text: "q"}))
			assert.Equal(t, []string{tt.want}, bot.messages())
		})
	}
}

func TestMessageSender_SendWithRetry(t *testing.T) {
	bot := &fakeBot{failSends: 2}
	sender := NewMessageSender(bot, pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: time.Millisecond}, zap.NewNop())

	require.NoError(t, sender.SendWithRetry(context.Background(), 1, "hello"))
	assert.Equal(t, []string{"hello"}, bot.messages())
}

func TestMessageSender_SendWithRetryGivesUp(t *testing.T) {
	bot := &fakeBot{failSends: 5}
	sender := NewMessageSender(bot, pkgRetry.RetryConfig{Attempts: 2, Delay: time.Millisecond, MaxDelay: time.Millisecond}, zap.NewNop())

	assert.Error(t, sender.SendWithRetry(context.Background(), 1, "hello"))
	assert.Empty(t, bot.messages())
}

func TestTypingNotifier_StopIsIdempotent(t *testing.T) {
	bot := &fakeBot{}
	n := NewTypingNotifier(bot, 1, zap.NewNop())
	n.interval = time.Millisecond

	n.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	n.Stop()
	n.Stop()

	bot.mu.Lock()
	defer bot.mu.Unlock()
	assert.GreaterOrEqual(t, bot.actions, 1)
}
