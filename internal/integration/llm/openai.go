package llm

import (
	"context"
	"strings"
	"time"

	"github.com/futig/rag-chatbot/internal/config"
	"github.com/futig/rag-chatbot/internal/integration/common"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAICompatibleProvider talks to any /chat/completions endpoint
type OpenAICompatibleProvider struct {
	client       *openai.Client
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float32
}

func NewOpenAICompatibleProvider(cfg config.LLMConfig, logger *zap.Logger) *OpenAICompatibleProvider {
	logger.Info("OpenAI-compatible provider initialized",
		zap.String("model", cfg.OpenAI.Model),
		zap.String("base_url", cfg.OpenAI.BaseURL),
	)

	return &OpenAICompatibleProvider{
		client:       common.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.HTTP),
		model:        cfg.OpenAI.Model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  float32(cfg.Temperature),
	}
}

func (p *OpenAICompatibleProvider) Name() string {
	return config.ProviderOpenAICompatible
}

func (p *OpenAICompatibleProvider) Model() string {
	return p.model
}

func (p *OpenAICompatibleProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if p.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", wrapUpstreamError("chat completion", common.OpenAIStatusCode(err), err)
	}

	if len(resp.Choices) == 0 {
		return "", emptyGeneration("chat completion")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", emptyGeneration("chat completion")
	}

	ctxzap.Debug(ctx, "chat completion finished",
		zap.String("model", p.model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)),
	)

	return text, nil
}
