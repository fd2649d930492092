package llm

import (
	"context"
	"strings"
	"time"

	"github.com/futig/rag-chatbot/internal/config"
	"github.com/futig/rag-chatbot/internal/integration/common"
	pkghttp "github.com/futig/rag-chatbot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/hupe1980/go-huggingface"
	"go.uber.org/zap"
)

// HuggingFaceProvider generates text with the Inference API text-generation task
type HuggingFaceProvider struct {
	client       *huggingface.InferenceClient
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float64
}

func NewHuggingFaceProvider(cfg config.LLMConfig, logger *zap.Logger) *HuggingFaceProvider {
	httpClient := common.NewHTTPClient(cfg.HTTP, pkghttp.WithStatusRecording())

	client := huggingface.NewInferenceClient(cfg.HuggingFace.APIKey, func(o *huggingface.InferenceClientOptions) {
		if cfg.HuggingFace.Endpoint != "" {
			o.InferenceEndpoint = strings.TrimRight(cfg.HuggingFace.Endpoint, "/")
		}
		o.HTTPClient = httpClient
	})
	client.SetModel(cfg.HuggingFace.Model)

	logger.Info("HuggingFace provider initialized",
		zap.String("model", cfg.HuggingFace.Model),
		zap.Bool("custom_endpoint", cfg.HuggingFace.Endpoint != ""),
	)

	return &HuggingFaceProvider{
		client:       client,
		model:        cfg.HuggingFace.Model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
	}
}

func (p *HuggingFaceProvider) Name() string {
	return config.ProviderHuggingFace
}

func (p *HuggingFaceProvider) Model() string {
	return p.model
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}

	inputs := prompt
	if p.systemPrompt != "" {
		inputs = p.systemPrompt + "\n\n" + prompt
	}

	params := huggingface.TextGenerationParameters{
		MaxNewTokens:   huggingface.PTR(p.maxTokens),
		ReturnFullText: huggingface.PTR(false),
	}
	// the text-generation task rejects a temperature of exactly zero
	if p.temperature > 0 {
		params.Temperature = huggingface.PTR(p.temperature)
	}

	start := time.Now()
	ctx, status := pkghttp.WithStatusCapture(ctx)
	resp, err := p.client.TextGeneration(ctx, &huggingface.TextGenerationRequest{
		Inputs:     inputs,
		Parameters: params,
		Options: huggingface.Options{
			WaitForModel: huggingface.PTR(true),
		},
	})
	if err != nil {
		return "", wrapUpstreamError("huggingface text generation", status.Code(), err)
	}

	if len(resp) == 0 {
		return "", emptyGeneration("huggingface")
	}

	text := strings.TrimSpace(resp[0].GeneratedText)
	if text == "" {
		return "", emptyGeneration("huggingface")
	}

	ctxzap.Debug(ctx, "huggingface generation completed",
		zap.String("model", p.model),
		zap.Int("answer_length", len(text)),
		zap.Duration("duration", time.Since(start)),
	)

	return text, nil
}
