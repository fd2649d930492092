package common

import (
	"errors"

	"github.com/futig/rag-chatbot/internal/config"
	pkgHTTP "github.com/futig/rag-chatbot/pkg/http"
	"github.com/sashabaranov/go-openai"
)

// NewOpenAIClient builds a go-openai client for any OpenAI-compatible base URL
func NewOpenAIClient(apiKey, baseURL string, httpCfg config.HTTPClientConfig) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = NewHTTPClient(httpCfg)

	return openai.NewClientWithConfig(cfg)
}

// OpenAIStatusCode extracts the HTTP status from go-openai errors, 0 if unknown
func OpenAIStatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}

	return pkgHTTP.StatusCode(err)
}
