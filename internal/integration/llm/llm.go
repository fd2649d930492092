package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/futig/rag-chatbot/internal/entity"
)

func validatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt is empty", entity.ErrValidation)
	}
	return nil
}

func wrapUpstreamError(provider string, status int, err error) error {
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w: %s: %w", entity.ErrGeneration, entity.ErrUpstreamRateLimited, provider, err)
	}
	return fmt.Errorf("%w: %s: %w", entity.ErrGeneration, provider, err)
}

func emptyGeneration(provider string) error {
	return fmt.Errorf("%w: %w: %s returned no text", entity.ErrGeneration, entity.ErrMalformedResponse, provider)
}
