package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockProvider answers with the first context line of the prompt
type MockProvider struct {
	logger *zap.Logger
}

func NewMockProvider(logger *zap.Logger) *MockProvider {
	return &MockProvider{
		logger: logger,
	}
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Model() string {
	return "mock-llm"
}

func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating answer", zap.Int("prompt_length", len(prompt)))

	if err := validatePrompt(prompt); err != nil {
		return "", err
	}

	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "A: ") {
			return fmt.Sprintf("(mock) %s", strings.TrimPrefix(line, "A: ")), nil
		}
	}

	return "(mock) I could not find relevant information to answer your question.", nil
}
