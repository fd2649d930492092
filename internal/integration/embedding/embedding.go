package embedding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/rag-chatbot/internal/entity"
)

// dimensionSample is embedded once at construction to learn the vector size
const dimensionSample = "Hello world"

func prepareInput(text string, maxLength int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text to embed is empty", entity.ErrValidation)
	}

	if maxLength > 0 && utf8.RuneCountInString(text) > maxLength {
		runes := []rune(text)
		text = string(runes[:maxLength])
	}

	return text, nil
}

func checkDimensions(vec []float32, dim int) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: %w: empty embedding", entity.ErrEmbedding, entity.ErrMalformedResponse)
	}
	if dim > 0 && len(vec) != dim {
		return fmt.Errorf("%w: %w: got %d dimensions, expected %d",
			entity.ErrEmbedding, entity.ErrMalformedResponse, len(vec), dim)
	}
	return nil
}
