package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassageFromPayload(t *testing.T) {
	tests := []struct {
		name         string
		payload      map[string]any
		expectedText string
		expectedMeta map[string]any
	}{
		{
			name:         "text field",
			payload:      map[string]any{"text": "Paris is the capital", "source": "wiki"},
			expectedText: "Paris is the capital",
			expectedMeta: map[string]any{"source": "wiki"},
		},
		{
			name: "instruction and output",
			payload: map[string]any{
				"instruction": "What is the capital of France?",
				"output":      "Paris",
				"video_id":    "abc",
			},
			expectedText: "Q: What is the capital of France?\nA: Paris",
			expectedMeta: map[string]any{
				"instruction": "What is the capital of France?",
				"output":      "Paris",
				"video_id":    "abc",
			},
		},
		{
			name:         "output only",
			payload:      map[string]any{"output": "Paris"},
			expectedText: "Paris",
			expectedMeta: map[string]any{"output": "Paris"},
		},
		{
			name:         "empty payload",
			payload:      nil,
			expectedText: "",
			expectedMeta: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PassageFromPayload("id-1", 0.5, tt.payload)
			assert.Equal(t, "id-1", p.ID)
			assert.Equal(t, float32(0.5), p.Score)
			assert.Equal(t, tt.expectedText, p.Text)
			assert.Equal(t, tt.expectedMeta, p.Metadata)
		})
	}
}

func TestPassageFromPayloadDoesNotMutateInput(t *testing.T) {
	payload := map[string]any{"text": "hello", "source": "x"}
	_ = PassageFromPayload("1", 1, payload)
	assert.Equal(t, "hello", payload["text"])
}
