package chatbot

import (
	"strings"
	"testing"

	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestBuildPromptKeepsRetrievalOrder(t *testing.T) {
	passages := []entity.ContextPassage{
		{Text: "Q: first?\nA: one"},
		{Text: "Q: second?\nA: two"},
	}

	prompt := BuildPrompt("Which comes first?", passages)

	assert.Contains(t, prompt, "Relevant Information:\nQ: first?\nA: one\n\nQ: second?\nA: two")
	assert.Less(t, strings.Index(prompt, "first?"), strings.Index(prompt, "second?"))
	assert.Contains(t, prompt, "User Question: Which comes first?")
	assert.True(t, strings.HasSuffix(prompt, "Answer:"))
}

func TestBuildPromptWithoutPassages(t *testing.T) {
	prompt := BuildPrompt("Anything?", nil)

	assert.NotContains(t, prompt, "Relevant Information:")
	assert.Contains(t, prompt, "User Question: Anything?")
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	passages := []entity.ContextPassage{{Text: "a"}, {Text: "b"}}
	assert.Equal(t, BuildPrompt("q", passages), BuildPrompt("q", passages))
}

func TestBuildPromptLanguageHint(t *testing.T) {
	prompt := BuildPrompt("¿Cuál es la capital de Francia y por qué es tan importante para la historia europea? Me gustaría entender también cómo ha cambiado la ciudad durante los últimos siglos.", nil)
	assert.Contains(t, prompt, "- Respond in Spanish")

	prompt = BuildPrompt("What is the capital of France and why is it so important for European history?", nil)
	assert.NotContains(t, prompt, "Respond in")
}
