package chatbot

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/futig/rag-chatbot/internal/entity"
)

const (
	promptIntroWithContext = "You are a knowledgeable assistant. Answer the user's question based on the following relevant information from the knowledge base."
	promptIntroNoContext   = "You are a knowledgeable assistant. No relevant information was found in the knowledge base for this question."
)

var promptRules = []string{
	"Answer based on the provided information and context only",
	"Provide comprehensive, detailed responses when the question requires it",
	"If the information doesn't fully answer the question, say so",
	"Synthesize information from multiple sources when relevant",
	"Maintain the tone and style of the knowledge base",
}

var promptRulesNoContext = []string{
	"Say that the knowledge base has no information on this topic",
	"Do not invent facts",
}

// BuildPrompt renders the question and passages into the model prompt.
// Passages keep retrieval order; with none the context block is omitted.
func BuildPrompt(question string, passages []entity.ContextPassage) string {
	var b strings.Builder

	rules := promptRules
	if len(passages) > 0 {
		b.WriteString(promptIntroWithContext)
		b.WriteString("\n\nRelevant Information:\n")
		for i, p := range passages {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(p.Text)
		}
		b.WriteString("\n\n")
	} else {
		rules = promptRulesNoContext
		b.WriteString(promptIntroNoContext)
		b.WriteString("\n\n")
	}

	b.WriteString("User Question: ")
	b.WriteString(question)
	b.WriteString("\n\nInstructions:\n")
	for _, r := range rules {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	if lang := languageHint(question); lang != "" {
		b.WriteString("- Respond in ")
		b.WriteString(lang)
		b.WriteString("\n")
	}
	b.WriteString("\nAnswer:")

	return b.String()
}

var languageNames = map[whatlanggo.Lang]string{
	whatlanggo.Spa: "Spanish",
	whatlanggo.Por: "Portuguese",
	whatlanggo.Fra: "French",
	whatlanggo.Deu: "German",
	whatlanggo.Ita: "Italian",
	whatlanggo.Rus: "Russian",
	whatlanggo.Ukr: "Ukrainian",
	whatlanggo.Pol: "Polish",
	whatlanggo.Nld: "Dutch",
	whatlanggo.Tur: "Turkish",
	whatlanggo.Arb: "Arabic",
	whatlanggo.Hin: "Hindi",
	whatlanggo.Urd: "Urdu",
	whatlanggo.Ind: "Indonesian",
	whatlanggo.Cmn: "Chinese",
	whatlanggo.Jpn: "Japanese",
	whatlanggo.Kor: "Korean",
}

// languageHint names the question language when detection is confident
// and it is not English.
func languageHint(question string) string {
	info := whatlanggo.Detect(question)
	if !info.IsReliable() || info.Lang == whatlanggo.Eng {
		return ""
	}
	if name, ok := languageNames[info.Lang]; ok {
		return name
	}
	return info.Lang.String()
}
