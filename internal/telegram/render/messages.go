package render

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"unicode/utf16"

	"github.com/futig/rag-chatbot/internal/entity"
)

const (
	// Commands
	MsgWelcome = `👋 Hi! I answer questions using the knowledge base I was loaded with.

Just send me a question as a regular message.`

	MsgHelp = `🤖 Bot commands:

/start - Show the greeting
/help - Show this help

How it works:
1. Send a question as plain text
2. I look up the most relevant passages in the knowledge base
3. A language model writes the answer, with the sources listed below it`

	MsgUnknownCommand = `❓ Unknown command. Use /help to see what I can do.`
	MsgEmptyQuestion  = `✍️ Please send your question as text.`

	// Rate limiting
	MsgRateLimitFirst  = `⚠️ Too many requests. Please wait a little.`
	MsgRateLimitSecond = `⚠️ Request limit exceeded. Wait about 30 seconds before trying again.`
	MsgRateLimitFinal  = `🛑 You are sending requests too often. Please wait a minute.`

	// Errors
	ErrGeneric            = `❌ Something went wrong. Please try again.`
	ErrInvalidInput       = `❌ I could not understand that question: %s`
	ErrNetworkIssue       = `❌ Connection problem. Please try again later.`
	ErrServiceUnavailable = `❌ The service is temporarily unavailable. Please try again in a couple of minutes.`
	ErrTimeout            = `❌ That took too long. Please try again.`
	ErrQuotaExceeded      = `❌ The language model is busy right now. Please wait a little and retry.`
)

const (
	// Telegram rejects messages longer than 4096 UTF-16 code units
	maxMessageUnits = 4096
	maxSources      = 3
	truncationMark  = "…"
)

// RenderAnswer formats an answer followed by a short list of its sources
func RenderAnswer(answer *entity.Answer) string {
	footer := renderSources(answer.Sources)

	budget := maxMessageUnits - utf16Len(footer)
	body := truncateUTF16(strings.TrimSpace(answer.Answer), budget)

	return body + footer
}

func renderSources(sources []entity.Source) string {
	if len(sources) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n📚 Sources:\n")
	for i, src := range sources {
		if i == maxSources {
			sb.WriteString(fmt.Sprintf("…and %d more\n", len(sources)-maxSources))
			break
		}
		sb.WriteString(fmt.Sprintf("%d. %s (score %.2f)\n", i+1, sourceLabel(src), src.Score))
	}

	return strings.TrimRight(sb.String(), "\n")
}

// sourceLabel picks the most readable identifier a passage carries
func sourceLabel(src entity.Source) string {
	if ch, ok := src.Metadata["channel_username"].(string); ok && ch != "" {
		if vid, ok := src.Metadata["video_id"].(string); ok && vid != "" {
			return fmt.Sprintf("@%s, video %s", ch, vid)
		}
		return "@" + ch
	}
	if s, ok := src.Metadata["source"].(string); ok && s != "" {
		return s
	}
	if src.ID != "" {
		return src.ID
	}
	return "knowledge base"
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// truncateUTF16 cuts s on a rune boundary so it fits in limit UTF-16 units
func truncateUTF16(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf16Len(s) <= limit {
		return s
	}

	mark := truncationMark
	if limit <= utf16Len(mark) {
		mark = ""
	}
	budget := limit - utf16Len(mark)

	used := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			// invalid runes are sent as U+FFFD
			n = 1
		}
		if used+n > budget {
			return s[:i] + mark
		}
		used += n
	}
	return s
}

// RenderRateLimitWarning escalates the wording with each consecutive warning
func RenderRateLimitWarning(warningCount int) string {
	switch {
	case warningCount <= 1:
		return MsgRateLimitFirst
	case warningCount == 2:
		return MsgRateLimitSecond
	default:
		return MsgRateLimitFinal
	}
}

// ClassifyError analyzes an error and returns an appropriate user-friendly message
func ClassifyError(err error) string {
	if err == nil {
		return ErrGeneric
	}

	// Pipeline errors first: they can wrap network errors of their own
	switch {
	case errors.Is(err, entity.ErrValidation):
		return fmt.Sprintf(ErrInvalidInput, validationReason(err))
	case errors.Is(err, entity.ErrUpstreamRateLimited):
		return ErrQuotaExceeded
	}

	// Check for timeout errors
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}

	// Check for network errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetworkIssue
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return ErrNetworkIssue
	}

	switch {
	case errors.Is(err, entity.ErrEmbedding),
		errors.Is(err, entity.ErrRetrieval),
		errors.Is(err, entity.ErrGeneration):
		return ErrServiceUnavailable
	}

	return ErrGeneric
}

// validationReason strips the sentinel prefix so the user only sees the reason
func validationReason(err error) string {
	msg := err.Error()
	prefix := entity.ErrValidation.Error() + ": "
	if idx := strings.Index(msg, prefix); idx >= 0 {
		return msg[idx+len(prefix):]
	}
	return msg
}
