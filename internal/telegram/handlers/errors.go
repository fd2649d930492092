package handlers

import (
	"context"
	"errors"
	"net"

	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/futig/rag-chatbot/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
	SeverityCritical
)

// String returns string representation of error severity
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// HandlerError represents a structured error with user message and logging info
type HandlerError struct {
	Err         error
	UserMessage string
	LogMessage  string
	Severity    ErrorSeverity
}

// classifyHandlerError analyzes an error and returns a HandlerError with appropriate severity and messages
func classifyHandlerError(err error) *HandlerError {
	if err == nil {
		return &HandlerError{
			Err:         nil,
			UserMessage: render.ErrGeneric,
			LogMessage:  "unknown error",
			Severity:    SeverityWarning,
		}
	}

	switch {
	case errors.Is(err, entity.ErrValidation):
		return &HandlerError{
			Err:         err,
			UserMessage: render.ClassifyError(err),
			LogMessage:  "invalid question",
			Severity:    SeverityWarning,
		}
	case errors.Is(err, entity.ErrUpstreamRateLimited):
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrQuotaExceeded,
			LogMessage:  "upstream rate limited",
			Severity:    SeverityWarning,
		}
	}

	// Check for timeout errors
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrTimeout,
			LogMessage:  "operation timed out",
			Severity:    SeverityError,
		}
	}

	// Check for network errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &HandlerError{
				Err:         err,
				UserMessage: render.ErrTimeout,
				LogMessage:  "network timeout",
				Severity:    SeverityError,
			}
		}
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrNetworkIssue,
			LogMessage:  "network error",
			Severity:    SeverityError,
		}
	}

	switch {
	case errors.Is(err, entity.ErrEmbedding),
		errors.Is(err, entity.ErrRetrieval),
		errors.Is(err, entity.ErrGeneration):
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrServiceUnavailable,
			LogMessage:  "pipeline failed",
			Severity:    SeverityCritical,
		}
	}

	// Default to generic error
	return &HandlerError{
		Err:         err,
		UserMessage: render.ErrGeneric,
		LogMessage:  "handler error",
		Severity:    SeverityError,
	}
}

// HandleError provides centralized error handling for all handlers
// It logs the error with appropriate severity and sends a user-friendly message
func (h *BaseHandler) HandleError(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	handlerErr := classifyHandlerError(err)

	// Log with appropriate severity level
	switch handlerErr.Severity {
	case SeverityCritical, SeverityError:
		ctxzap.Error(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
			zap.String("severity", handlerErr.Severity.String()),
		)
	case SeverityWarning:
		ctxzap.Warn(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
		)
	}

	// Send user-friendly message
	if h.messageSender != nil {
		_ = h.messageSender.Send(chatID, handlerErr.UserMessage)
	}
}
