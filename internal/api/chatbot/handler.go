package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/futig/rag-chatbot/internal/pkg/logger"
	"github.com/futig/rag-chatbot/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase      ChatbotUsecase
	maxBodyBytes int64
}

func NewHandler(usecase ChatbotUsecase, maxBodyBytes int64) *Handler {
	return &Handler{
		usecase:      usecase,
		maxBodyBytes: maxBodyBytes,
	}
}

// Query handles POST /query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Query")

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req entity.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	query := toQuery(&req, h.usecase.DefaultTopK())
	ctx = logger.AddFields(ctx, zap.Int("top_k", query.TopK))

	answer, err := h.usecase.AnswerQuery(ctx, query)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, answer)
}

// GetStats handles GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetStats")

	response.Success(w, h.usecase.Stats(ctx))
}

// GetConfig handles GET /config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.usecase.Settings())
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrValidation):
		h.respondError(ctx, w, http.StatusBadRequest, validationMessage(err), err)
	case errors.Is(err, entity.ErrUpstreamRateLimited):
		h.respondError(ctx, w, http.StatusServiceUnavailable, "upstream service is rate limited, try again later", err)
	case errors.Is(err, entity.ErrEmbedding):
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to embed question", err)
	case errors.Is(err, entity.ErrRetrieval):
		h.respondError(ctx, w, http.StatusBadGateway, "failed to retrieve context", err)
	case errors.Is(err, entity.ErrGeneration):
		h.respondError(ctx, w, http.StatusBadGateway, "failed to generate answer", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}

// validationMessage exposes validation details; they only describe the request itself
func validationMessage(err error) string {
	return err.Error()
}
