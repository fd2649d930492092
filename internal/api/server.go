package api

import (
	"net/http"
	"time"

	chatbotapi "github.com/futig/rag-chatbot/internal/api/chatbot"
	"github.com/futig/rag-chatbot/internal/api/docs"
	"github.com/futig/rag-chatbot/internal/api/middleware"
	"github.com/futig/rag-chatbot/internal/entity"
	"github.com/futig/rag-chatbot/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Version        string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(cfg RouterConfig, chatbotHandler *chatbotapi.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)             // Recover from panics
	r.Use(chimiddleware.RequestID)             // Add request ID
	r.Use(middleware.Logger(logger))           // Log requests
	r.Use(middleware.CORS(cfg.AllowedOrigins)) // Handle CORS
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	// Health check never touches downstream services
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, entity.HealthResponse{Status: "ok", Version: cfg.Version})
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	chatbotapi.RegisterRoutes(r, chatbotHandler)

	return r
}
