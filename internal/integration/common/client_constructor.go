package common

import (
	"net/http"

	"github.com/futig/rag-chatbot/internal/config"
	pkgHTTP "github.com/futig/rag-chatbot/pkg/http"
	"go.uber.org/zap"
)

// NewBaseConnector builds a JSON connector with the shared timeouts and
// request logging. auth is applied last so it wraps the logging transport.
func NewBaseConnector(cfg config.HTTPClientConfig, baseURL string, logger *zap.Logger, auth ...pkgHTTP.HttpOpts) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: baseURL,
	}

	opts := []pkgHTTP.HttpOpts{
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
	}
	opts = append(opts, auth...)

	return pkgHTTP.NewConnector(connCfg, opts...)
}

// NewHTTPClient returns a plain *http.Client with the same settings, for SDKs
// that bring their own request encoding.
func NewHTTPClient(cfg config.HTTPClientConfig, extra ...pkgHTTP.HttpOpts) *http.Client {
	opts := []pkgHTTP.HttpOpts{
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
	}
	opts = append(opts, extra...)

	return pkgHTTP.NewClient(opts...)
}
