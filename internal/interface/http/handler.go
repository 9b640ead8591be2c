package http

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/connect-gateway/internal/domain/auth"
	"github.com/yanqian/connect-gateway/internal/domain/session"
	"github.com/yanqian/connect-gateway/internal/infra/backend"
	"github.com/yanqian/connect-gateway/internal/infra/config"
)

// Handler wires the HTTP transport to the session core and the backend proxy.
type Handler struct {
	authSvc  *auth.Service
	manager  *session.Manager
	backend  *backend.Client
	oidc     *auth.OIDCAuthenticator
	frontend *httputil.ReverseProxy
	logger   *slog.Logger
}

// NewHandler constructs the root HTTP handler. The oidc authenticator is nil
// unless the provider-managed flow is enabled in config.
func NewHandler(cfg *config.Config, authSvc *auth.Service, manager *session.Manager, client *backend.Client, oidc *auth.OIDCAuthenticator, logger *slog.Logger) *Handler {
	h := &Handler{
		authSvc: authSvc,
		manager: manager,
		backend: client,
		oidc:    oidc,
		logger:  logger.With("component", "http.handler"),
	}
	if upstream := cfg.Frontend.UpstreamURL; upstream != "" {
		if parsed, err := url.Parse(upstream); err == nil {
			h.frontend = httputil.NewSingleHostReverseProxy(parsed)
		} else {
			h.logger.Error("invalid frontend upstream url, page proxying disabled", "error", err)
		}
	}
	return h
}

// Health reports gateway liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Page serves guarded browser navigations: proxied to the UI origin when one
// is configured, otherwise a plain not-found.
func (h *Handler) Page(c *gin.Context) {
	if h.frontend != nil {
		h.frontend.ServeHTTP(c.Writer, c.Request)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "no frontend upstream configured"}})
}
