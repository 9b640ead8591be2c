package http

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/connect-gateway/internal/domain/session"
)

const (
	signInPath = "/signin"
	homePath   = "/"
)

// publicPaths enumerates the routes reachable without a session. Everything
// else is protected by default: a new page needs no guard change unless it
// must be public.
var publicPaths = []string{
	"/signin",
	"/signup",
	"/forgot-password",
	"/reset-password",
	"/error",
}

func isPublicPath(path string) bool {
	for _, public := range publicPaths {
		if strings.HasPrefix(path, public) {
			return true
		}
	}
	return false
}

// Guard evaluates session validity for each navigation. It is stateless
// across requests; every decision derives from the path and the store alone.
type Guard struct {
	manager *session.Manager
	logger  *slog.Logger
}

// NewGuard constructs a Guard instance.
func NewGuard(manager *session.Manager, logger *slog.Logger) *Guard {
	return &Guard{manager: manager, logger: logger.With("component", "http.guard")}
}

// Pages gates browser navigations. An error-tagged session counts as absent,
// so a broken refresh quietly lands the user back on the sign-in page.
func (g *Guard) Pages() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := g.manager.Resolve(c.Request.Context(), c.Writer, c.Request)
		authenticated := ok && s.Usable()
		public := isPublicPath(c.Request.URL.Path)

		switch {
		case !authenticated && !public:
			c.Redirect(http.StatusFound, signInPath)
			c.Abort()
		case authenticated && public:
			c.Redirect(http.StatusFound, homePath)
			c.Abort()
		default:
			if authenticated {
				setSession(c, s)
			}
			c.Next()
		}
	}
}

// RequireSession gates API consumers. Redirects are useless to an XHR
// caller, so absence renders as structured 401 JSON instead.
func (g *Guard) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := g.manager.Resolve(c.Request.Context(), c.Writer, c.Request)
		if !ok || !s.Usable() {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "authentication required", nil))
			return
		}
		setSession(c, s)
		c.Next()
	}
}
