package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/connect-gateway/internal/domain/session"
	"github.com/yanqian/connect-gateway/pkg/util"
)

// TokenRefresher mints a new token pair from the backend refresh endpoint.
type TokenRefresher struct {
	cfg     Config
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// NewTokenRefresher constructs a TokenRefresher instance.
func NewTokenRefresher(cfg Config, backend Backend, logger *slog.Logger) *TokenRefresher {
	return &TokenRefresher{
		cfg:     cfg,
		backend: backend,
		logger:  logger.With("component", "auth.refresher"),
		now:     util.NowUTC,
	}
}

// Refresh implements session.Refresher. Identity fields and creation time are
// carried over unchanged; any failure tags the session instead of erroring so
// refresh problems degrade into the route guard's "no session" handling.
func (r *TokenRefresher) Refresh(ctx context.Context, s session.Session) session.Session {
	pair, err := r.backend.Refresh(ctx, s.RefreshToken)
	if err != nil {
		r.logger.Warn("access token refresh failed", "userId", s.UserID, "error", err)
		s.Error = session.RefreshAccessTokenError
		return s
	}
	s.AccessToken = pair.AccessToken
	s.RefreshToken = pair.RefreshToken
	s.AccessTokenExpiresAt = r.now().Add(r.cfg.AccessTokenTTL)
	s.Error = ""
	return s
}

var _ session.Refresher = (*TokenRefresher)(nil)
