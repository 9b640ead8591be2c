package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/connect-gateway/internal/domain/session"
	apperrors "github.com/yanqian/connect-gateway/pkg/errors"
	"github.com/yanqian/connect-gateway/pkg/util"
)

// Service exchanges credentials for sessions against the backend.
type Service struct {
	cfg     Config
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg Config, backend Backend, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		backend: backend,
		logger:  logger.With("component", "auth.service"),
		now:     util.NowUTC,
	}
}

// Authenticate runs the credential exchange and builds a fresh session. It
// performs no persistence; establishing the session is the store's job.
func (s *Service) Authenticate(ctx context.Context, email, password string, mode Mode) (session.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return session.Session{}, apperrors.Wrap(CodeInvalidInput, "email cannot be empty", nil)
	}
	if password == "" {
		return session.Session{}, apperrors.Wrap(CodeInvalidInput, "password cannot be empty", nil)
	}

	var (
		grant TokenGrant
		err   error
	)
	switch mode {
	case ModeSignIn:
		grant, err = s.backend.SignIn(ctx, email, password)
	case ModeSignUp:
		grant, err = s.backend.SignUp(ctx, email, password)
	default:
		return session.Session{}, apperrors.Wrap(CodeInvalidInput, "unknown authentication mode", nil)
	}
	if err != nil {
		return session.Session{}, s.classify(err, mode)
	}

	now := s.now()
	name := grant.Name
	if name == "" {
		name = grant.Email
	}
	return session.Session{
		UserID:               grant.UserID,
		Email:                grant.Email,
		Name:                 name,
		AccessToken:          grant.AccessToken,
		RefreshToken:         grant.RefreshToken,
		AccessTokenExpiresAt: now.Add(s.cfg.AccessTokenTTL),
		CreatedAt:            now,
	}, nil
}

// NotifySignOut tells the backend the user signed out. Best effort: a failed
// notification is logged and swallowed, local clearing goes ahead regardless.
func (s *Service) NotifySignOut(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	if err := s.backend.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn("backend signout notification failed", "error", err)
	}
}

// classify maps a backend failure to the error taxonomy exactly once. The
// backend only exposes a free-text detail string, so the two sign-up special
// cases are recognized by the instruction text they are known to carry.
func (s *Service) classify(err error, mode Mode) error {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		detail := strings.ToLower(backendErr.Detail)
		if mode == ModeSignUp && strings.Contains(detail, "check your email") {
			return apperrors.Wrap(CodeEmailVerificationRequired, "confirmation email sent, verify before signing in", err)
		}
		if strings.Contains(detail, "user already exists") || strings.Contains(detail, "already registered") {
			return apperrors.Wrap(CodeUserAlreadyExists, "an account with this email already exists", err)
		}
		s.logger.Warn("credential exchange rejected", "status", backendErr.Status)
		return apperrors.Wrap(CodeAuthenticationFailed, "invalid email or password", err)
	}
	s.logger.Error("credential exchange failed", "error", err)
	return apperrors.Wrap(CodeAuthenticationFailed, "authentication service unavailable", err)
}
