package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/yanqian/connect-gateway/internal/domain/session"
	apperrors "github.com/yanqian/connect-gateway/pkg/errors"
	"github.com/yanqian/connect-gateway/pkg/util"
)

// OIDCConfig holds settings for the provider-managed sign-in alternative.
type OIDCConfig struct {
	IssuerURL      string
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	Scopes         []string
	AccessTokenTTL time.Duration
}

// OIDCAuthenticator is the alternate backend adapter: an auth-as-a-service
// provider that issues sessions through the authorization code flow and
// rotates tokens through its own token endpoint. It never mixes with the
// credential flow within one session.
type OIDCAuthenticator struct {
	cfg      OIDCConfig
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
	logger   *slog.Logger
	now      func() time.Time
}

type oidcClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// NewOIDCAuthenticator discovers the issuer and prepares the code flow.
func NewOIDCAuthenticator(ctx context.Context, cfg OIDCConfig, logger *slog.Logger) (*OIDCAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, apperrors.Wrap("oidc_discovery_failed", "failed to discover oidc issuer", err)
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}
	return &OIDCAuthenticator{
		cfg: cfg,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		logger:   logger.With("component", "auth.oidc"),
		now:      util.NowUTC,
	}, nil
}

// AuthURL builds the provider redirect with PKCE parameters.
func (a *OIDCAuthenticator) AuthURL(state, codeChallenge string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("access_type", "offline"),
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}
	return a.oauth.AuthCodeURL(state, opts...)
}

// Exchange redeems the callback code for a session.
func (a *OIDCAuthenticator) Exchange(ctx context.Context, code, codeVerifier string) (session.Session, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(codeVerifier) == "" {
		return session.Session{}, apperrors.Wrap(CodeInvalidInput, "missing oauth code or verifier", nil)
	}
	token, err := a.oauth.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return session.Session{}, apperrors.Wrap(CodeAuthenticationFailed, "failed to exchange oauth code", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return session.Session{}, apperrors.Wrap(CodeAuthenticationFailed, "missing id_token in oauth response", nil)
	}
	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return session.Session{}, apperrors.Wrap(CodeAuthenticationFailed, "id token verification failed", err)
	}
	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		return session.Session{}, apperrors.Wrap(CodeAuthenticationFailed, "failed to parse id token claims", err)
	}
	if !claims.EmailVerified {
		return session.Session{}, apperrors.Wrap(CodeEmailVerificationRequired, "provider account email not verified", nil)
	}

	now := a.now()
	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = now.Add(a.cfg.AccessTokenTTL)
	}
	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	return session.Session{
		UserID:               claims.Subject,
		Email:                claims.Email,
		Name:                 name,
		AccessToken:          token.AccessToken,
		RefreshToken:         token.RefreshToken,
		AccessTokenExpiresAt: expiresAt,
		CreatedAt:            now,
	}, nil
}

// Refresh implements session.Refresher against the provider token endpoint.
// The provider manages rotation itself; the gateway just asks for a current
// token and keeps whichever refresh token comes back.
func (a *OIDCAuthenticator) Refresh(ctx context.Context, s session.Session) session.Session {
	source := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: s.RefreshToken})
	token, err := source.Token()
	if err != nil {
		a.logger.Warn("provider token refresh failed", "userId", s.UserID, "error", err)
		s.Error = session.RefreshAccessTokenError
		return s
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.AccessTokenExpiresAt = token.Expiry
	if s.AccessTokenExpiresAt.IsZero() {
		s.AccessTokenExpiresAt = a.now().Add(a.cfg.AccessTokenTTL)
	}
	s.Error = ""
	return s
}

var _ session.Refresher = (*OIDCAuthenticator)(nil)
