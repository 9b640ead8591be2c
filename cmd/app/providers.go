package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/connect-gateway/internal/domain/auth"
	"github.com/yanqian/connect-gateway/internal/domain/session"
	"github.com/yanqian/connect-gateway/internal/infra/config"
	"github.com/yanqian/connect-gateway/internal/infra/sessionstore"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{AccessTokenTTL: cfg.Session.AccessTokenTTL}
}

func provideBackendConfig(cfg *config.Config) config.BackendConfig {
	return cfg.Backend
}

func provideSessionStore(cfg *config.Config, logger *slog.Logger) (session.Store, error) {
	if cfg.Session.Store == config.StoreValkey {
		opt, err := buildValkeyOptions(cfg.Session.Valkey.Addr)
		if err != nil {
			return nil, err
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			return nil, err
		}
		logger.Info("valkey session store enabled", "addr", cfg.Session.Valkey.Addr)
		return sessionstore.NewValkeyStore(client, cfg.Session.CookieName, cfg.Session.MaxAge), nil
	}

	codec, err := session.NewCodec(cfg.Session.Secret, cfg.Session.MaxAge)
	if err != nil {
		return nil, err
	}
	return sessionstore.NewCookieStore(codec, cfg.Session.CookieName), nil
}

// provideRefresher picks the token rotation strategy matching the configured
// auth backend: provider-managed sessions refresh against the provider token
// endpoint, credential sessions against the backend /auth/refresh.
func provideRefresher(cfg *config.Config, credential *auth.TokenRefresher, oidc *auth.OIDCAuthenticator) session.Refresher {
	if cfg.OIDC.Enabled && oidc != nil {
		return oidc
	}
	return credential
}

func provideOIDC(cfg *config.Config, logger *slog.Logger) (*auth.OIDCAuthenticator, error) {
	if !cfg.OIDC.Enabled {
		return nil, nil
	}
	return auth.NewOIDCAuthenticator(context.Background(), auth.OIDCConfig{
		IssuerURL:      cfg.OIDC.IssuerURL,
		ClientID:       cfg.OIDC.ClientID,
		ClientSecret:   cfg.OIDC.ClientSecret,
		RedirectURL:    cfg.OIDC.RedirectURL,
		Scopes:         cfg.OIDC.Scopes,
		AccessTokenTTL: cfg.Session.AccessTokenTTL,
	}, logger)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
