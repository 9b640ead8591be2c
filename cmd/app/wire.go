//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/connect-gateway/internal/bootstrap"
	"github.com/yanqian/connect-gateway/internal/domain/auth"
	"github.com/yanqian/connect-gateway/internal/domain/session"
	"github.com/yanqian/connect-gateway/internal/infra/backend"
	"github.com/yanqian/connect-gateway/internal/infra/config"
	httpiface "github.com/yanqian/connect-gateway/internal/interface/http"
	"github.com/yanqian/connect-gateway/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAuthConfig,
		provideBackendConfig,
		provideSessionStore,
		provideOIDC,
		backend.NewClient,
		wire.Bind(new(auth.Backend), new(*backend.Client)),
		auth.NewService,
		auth.NewTokenRefresher,
		provideRefresher,
		session.NewManager,
		httpiface.NewHandler,
		httpiface.NewGuard,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
