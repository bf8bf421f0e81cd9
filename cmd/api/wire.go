//go:build wireinject

package main

import (
	"context"
	"log/slog"

	"github.com/google/wire"
	"github.com/miragehq/mirage/cmd/api/api"
	"github.com/miragehq/mirage/cmd/api/config"
	"github.com/miragehq/mirage/lib/controlplane"
	"github.com/miragehq/mirage/lib/providers"
	"github.com/miragehq/mirage/lib/sessions"
	"github.com/miragehq/mirage/lib/store"
)

// application struct to hold initialized components
type application struct {
	Ctx          context.Context
	Logger       *slog.Logger
	Config       *config.Config
	Store        store.Store
	ControlPlane *controlplane.ControlPlane
	Sessions     *sessions.Registry
	ApiService   *api.ApiService
}

// initializeApp is the injector function
func initializeApp() (*application, func(), error) {
	panic(wire.Build(
		providers.ProvideLogger,
		providers.ProvideContext,
		providers.ProvideConfig,
		providers.ProvideStore,
		providers.ProvideSampler,
		providers.ProvideSimulated,
		providers.ProvideRealProvider,
		providers.ProvideSessionRegistry,
		providers.ProvideControlPlane,
		api.New,
		wire.Struct(new(application), "*"),
	))
}
