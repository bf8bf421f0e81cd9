// Package providers holds the wire provider functions that assemble
// the application graph.
package providers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/miragehq/mirage/cmd/api/config"
	"github.com/miragehq/mirage/lib/controlplane"
	"github.com/miragehq/mirage/lib/logger"
	"github.com/miragehq/mirage/lib/provider"
	"github.com/miragehq/mirage/lib/sampler"
	"github.com/miragehq/mirage/lib/sessions"
	"github.com/miragehq/mirage/lib/store"
)

// ProvideLogger provides a structured logger
func ProvideLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// ProvideContext provides a context with logger attached
func ProvideContext(log *slog.Logger) context.Context {
	return logger.AddToContext(context.Background(), log)
}

// ProvideConfig provides the application configuration
func ProvideConfig() *config.Config {
	return config.Load()
}

// ProvideStore provides the instance store. Postgres when DATABASE_URL
// is set, in-memory otherwise. The cleanup closes the pool.
func ProvideStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemory(), func() {}, nil
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

// ProvideSampler provides the utilization sampler
func ProvideSampler() *sampler.Sampler {
	return sampler.New()
}

// ProvideSimulated provides the simulated provider
func ProvideSimulated(cfg *config.Config, st store.Store, smp *sampler.Sampler) *provider.Simulated {
	return provider.NewSimulated(st, smp, provider.SimConfig{
		DefaultLocation:  cfg.DefaultRegion,
		StatsLimit:       cfg.StatsSampleLimit,
		BackfillSamples:  cfg.BackfillSamples,
		BackfillInterval: time.Duration(cfg.BackfillIntervalMin) * time.Minute,
	})
}

// ProvideRealProvider provides the upstream cloud provider client. It
// is always constructed; whether it is attempted is decided by the
// control plane config.
func ProvideRealProvider(cfg *config.Config) provider.Provider {
	return provider.NewReal(cfg.ProviderAPIURL, cfg.ProviderAccessKeyId, cfg.ProviderSecretKey, cfg.ProviderTimeout)
}

// ProvideSessionRegistry provides the command session registry
func ProvideSessionRegistry() *sessions.Registry {
	return sessions.NewRegistry()
}

// ProvideControlPlane provides the control plane
func ProvideControlPlane(cfg *config.Config, real provider.Provider, sim *provider.Simulated, registry *sessions.Registry) *controlplane.ControlPlane {
	return controlplane.New(controlplane.Config{
		RealEnabled: cfg.RealProviderConfigured(),
		RealTimeout: cfg.ProviderTimeout,
	}, real, sim, registry)
}
