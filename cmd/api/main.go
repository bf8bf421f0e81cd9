package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/miragehq/mirage/cmd/api/config"
	"github.com/miragehq/mirage/lib/controlplane"
	"github.com/miragehq/mirage/lib/logger"
	mw "github.com/miragehq/mirage/lib/middleware"
	"github.com/miragehq/mirage/lib/otel"
	"github.com/riandyrn/otelchi"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application terminated", "error", err)
		os.Exit(1)
	}
	slog.Info("main() exiting normally")
}

func run() error {
	// Load config early for OTel initialization
	cfg := config.Load()

	otelCfg := otel.Config{
		Enabled:     cfg.OtelEnabled,
		Endpoint:    cfg.OtelEndpoint,
		ServiceName: cfg.OtelServiceName,
		Insecure:    cfg.OtelInsecure,
		Version:     cfg.Version,
		Env:         cfg.Env,
	}

	otelProvider, otelShutdown, err := otel.Init(context.Background(), otelCfg)
	if err != nil {
		// Log warning but don't fail - graceful degradation
		slog.Warn("failed to initialize OpenTelemetry, continuing without telemetry", "error", err)
	}
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				slog.Warn("error shutting down OpenTelemetry", "error", err)
			}
		}()
	}

	// Initialize app with wire
	app, cleanup, err := initializeApp()
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer func() {
		slog.Info("cleaning up application resources")
		cleanup()
	}()

	ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := app.Logger
	if otelProvider != nil && otelProvider.LogHandler != nil {
		// Fan application logs out to the OTLP exporter as well
		log = logger.New(otelProvider.LogHandler)
	}

	if cfg.OtelEnabled {
		log.Info("OpenTelemetry enabled", "endpoint", cfg.OtelEndpoint, "service", cfg.OtelServiceName)
	}

	// Validate JWT secret is configured
	if app.Config.JwtSecret == "" {
		log.Warn("JWT_SECRET not configured - API authentication will fail")
	}

	// Attach control-plane metrics if OTel is enabled
	if otelProvider != nil && otelProvider.Meter != nil {
		cpMetrics, err := controlplane.NewMetrics(otelProvider.Meter)
		if err == nil {
			app.ControlPlane.SetMetrics(cpMetrics)
		}
	}

	if app.Config.RealProviderConfigured() {
		log.Info("real provider configured", "api_url", app.Config.ProviderAPIURL)
	} else {
		log.Info("no provider credentials found, running in simulation-only mode")
	}

	// Create router
	r := chi.NewRouter()

	var httpMetricsMw func(http.Handler) http.Handler
	if otelProvider != nil && otelProvider.Meter != nil {
		httpMetrics, err := mw.NewHTTPMetrics(otelProvider.Meter)
		if err == nil {
			httpMetricsMw = httpMetrics.Middleware
		}
	}

	// Terminal endpoint (WebSocket). No otelchi here as WebSocket doesn't
	// work well with tracing middleware, and no timeout since the socket
	// is long-lived.
	r.With(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		mw.InjectLogger(log),
		mw.AccessLogger(log),
		mw.JwtAuth(app.Config.JwtSecret),
	).Get("/instances/{id}/terminal", app.ApiService.TerminalHandler)

	// Authenticated API endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)

		// OpenTelemetry tracing middleware FIRST (creates span context)
		if cfg.OtelEnabled {
			r.Use(otelchi.Middleware(cfg.OtelServiceName, otelchi.WithChiRoutes(r)))
		}

		// Inject logger into request context for handlers to use
		r.Use(mw.InjectLogger(log))

		// Access logger AFTER otelchi so trace context is available
		r.Use(mw.AccessLogger(log))
		if httpMetricsMw != nil {
			r.Use(httpMetricsMw)
		}

		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(mw.JwtAuth(app.Config.JwtSecret))

		r.Get("/instances", app.ApiService.ListInstancesHandler)
		r.Post("/instances", app.ApiService.LaunchInstanceHandler)
		r.Delete("/instances/{id}", app.ApiService.TerminateInstanceHandler)
		r.Get("/instances/{id}/stats", app.ApiService.InstanceStatsHandler)
		r.Post("/instances/{id}/connect", app.ApiService.ConnectHandler)
		r.Post("/sessions/{sessionId}/exec", app.ApiService.ExecHandler)
		r.Delete("/sessions/{sessionId}", app.ApiService.DisconnectHandler)
	})

	// Unauthenticated endpoints (outside group)
	r.Get("/health", app.ApiService.HealthHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", app.Config.Port),
		Handler: r,
	}

	// Error group for coordinated shutdown
	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		log.Info("starting mirage API", "port", app.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			return err
		}
		return nil
	})

	grp.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		// Use WithoutCancel to preserve context values while preventing cancellation
		shutdownCtx := context.WithoutCancel(gctx)
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown http server", "error", err)
			return err
		}
		log.Info("http server shutdown complete")
		return nil
	})

	err = grp.Wait()
	slog.Info("all goroutines finished")
	return err
}
