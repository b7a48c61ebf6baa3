// Package app assembles the brewsignal server: configuration, telemetry,
// the evaluation service, the what-if hub and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"brewsignal/internal/config"
	"brewsignal/internal/infrastructure"
	"brewsignal/internal/services"
	handlers "brewsignal/internal/transport/http"
	ws "brewsignal/internal/websocket"
	"brewsignal/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.EngineMetrics
	Service       *services.EvaluationService
	WhatIfHub     *ws.Hub
	Router        http.Handler
	Server        *http.Server
}

// NewApplication wires every component from cfg
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("application starting",
		slog.String("build", contracts.CurrentBuild().String()),
		slog.Int("port", cfg.Server.Port),
		slog.String("level", cfg.Logging.Level))

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewEngineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine metrics: %w", err)
	}

	svc, err := services.NewEvaluationService(cfg.Engine, services.Options{
		Metrics:         metrics,
		Tracer:          providers.Tracer,
		RankConcurrency: cfg.Service.RankConcurrency,
		MaxRankBundles:  cfg.Service.MaxRankBundles,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluation service: %w", err)
	}

	hub := ws.NewHub(svc, cfg.WebSocket, metrics, logger)

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:      cfg,
		Service:     svc,
		Hub:         hub,
		Metrics:     metrics,
		Tracer:      providers.Tracer,
		MetricsHTTP: providers.MetricsHTTP,
		Logger:      logger,
	})

	return &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		Service:       svc,
		WhatIfHub:     hub,
		Router:        router,
		Server: &http.Server{
			Addr:           cfg.Address(),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
			ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
	}, nil
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a.Logger.InfoContext(ctx, "application started", slog.String("address", ln.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	return a.Stop(context.WithoutCancel(ctx))
}

// Stop closes what-if sessions, drains HTTP requests and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown
	a.WhatIfHub.CloseAll()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run listens on the configured address and serves until SIGINT or SIGTERM
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}
