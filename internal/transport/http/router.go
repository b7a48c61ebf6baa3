package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/trace"

	"brewsignal/internal/config"
	apierrors "brewsignal/internal/errors"
	"brewsignal/internal/infrastructure"
	"brewsignal/internal/middleware"
	"brewsignal/internal/websocket"
)

// RouterDeps carries everything NewRouter wires together
type RouterDeps struct {
	Config  *config.Config
	Service EvaluationService
	Hub     *websocket.Hub
	Metrics *infrastructure.EngineMetrics
	Tracer  trace.Tracer
	// MetricsHTTP serves /metrics; nil leaves the route unmounted
	MetricsHTTP http.Handler
	Logger      *slog.Logger
}

// NewRouter builds the chi router with the full middleware chain
func NewRouter(d RouterDeps) http.Handler {
	cfg := d.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := middleware.NewValidator(logger, errorHandler)

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewTelemetry(d.Tracer, d.Metrics).Handler)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(errorHandler.Middleware)
	r.Use(middleware.SecurityHeaders)
	if rl := cfg.Security.RateLimit; rl.Enabled {
		r.Use(middleware.NewRateLimiter(rl.RPS, rl.Burst, logger, errorHandler).Handler)
	}

	if d.MetricsHTTP != nil {
		r.Handle("/metrics", d.MetricsHTTP)
	}

	var sessions func() int
	if d.Hub != nil {
		sessions = d.Hub.SessionCount
	}
	health := NewHealthHandler(d.Service, sessions)
	entities := NewEntityHandler(d.Service, validator, errorHandler, cfg.Export.TimeFormat, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", health.HealthCheck)
		r.Get("/policy", health.Policy)

		r.Group(func(r chi.Router) {
			if cfg.Server.RequestTimeout > 0 {
				r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
			}
			r.Use(middleware.MaxBodyBytes(cfg.Server.MaxBodyBytes))
			r.Mount("/entities", entities.Routes())
		})

		if d.Hub != nil {
			whatIf := NewWhatIfHandler(d.Hub, cfg.WebSocket, cfg.Security.AllowedOrigins, errorHandler, logger)
			r.Get("/ws/what-if", whatIf.Handle)
		}
	})

	return r
}
