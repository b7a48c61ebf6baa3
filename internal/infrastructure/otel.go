package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"brewsignal/internal/config"
	"brewsignal/pkg/contracts"
)

const (
	ServiceName = "brewsignal"
	MeterName   = "brewsignal"
)

// OTelProviders holds the OpenTelemetry providers. Disabled signals get no-op
// implementations so callers never check for nil.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	MetricsHTTP    http.Handler
	Logger         *slog.Logger
}

// InitializeOTel wires tracing and metrics according to cfg
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(contracts.Version),
			semconv.DeploymentEnvironmentName(cfg.Environment),
			attribute.String("service.instance.id", instanceID()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Tracer:      tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:       metricnoop.NewMeterProvider().Meter(MeterName),
		MetricsHTTP: http.NotFoundHandler(),
		Logger:      logger,
	}

	if err := initializeTracing(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter),
		slog.String("environment", cfg.Environment))
	return providers, nil
}

func initializeTracing(cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	switch cfg.TraceExporter {
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		exporter = exp
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(contracts.Version))
	otel.SetTracerProvider(tp)
	return nil
}

func initializeMetrics(cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		// A private registry keeps repeated initialization from colliding on the default one
		registry := promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(contracts.Version))
		providers.MetricsHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		otel.SetMeterProvider(mp)
		return nil
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// EngineMetrics holds the application instruments. A nil *EngineMetrics records nothing.
type EngineMetrics struct {
	EvaluationsTotal    metric.Int64Counter
	EvaluationDuration  metric.Float64Histogram
	LaunchPlansTotal    metric.Int64Counter
	RankingsTotal       metric.Int64Counter
	RankedEntities      metric.Int64Histogram
	WhatIfSessions      metric.Int64UpDownCounter
	WhatIfFrames        metric.Int64Counter
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// NewEngineMetrics creates every instrument on meter
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	m := &EngineMetrics{}
	var err error

	if m.EvaluationsTotal, err = meter.Int64Counter("brewsignal_evaluations_total",
		metric.WithDescription("Entity evaluations by decision")); err != nil {
		return nil, err
	}
	if m.EvaluationDuration, err = meter.Float64Histogram("brewsignal_evaluation_duration_seconds",
		metric.WithDescription("Time spent evaluating one entity"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.LaunchPlansTotal, err = meter.Int64Counter("brewsignal_launch_plans_total",
		metric.WithDescription("Launch plans computed, split by empty result")); err != nil {
		return nil, err
	}
	if m.RankingsTotal, err = meter.Int64Counter("brewsignal_rankings_total",
		metric.WithDescription("Ranking runs")); err != nil {
		return nil, err
	}
	if m.RankedEntities, err = meter.Int64Histogram("brewsignal_ranked_entities",
		metric.WithDescription("Entities per ranking run")); err != nil {
		return nil, err
	}
	if m.WhatIfSessions, err = meter.Int64UpDownCounter("brewsignal_whatif_sessions",
		metric.WithDescription("Open what-if websocket sessions")); err != nil {
		return nil, err
	}
	if m.WhatIfFrames, err = meter.Int64Counter("brewsignal_whatif_frames_total",
		metric.WithDescription("What-if frames evaluated")); err != nil {
		return nil, err
	}
	if m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordEvaluation counts one evaluation and its latency
func (m *EngineMetrics) RecordEvaluation(ctx context.Context, decision string, dryRun bool, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("decision", decision),
		attribute.Bool("dry_run", dryRun),
	)
	m.EvaluationsTotal.Add(ctx, 1, attrs)
	m.EvaluationDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordLaunchPlan counts one launch plan
func (m *EngineMetrics) RecordLaunchPlan(ctx context.Context, empty bool) {
	if m == nil {
		return
	}
	m.LaunchPlansTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("empty", empty)))
}

// RecordRanking counts one ranking run over n entities
func (m *EngineMetrics) RecordRanking(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.RankingsTotal.Add(ctx, 1)
	m.RankedEntities.Record(ctx, int64(n))
}

// WhatIfSession adjusts the open session gauge by delta
func (m *EngineMetrics) WhatIfSession(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.WhatIfSessions.Add(ctx, delta)
}

// RecordWhatIfFrame counts one evaluated what-if frame
func (m *EngineMetrics) RecordWhatIfFrame(ctx context.Context) {
	if m == nil {
		return
	}
	m.WhatIfFrames.Add(ctx, 1)
}

// RecordHTTPRequest counts one served request
func (m *EngineMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// TraceIDFromContext returns the OpenTelemetry trace ID of the active span
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func instanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}
