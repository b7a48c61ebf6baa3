package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"brewsignal/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestInitializeOTel_PrometheusMetrics(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    1,
	}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.MeterProvider)
	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)

	metrics, err := NewEngineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordEvaluation(ctx, "START", false, 15*time.Millisecond)
	metrics.RecordLaunchPlan(ctx, true)
	metrics.RecordRanking(ctx, 4)
	metrics.RecordHTTPRequest(ctx, http.MethodPost, "/api/entities/evaluate", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	providers.MetricsHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "brewsignal_evaluations_total")
	assert.Contains(t, body, `decision="START"`)
	assert.Contains(t, body, "brewsignal_launch_plans_total")
	assert.Contains(t, body, "http_requests_total")
}

func TestInitializeOTel_RepeatedInitDoesNotCollide(t *testing.T) {
	cfg := config.TelemetryConfig{TraceExporter: "none", MetricExporter: "prometheus", SampleRatio: 1}
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(cfg, quietLogger())
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "none", MetricExporter: "none"}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.MeterProvider)
	metrics, err := NewEngineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordEvaluation(context.Background(), "REJECT", true, time.Millisecond)

	rec := httptest.NewRecorder()
	providers.MetricsHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "zipkin", MetricExporter: "none"}, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")

	_, err = InitializeOTel(config.TelemetryConfig{TraceExporter: "none", MetricExporter: "statsd"}, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metric exporter")
}

func TestNilEngineMetricsIsSafe(t *testing.T) {
	var m *EngineMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordEvaluation(ctx, "START", false, time.Second)
		m.RecordLaunchPlan(ctx, false)
		m.RecordRanking(ctx, 1)
		m.WhatIfSession(ctx, 1)
		m.RecordWhatIfFrame(ctx)
		m.RecordHTTPRequest(ctx, http.MethodGet, "/", http.StatusOK, time.Second)
	})
}

func TestTraceIDFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "evaluate")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
	assert.NotPanics(t, func() { RecordError(ctx, assert.AnError) })
}
