package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"brewsignal/internal/config"
	"brewsignal/internal/infrastructure"
	"brewsignal/internal/policy"
	"brewsignal/internal/services"
	"brewsignal/internal/shared/testutil"
	"brewsignal/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type harness struct {
	hub    *Hub
	server *httptest.Server
	reader *sdkmetric.ManualReader
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	metrics, err := infrastructure.NewEngineMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	svc, err := services.NewEvaluationService(policy.Default(), services.Options{}, discardLogger())
	require.NoError(t, err)

	hub := NewHub(svc, config.Default().WebSocket, metrics, discardLogger())
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(r.Context(), conn, "trace-test")
	}))
	t.Cleanup(server.Close)

	return &harness{hub: hub, server: server, reader: reader}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ready := read(t, conn)
	require.Equal(t, TypeReady, ready.Type)
	require.NotEmpty(t, ready.SessionID)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func strongBundle() *domain.EntityBundle {
	b := testutil.Bundle("frieren")
	b.Demand = []domain.DemandPoint{testutil.DemandRow(testutil.AsOf, 60, 0.40, true, 90)}
	b.Overrides = testutil.Overrides(0.9, map[string]float64{
		domain.KeyEcommerceDensity:      0.1,
		domain.KeyFnbCollabSaturation:   0.1,
		domain.KeyMerchPressure:         0.1,
		domain.KeyRightsholderIntensity: 0.5,
	})
	b.Sources = []domain.SourceRegistration{
		{SourceKey: "google_trends", AvailabilityLevel: "high", PriorityWeight: 1, IsKeySource: true},
	}
	b.SourceHealth = []domain.SourceHealth{{SourceKey: "google_trends", Status: domain.SourceOK}}
	return &b
}

var zeroFit = map[string]float64{
	domain.KeyAdultFit:       0,
	domain.KeyGiftability:    0,
	domain.KeyBrandAesthetic: 0,
}

func TestSession_WhatIfFlow(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	send(t, conn, ClientMessage{Type: TypeBundle, Bundle: strongBundle()})
	first := read(t, conn)
	require.Equal(t, TypeEvaluation, first.Type, "error: %+v", first.Error)
	require.NotNil(t, first.Evaluation)
	assert.True(t, first.Evaluation.Allocation.FitGatePassed)
	assert.False(t, first.Evaluation.DryRun)
	assert.Nil(t, first.Evaluation.LaunchPlan)
	assert.Equal(t, int64(2), first.Sequence)

	send(t, conn, ClientMessage{Type: TypeOverrides, Overrides: zeroFit})
	patched := read(t, conn)
	require.Equal(t, TypeEvaluation, patched.Type)
	assert.False(t, patched.Evaluation.Allocation.FitGatePassed)
	assert.Equal(t, domain.DecisionReject, patched.Evaluation.Allocation.Decision)
	assert.True(t, patched.Evaluation.DryRun)
	assert.Equal(t, zeroFit, patched.Overrides)

	// Patches accumulate
	send(t, conn, ClientMessage{Type: TypeOverrides, Overrides: map[string]float64{domain.KeyRightsholderIntensity: 1}})
	stacked := read(t, conn)
	assert.Len(t, stacked.Overrides, 4)
	assert.Equal(t, domain.DecisionReject, stacked.Evaluation.Allocation.Decision)

	send(t, conn, ClientMessage{Type: TypeReset})
	reset := read(t, conn)
	require.Equal(t, TypeEvaluation, reset.Type)
	assert.Empty(t, reset.Overrides)
	assert.Equal(t, first.Evaluation.Allocation, reset.Evaluation.Allocation)
}

func TestSession_IncludePlan(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	b := strongBundle()
	b.License = &domain.LicenseWindow{Start: testutil.Day(28), End: testutil.Day(7 * 30)}
	include := true
	send(t, conn, ClientMessage{Type: TypeBundle, Bundle: b, IncludePlan: &include})

	msg := read(t, conn)
	require.Equal(t, TypeEvaluation, msg.Type)
	require.NotNil(t, msg.Evaluation.LaunchPlan)
	assert.NotNil(t, msg.Evaluation.LaunchPlan.RecommendedWeek)
}

func TestSession_Errors(t *testing.T) {
	tests := []struct {
		name     string
		frames   []string
		wantCode string
	}{
		{name: "patch before bundle", frames: []string{`{"type":"overrides","overrides":{"adult_fit":0.5}}`}, wantCode: CodeNoBundle},
		{name: "reset before bundle", frames: []string{`{"type":"reset"}`}, wantCode: CodeNoBundle},
		{name: "not json", frames: []string{`hello`}, wantCode: CodeInvalidMessage},
		{name: "unknown type", frames: []string{`{"type":"launch"}`}, wantCode: CodeInvalidMessage},
		{name: "bundle frame without bundle", frames: []string{`{"type":"bundle"}`}, wantCode: CodeInvalidMessage},
		{name: "invalid bundle", frames: []string{`{"type":"bundle","bundle":{"entity_id":""}}`}, wantCode: CodeValidationFailed},
		{
			name: "invalid patch",
			frames: []string{
				`{"type":"bundle","bundle":{"entity_id":"x","as_of":"2026-03-02T00:00:00Z"}}`,
				`{"type":"overrides","overrides":{"adult_fit":3}}`,
			},
			wantCode: CodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			conn := h.dial(t)

			var last ServerMessage
			for _, frame := range tt.frames {
				require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
				last = read(t, conn)
			}
			require.Equal(t, TypeError, last.Type)
			require.NotNil(t, last.Error)
			assert.Equal(t, tt.wantCode, last.Error.Code)

			// The session survives a rejected frame
			send(t, conn, ClientMessage{Type: TypeBundle, Bundle: strongBundle()})
			assert.Equal(t, TypeEvaluation, read(t, conn).Type)
		})
	}
}

func TestSession_InvalidPatchIsNotApplied(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	send(t, conn, ClientMessage{Type: TypeBundle, Bundle: strongBundle()})
	read(t, conn)

	send(t, conn, ClientMessage{Type: TypeOverrides, Overrides: map[string]float64{domain.KeyAdultFit: 0, domain.KeySearchMomentum: 0.2}})
	rejected := read(t, conn)
	require.Equal(t, TypeError, rejected.Type)
	assert.Contains(t, fieldsOf(rejected.Error), "overrides."+domain.KeySearchMomentum)

	send(t, conn, ClientMessage{Type: TypeOverrides, Overrides: map[string]float64{}})
	next := read(t, conn)
	assert.Empty(t, next.Overrides)
}

func fieldsOf(p *ErrorPayload) []string {
	out := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestSession_HeartbeatHasNoReply(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	send(t, conn, ClientMessage{Type: TypeHeartbeat})
	send(t, conn, ClientMessage{Type: TypeBundle, Bundle: strongBundle()})

	msg := read(t, conn)
	assert.Equal(t, TypeEvaluation, msg.Type)
	assert.Equal(t, int64(2), msg.Sequence)
}

func TestHub_SessionTrackingAndMetrics(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	assert.Eventually(t, func() bool { return h.hub.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	send(t, conn, ClientMessage{Type: TypeBundle, Bundle: strongBundle()})
	read(t, conn)

	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(1), sumOf(t, rm, "brewsignal_whatif_frames_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "brewsignal_whatif_sessions"))

	conn.Close()
	assert.Eventually(t, func() bool { return h.hub.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CloseAll(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	assert.Eventually(t, func() bool { return h.hub.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.hub.CloseAll()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Eventually(t, func() bool { return h.hub.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWithDefaults(t *testing.T) {
	cfg := withDefaults(config.WebSocketConfig{PongWait: 10 * time.Second, PingPeriod: 20 * time.Second})

	assert.Equal(t, 9*time.Second, cfg.PingPeriod)
	assert.Equal(t, config.Default().WebSocket.WriteWait, cfg.WriteWait)
	assert.Equal(t, config.Default().WebSocket.MaxMessageBytes, cfg.MaxMessageBytes)
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not collected", name)
	return 0
}
