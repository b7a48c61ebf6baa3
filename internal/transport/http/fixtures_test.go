package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"brewsignal/internal/config"
	"brewsignal/internal/policy"
	"brewsignal/internal/services"
	"brewsignal/internal/shared/testutil"
	"brewsignal/internal/websocket"
	"brewsignal/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type testServer struct {
	handler http.Handler
	hub     *websocket.Hub
	service *services.EvaluationService
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false
	if mutate != nil {
		mutate(&cfg)
	}

	svc, err := services.NewEvaluationService(policy.Default(), services.Options{
		RankConcurrency: cfg.Service.RankConcurrency,
		MaxRankBundles:  cfg.Service.MaxRankBundles,
	}, discardLogger())
	require.NoError(t, err)
	hub := websocket.NewHub(svc, cfg.WebSocket, nil, discardLogger())

	return &testServer{
		handler: NewRouter(RouterDeps{
			Config:      &cfg,
			Service:     svc,
			Hub:         hub,
			MetricsHTTP: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "# metrics\n") }),
			Logger:      discardLogger(),
		}),
		hub:     hub,
		service: svc,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), rec.Body.String())
	return problem
}

// strongBundle evaluates to START with a non-empty launch plan
func strongBundle(id string) domain.EntityBundle {
	b := testutil.Bundle(id)
	b.Demand = []domain.DemandPoint{testutil.DemandRow(testutil.AsOf, 60, 0.40, true, 90)}
	b.Overrides = testutil.Overrides(0.9, map[string]float64{
		domain.KeyEcommerceDensity:      0.1,
		domain.KeyFnbCollabSaturation:   0.1,
		domain.KeyMerchPressure:         0.1,
		domain.KeyRightsholderIntensity: 0.5,
		domain.KeyTimingWindowOverride:  0.9,
	})
	b.Sources = []domain.SourceRegistration{
		{SourceKey: "google_trends", AvailabilityLevel: "high", PriorityWeight: 1, IsKeySource: true},
		{SourceKey: "youtube", AvailabilityLevel: "high", PriorityWeight: 1, IsKeySource: true},
		{SourceKey: "shopee", AvailabilityLevel: "high", PriorityWeight: 1},
	}
	b.SourceHealth = []domain.SourceHealth{
		{SourceKey: "google_trends", Status: domain.SourceOK},
		{SourceKey: "youtube", Status: domain.SourceOK},
		{SourceKey: "shopee", Status: domain.SourceOK},
	}
	b.License = &domain.LicenseWindow{Start: testutil.Day(28), End: testutil.Day(7 * 30)}
	b.Events = []domain.EventRecord{testutil.Event("Anniversary", testutil.Day(7*20), nil)}
	return b
}
