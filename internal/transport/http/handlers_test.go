package http

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"brewsignal/internal/config"
	apierrors "brewsignal/internal/errors"
	"brewsignal/internal/shared/testutil"
	"brewsignal/pkg/contracts"
	"brewsignal/pkg/contracts/domain"
)

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, contracts.Version, resp.Build.Version)
	assert.Equal(t, 0, resp.WhatIfSessions)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestPolicy(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/policy", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, key := range []string{"signal", "indicator", "confidence", "allocation", "timing"} {
		assert.Contains(t, body, key)
	}
}

func TestEvaluate(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/entities/evaluate", EvaluateRequest{
		Bundle:      strongBundle("frieren"),
		IncludePlan: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var eval domain.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))
	assert.Equal(t, "frieren", eval.EntityID)
	assert.Equal(t, domain.DecisionStart, eval.Allocation.Decision)
	assert.False(t, eval.DryRun)
	require.NotNil(t, eval.LaunchPlan)
	assert.NotNil(t, eval.LaunchPlan.RecommendedWeek)
}

func TestEvaluate_DryRunOverrides(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/entities/evaluate", EvaluateRequest{
		Bundle: strongBundle("frieren"),
		Overrides: map[string]float64{
			domain.KeyAdultFit:       0,
			domain.KeyGiftability:    0,
			domain.KeyBrandAesthetic: 0,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var eval domain.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))
	assert.True(t, eval.DryRun)
	assert.False(t, eval.Allocation.FitGatePassed)
	assert.Equal(t, domain.DecisionReject, eval.Allocation.Decision)
	assert.Nil(t, eval.LaunchPlan)
}

func TestEvaluate_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
		wantType    string
		wantField   string
	}{
		{
			name:       "missing entity id",
			body:       `{"bundle":{"as_of":"2026-03-02T00:00:00Z"}}`,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "override out of range",
			body:       `{"bundle":{"entity_id":"x","as_of":"2026-03-02T00:00:00Z"},"overrides":{"adult_fit":2}}`,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "unknown override key",
			body:       `{"bundle":{"entity_id":"x","as_of":"2026-03-02T00:00:00Z"},"overrides":{"search_momentum":0.5}}`,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
			wantField:  "overrides.search_momentum",
		},
		{
			name:       "malformed json",
			body:       `{"bundle":`,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:        "wrong content type",
			body:        `{}`,
			contentType: "text/plain",
			wantStatus:  http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/entities/evaluate", strings.NewReader(tt.body))
			ct := tt.contentType
			if ct == "" {
				ct = "application/json"
			}
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			problem := decodeProblem(t, rec)
			assert.NotEmpty(t, problem["trace_id"])
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, problem["type"])
			}
			if tt.wantField != "" {
				assert.Contains(t, rec.Body.String(), tt.wantField)
			}
		})
	}
}

func TestRank_JSON(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/entities/rank", RankRequest{
		Bundles: []domain.EntityBundle{testutil.Bundle("zeta"), strongBundle("frieren"), testutil.Bundle("alpha")},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RankResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Count)

	ids := make([]string, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		ids = append(ids, e.EntityID)
	}
	assert.Equal(t, []string{"frieren", "alpha", "zeta"}, ids)
	assert.Equal(t, 1, resp.Entries[0].Rank)
	assert.NotNil(t, resp.Entries[0].RecommendedWeek)
}

func TestRank_Empty(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/entities/rank", RankRequest{})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RankResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestRank_TooMany(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Service.MaxRankBundles = 2 })

	rec := s.do(t, http.MethodPost, "/api/entities/rank", RankRequest{
		Bundles: []domain.EntityBundle{testutil.Bundle("a"), testutil.Bundle("b"), testutil.Bundle("c")},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, 3, decodeProblem(t, rec)["bundles"])
}

func TestRank_CSV(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/entities/rank?format=csv", RankRequest{
		Bundles: []domain.EntityBundle{strongBundle("frieren"), testutil.Bundle("alpha")},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, contentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ranking.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "rank", records[0][0])
	assert.Equal(t, []string{"1", "frieren"}, records[1][:2])
	assert.Equal(t, "START", records[1][3])
}

func TestRank_XLSX(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/entities/rank?format=xlsx", RankRequest{
		Bundles: []domain.EntityBundle{strongBundle("frieren")},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue("Ranking", "B2")
	require.NoError(t, err)
	assert.Equal(t, "frieren", value)
}

func TestRank_BadFormat(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/entities/rank?format=pdf", RankRequest{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeProblem(t, rec)["error_code"])
}

func TestLaunchPlan(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name      string
		bundle    domain.EntityBundle
		wantEmpty bool
	}{
		{name: "planned", bundle: strongBundle("frieren")},
		{name: "no demand", bundle: testutil.Bundle("alpha"), wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/entities/launch-plan", LaunchPlanRequest{Bundle: tt.bundle})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var plan domain.LaunchPlan
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
			assert.Equal(t, tt.wantEmpty, plan.Empty)
			if tt.wantEmpty {
				assert.Nil(t, plan.RecommendedWeek)
				assert.NotEmpty(t, plan.EmptyReason)
				return
			}
			require.NotNil(t, plan.RecommendedWeek)
			assert.NotEmpty(t, plan.Grid)
			assert.NotEmpty(t, plan.Milestones)
		})
	}
}

func TestRouting_Problems(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
		typ    string
	}{
		{name: "not found", method: http.MethodGet, path: "/api/nope", want: http.StatusNotFound, typ: apierrors.TypeNotFound},
		{name: "method not allowed", method: http.MethodGet, path: "/api/entities/evaluate", want: http.StatusMethodNotAllowed, typ: apierrors.TypeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, nil)
			require.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.typ, decodeProblem(t, rec)["type"])
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	})

	first := s.do(t, http.MethodGet, "/api/health", nil)
	second := s.do(t, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, apierrors.TypeRateLimit, decodeProblem(t, second)["type"])
}
