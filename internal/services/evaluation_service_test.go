package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	apperrors "brewsignal/internal/errors"
	"brewsignal/internal/infrastructure"
	"brewsignal/internal/policy"
	"brewsignal/internal/shared/testutil"
	"brewsignal/internal/timing"
	"brewsignal/pkg/contracts/domain"
)

func TestNewEvaluationService_InvalidPolicy(t *testing.T) {
	p := policy.Default()
	p.Allocation.Weights.MarketGap = -1

	_, err := NewEvaluationService(p, Options{}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestEvaluate_StrongEntityStarts(t *testing.T) {
	s := newService(t, Options{})

	eval, err := s.Evaluate(context.Background(), strongBundle("frieren"), EvaluateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "frieren", eval.EntityID)
	assert.False(t, eval.DryRun)
	assert.Nil(t, eval.LaunchPlan)
	assert.Len(t, eval.Indicators, 13)
	assert.Equal(t, 12, eval.Indicators.ActiveCount())
	assert.Equal(t, 95, eval.Confidence.Score)
	assert.True(t, eval.Allocation.FitGatePassed)
	assert.Equal(t, domain.DecisionStart, eval.Allocation.Decision)
	assert.InDelta(t, 92.0, eval.Allocation.RawScore, 1e-9)
	assert.InDelta(t, 87.4, eval.Allocation.BDScore, 1e-9)
	assert.Len(t, eval.Allocation.Explanations, 3)
	require.NotEmpty(t, eval.Alerts)
	assert.Equal(t, domain.AlertBreakout, eval.Alerts[0].Type)
}

func TestEvaluate_NoDataBaseline(t *testing.T) {
	s := newService(t, Options{})

	eval, err := s.Evaluate(context.Background(), testutil.Bundle("unknown"), EvaluateOptions{IncludePlan: true})
	require.NoError(t, err)

	for dim, score := range eval.DimensionScores {
		assert.Equal(t, 50.0, score, string(dim))
	}
	assert.Equal(t, 0, eval.Confidence.Score)
	assert.Equal(t, 52.6, eval.Allocation.RawScore)
	assert.Equal(t, 0.0, eval.Allocation.BDScore)
	assert.Equal(t, domain.DecisionReject, eval.Allocation.Decision)

	require.NotNil(t, eval.LaunchPlan)
	assert.True(t, eval.LaunchPlan.Empty)
	assert.Equal(t, timing.ReasonNoDemand, eval.LaunchPlan.EmptyReason)
}

func TestEvaluate_DryRunDoesNotTouchBundle(t *testing.T) {
	s := newService(t, Options{})
	b := strongBundle("frieren")

	eval, err := s.Evaluate(context.Background(), b, EvaluateOptions{
		Overrides: map[string]float64{domain.KeyAdultFit: 0.2},
	})
	require.NoError(t, err)

	assert.True(t, eval.DryRun)
	assert.False(t, eval.Allocation.FitGatePassed)
	assert.Equal(t, 20.0, eval.Allocation.FitGateScore)
	assert.Equal(t, domain.DecisionReject, eval.Allocation.Decision)
	assert.Equal(t, 0.9, b.Overrides[domain.KeyAdultFit])

	again, err := s.Evaluate(context.Background(), b, EvaluateOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionStart, again.Allocation.Decision)
}

func TestEvaluate_IsIdempotent(t *testing.T) {
	s := newService(t, Options{})
	b := strongBundle("frieren")

	first, err := s.Evaluate(context.Background(), b, EvaluateOptions{IncludePlan: true})
	require.NoError(t, err)
	second, err := s.Evaluate(context.Background(), b, EvaluateOptions{IncludePlan: true})
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated evaluation differs (-first +second):\n%s", diff)
	}
}

func TestEvaluate_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		bundle    func() domain.EntityBundle
		overrides map[string]float64
		wantField string
	}{
		{
			name:      "missing entity id",
			bundle:    func() domain.EntityBundle { return testutil.Bundle("") },
			wantField: "entity_id",
		},
		{
			name: "missing as-of",
			bundle: func() domain.EntityBundle {
				b := testutil.Bundle("x")
				b.AsOf = time.Time{}
				return b
			},
			wantField: "as_of",
		},
		{
			name:      "unknown override key",
			bundle:    func() domain.EntityBundle { return testutil.Bundle("x") },
			overrides: map[string]float64{"search_momentum": 0.5},
			wantField: "overrides.search_momentum",
		},
		{
			name:      "override out of range",
			bundle:    func() domain.EntityBundle { return testutil.Bundle("x") },
			overrides: map[string]float64{domain.KeyGiftability: 1.5},
			wantField: "overrides.giftability",
		},
		{
			name: "stored override out of range",
			bundle: func() domain.EntityBundle {
				b := testutil.Bundle("x")
				b.Overrides = map[string]float64{domain.KeyAdultFit: -0.1}
				return b
			},
			wantField: "overrides.adult_fit",
		},
	}

	s := newService(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Evaluate(context.Background(), tt.bundle(), EvaluateOptions{Overrides: tt.overrides})
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

			var verrs apperrors.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.Fields(), tt.wantField)
		})
	}
}

func TestEvaluate_CancelledContext(t *testing.T) {
	s := newService(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Evaluate(ctx, strongBundle("frieren"), EvaluateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_Logs(t *testing.T) {
	logger, h := testutil.NewTestLogger(t)
	s, err := NewEvaluationService(policy.Default(), Options{}, logger)
	require.NoError(t, err)

	_, err = s.Evaluate(context.Background(), strongBundle("frieren"), EvaluateOptions{})
	require.NoError(t, err)

	testutil.AssertLogContains(t, h, slog.LevelInfo, "entity evaluated")
	testutil.AssertLogContains(t, h, slog.LevelDebug, "allocation scored")
}

func TestLaunchPlan(t *testing.T) {
	s := newService(t, Options{})

	plan, err := s.LaunchPlan(context.Background(), strongBundle("frieren"), nil)
	require.NoError(t, err)
	require.False(t, plan.Empty)
	require.NotNil(t, plan.RecommendedWeek)
	assert.Len(t, plan.Milestones, 5)

	inverted := strongBundle("frieren")
	inverted.License = &domain.LicenseWindow{Start: testutil.Day(100), End: testutil.Day(50)}
	plan, err = s.LaunchPlan(context.Background(), inverted, nil)
	require.NoError(t, err)
	assert.True(t, plan.Empty)
	assert.Nil(t, plan.RecommendedWeek)
	assert.Empty(t, plan.Milestones)
}

func TestLaunchPlan_EarlyRawDayDoesNotInflateDemand(t *testing.T) {
	s := newService(t, Options{})
	values := testutil.Repeat(50, 60)
	values[0] = 5
	b := testutil.Bundle("flat")
	b.Demand = testutil.RawDemand(testutil.AsOf, values...)

	plan, err := s.LaunchPlan(context.Background(), b, nil)
	require.NoError(t, err)
	require.False(t, plan.Empty)

	// Only the first MA28 row still averages the dip, leaving a slope under 0.4 a week
	first, last := plan.Grid[0].DemandScore, plan.Grid[len(plan.Grid)-1].DemandScore
	assert.GreaterOrEqual(t, first, 50.0)
	assert.Less(t, first, 56.0)
	assert.Less(t, last, 61.0)
}

func TestEvaluate_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := infrastructure.NewEngineMetrics(mp.Meter("test"))
	require.NoError(t, err)
	s := newService(t, Options{Metrics: metrics})

	_, err = s.Evaluate(context.Background(), strongBundle("frieren"), EvaluateOptions{IncludePlan: true})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counts[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), counts["brewsignal_evaluations_total"])
	assert.Equal(t, int64(1), counts["brewsignal_launch_plans_total"])
}

func TestPolicy_ReturnsCopy(t *testing.T) {
	s := newService(t, Options{})
	p := s.Policy()
	p.Timing.Milestones[0].Label = "changed"
	p.Confidence.AvailabilityFactors["high"] = 0

	fresh := s.Policy()
	assert.Equal(t, "Design Start", fresh.Timing.Milestones[0].Label)
	assert.Equal(t, 1.0, fresh.Confidence.AvailabilityFactors["high"])
}
