package allocation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewsignal/internal/indicator"
	"brewsignal/internal/policy"
	"brewsignal/pkg/contracts/domain"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(policy.Default(), nil)
	require.NoError(t, err)
	return e
}

// uniformSet scores every indicator at base, then applies scores on top
func uniformSet(base float64, status domain.IndicatorStatus, scores map[string]float64) domain.IndicatorSet {
	set := domain.IndicatorSet{}
	for _, def := range indicator.Registry() {
		s := base
		if v, ok := scores[def.Key]; ok {
			s = v
		}
		set = append(set, domain.Indicator{Key: def.Key, Label: def.Label, Dimension: def.Dimension, Status: status, Score: s})
	}
	return set
}

func withScores(set domain.IndicatorSet, dim domain.Dimension, score float64) domain.IndicatorSet {
	out := make(domain.IndicatorSet, len(set))
	copy(out, set)
	for i := range out {
		if out[i].Dimension == dim {
			out[i].Score = score
		}
	}
	return out
}

func TestScore_FitGateRejectsDespiteHighRawScore(t *testing.T) {
	e := newEngine(t)
	set := uniformSet(80, domain.StatusManual, map[string]float64{
		domain.KeyAdultFit:       20,
		domain.KeyGiftability:    90,
		domain.KeyBrandAesthetic: 90,
	})
	conf := &domain.ConfidenceResult{Score: 100}

	got := e.Score(context.Background(), set, conf)

	assert.Equal(t, 20.0, got.FitGateScore)
	assert.False(t, got.FitGatePassed)
	assert.InDelta(t, 99.2, got.TimingUrgency, 1e-9)
	assert.Equal(t, 80.0, got.DemandTrajectory)
	assert.Equal(t, 20.0, got.MarketGap)
	assert.Equal(t, 50.0, got.Feasibility)
	assert.Greater(t, got.RawScore, 70.0)
	assert.Greater(t, got.BDScore, 70.0)
	assert.Equal(t, domain.DecisionReject, got.Decision)
	require.NotEmpty(t, got.Explanations)
	assert.True(t, strings.HasPrefix(got.Explanations[0], "Fit gate failed (20)"))
}

func TestScore_NeutralBaseline(t *testing.T) {
	e := newEngine(t)
	set := uniformSet(50, domain.StatusMissing, nil)

	got := e.Score(context.Background(), set, nil)

	// tu = 50*(1+0.3*0.5) = 57.5; raw = 0.35*57.5 + 0.30*50 + 0.20*50 + 0.15*50
	assert.Equal(t, 50.0, got.FitGateScore)
	assert.True(t, got.FitGatePassed)
	assert.Equal(t, 57.5, got.TimingUrgency)
	assert.Equal(t, 50.0, got.DemandTrajectory)
	assert.Equal(t, 50.0, got.MarketGap)
	assert.Equal(t, 50.0, got.Feasibility)
	assert.Equal(t, 52.6, got.RawScore)
	assert.Equal(t, 0.5, got.ConfidenceMultiplier)
	assert.Equal(t, 26.3, got.BDScore)
	assert.Equal(t, domain.DecisionReject, got.Decision)
	assert.Len(t, got.Explanations, 3)

	zero := e.Score(context.Background(), set, &domain.ConfidenceResult{Score: 0})
	assert.Equal(t, 0.0, zero.BDScore)
	assert.Equal(t, 0.0, zero.ConfidenceMultiplier)
}

func TestScore_Decisions(t *testing.T) {
	e := newEngine(t)
	set := uniformSet(100, domain.StatusManual, map[string]float64{domain.KeyRightsholderIntensity: 0})
	set = withScores(set, domain.DimensionSupply, 0)

	tests := []struct {
		name       string
		confidence int
		wantBD     float64
		want       domain.Decision
	}{
		{"start", 80, 80, domain.DecisionStart},
		{"start at threshold", 70, 70, domain.DecisionStart},
		{"monitor", 50, 50, domain.DecisionMonitor},
		{"monitor at threshold", 40, 40, domain.DecisionMonitor},
		{"reject", 30, 30, domain.DecisionReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Score(context.Background(), set, &domain.ConfidenceResult{Score: tt.confidence})
			assert.Equal(t, 100.0, got.RawScore)
			assert.InDelta(t, tt.wantBD, got.BDScore, 1e-9)
			assert.Equal(t, tt.want, got.Decision)
		})
	}
}

func TestScore_AccelerationBonus(t *testing.T) {
	e := newEngine(t)
	set := uniformSet(60, domain.StatusLive, nil)
	plain := e.Score(context.Background(), set, nil)

	for i := range set {
		if set[i].Key == domain.KeySearchMomentum {
			set[i].Raw = map[string]interface{}{domain.RawAcceleration: true}
		}
	}
	boosted := e.Score(context.Background(), set, nil)

	assert.Equal(t, 60.0, plain.DemandTrajectory)
	assert.Equal(t, 70.0, boosted.DemandTrajectory)
}

func TestScore_UrgencyGrowsWithRightsholderIntensity(t *testing.T) {
	e := newEngine(t)
	prev := -1.0
	for r := 0.0; r <= 100; r += 10 {
		set := uniformSet(60, domain.StatusManual, map[string]float64{domain.KeyRightsholderIntensity: r})
		got := e.Score(context.Background(), set, nil)
		assert.GreaterOrEqual(t, got.TimingUrgency, prev, "rightsholder=%v", r)
		prev = got.TimingUrgency
	}
}

func TestScore_UrgencyGrowsWithTimingWindow(t *testing.T) {
	tests := []struct {
		name         string
		rightsholder float64
	}{
		{name: "no rightsholder pressure", rightsholder: 0},
		{name: "moderate rightsholder", rightsholder: 50},
		{name: "saturated rightsholder", rightsholder: 100},
	}

	e := newEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := -1.0
			for timing := 0.0; timing <= 100; timing += 5 {
				set := uniformSet(60, domain.StatusManual, map[string]float64{
					domain.KeyTimingWindow:          timing,
					domain.KeyRightsholderIntensity: tt.rightsholder,
				})
				got := e.Score(context.Background(), set, nil)
				assert.GreaterOrEqual(t, got.TimingUrgency, prev, "timing_window=%v", timing)
				prev = got.TimingUrgency
			}
		})
	}
}

func TestScore_AllComponentsBounded(t *testing.T) {
	e := newEngine(t)
	for _, base := range []float64{0, 25, 50, 75, 100} {
		set := uniformSet(base, domain.StatusManual, nil)
		for _, conf := range []*domain.ConfidenceResult{nil, {Score: 0}, {Score: 100}} {
			got := e.Score(context.Background(), set, conf)
			for name, v := range map[string]float64{
				"fit_gate":          got.FitGateScore,
				"timing_urgency":    got.TimingUrgency,
				"demand_trajectory": got.DemandTrajectory,
				"market_gap":        got.MarketGap,
				"feasibility":       got.Feasibility,
				"bd_score":          got.BDScore,
			} {
				assert.GreaterOrEqual(t, v, 0.0, name)
				assert.LessOrEqual(t, v, 100.0, name)
			}
		}
	}
}

func TestScore_HigherConfidenceNeverLowersBDScore(t *testing.T) {
	e := newEngine(t)
	set := uniformSet(70, domain.StatusManual, nil)
	prev := -1.0
	for c := 0; c <= 100; c += 5 {
		got := e.Score(context.Background(), set, &domain.ConfidenceResult{Score: c})
		assert.GreaterOrEqual(t, got.BDScore, prev)
		prev = got.BDScore
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name   string
		result domain.AllocationResult
		want   []string
	}{
		{
			name: "strong and confident",
			result: domain.AllocationResult{
				FitGatePassed: true, TimingUrgency: 85, DemandTrajectory: 72, MarketGap: 65,
				Feasibility: 60, ConfidenceMultiplier: 0.9,
			},
			want: []string{
				"High timing urgency (85): start BD now or risk missing the launch window",
				"Strong demand trajectory (72) with open market gap (65)",
				"Feasibility OK (60), confidence 90%",
			},
		},
		{
			name: "weak with poor feasibility",
			result: domain.AllocationResult{
				FitGatePassed: true, TimingUrgency: 55, DemandTrajectory: 40, MarketGap: 30,
				Feasibility: 35, ConfidenceMultiplier: 0.7,
			},
			want: []string{
				"Moderate timing urgency (55): window is approaching, monitor closely",
				"Weak demand trajectory (40), market gap at 30",
				"Feasibility concern (35): difficult rightsholder or limited platform presence",
			},
		},
		{
			name: "low confidence",
			result: domain.AllocationResult{
				FitGatePassed: true, TimingUrgency: 20, DemandTrajectory: 55, MarketGap: 50,
				Feasibility: 80, ConfidenceMultiplier: 0.3,
			},
			want: []string{
				"Low timing urgency (20): no immediate pressure to start BD",
				"Moderate demand (55), market gap at 50",
				"Low data confidence (30%): score significantly discounted",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Explain(tt.result))
		})
	}
}
