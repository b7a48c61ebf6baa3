// Package allocation scores whether a BD slot should be committed to an entity now.
//
// The fit gate is a hard constraint: the weakest of the three fit indicators must reach
// the threshold or the decision is REJECT regardless of the weighted score. All other
// components are still computed so callers can see what the entity would have scored.
package allocation

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"brewsignal/internal/policy"
	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

// Engine computes Stage 1 allocation results
type Engine struct {
	params policy.AllocationPolicy
	logger *slog.Logger
}

// New creates an allocation engine bound to p
func New(p policy.Policy, logger *slog.Logger) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("create allocation engine: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		params: p.Allocation,
		logger: logger.With(slog.String("component", "allocation_engine")),
	}, nil
}

// Score computes the allocation result. A nil confidence applies the default multiplier.
func (e *Engine) Score(ctx context.Context, indicators domain.IndicatorSet, confidence *domain.ConfidenceResult) domain.AllocationResult {
	p := e.params

	fitGate := math.Min(indicators.ScoreOf(domain.KeyAdultFit),
		math.Min(indicators.ScoreOf(domain.KeyGiftability), indicators.ScoreOf(domain.KeyBrandAesthetic)))
	fitPassed := fitGate >= p.FitGateThreshold

	rightsholder := indicators.ScoreOf(domain.KeyRightsholderIntensity)
	timingRaw := indicators.ScoreOf(domain.KeyTimingWindow)
	timingUrgency := mathx.Clamp100(timingRaw * (1 + p.GatekeeperUrgencyFactor*rightsholder/100))

	demand := indicators.DimensionMean(domain.DimensionDemand)
	if momentum, ok := indicators.Find(domain.KeySearchMomentum); ok && momentum.Accelerating() {
		demand += p.AccelerationBonus
	}
	demandTrajectory := mathx.Clamp100(demand)

	marketGap := mathx.Clamp100(100 - indicators.DimensionMean(domain.DimensionSupply))

	feasibility := mathx.Clamp100(p.FeasibilityDiffusionWeight*indicators.DimensionMean(domain.DimensionDiffusion) +
		(1-p.FeasibilityDiffusionWeight)*(100-rightsholder))

	w := p.Weights
	raw := w.TimingUrgency*timingUrgency +
		w.DemandTrajectory*demandTrajectory +
		w.MarketGap*marketGap +
		w.Feasibility*feasibility

	multiplier := p.DefaultConfidenceMultiplier
	if confidence != nil {
		multiplier = mathx.Clamp(0, 1, float64(confidence.Score)/100)
	}
	bd := mathx.Clamp100(raw * multiplier)

	result := domain.AllocationResult{
		FitGateScore:         mathx.Round(fitGate, 1),
		FitGatePassed:        fitPassed,
		TimingUrgency:        mathx.Round(timingUrgency, 1),
		DemandTrajectory:     mathx.Round(demandTrajectory, 1),
		MarketGap:            mathx.Round(marketGap, 1),
		Feasibility:          mathx.Round(feasibility, 1),
		RawScore:             mathx.Round(raw, 1),
		ConfidenceMultiplier: mathx.Round(multiplier, 2),
		BDScore:              mathx.Round(bd, 1),
		Decision:             e.Decide(fitPassed, bd),
	}
	result.Explanations = Explain(result)

	e.logger.DebugContext(ctx, "allocation scored",
		"fit_gate", result.FitGateScore,
		"fit_passed", fitPassed,
		"raw_score", result.RawScore,
		"bd_score", result.BDScore,
		"decision", result.Decision,
	)
	return result
}

// Decide maps the gate and the discounted score onto a decision
func (e *Engine) Decide(fitPassed bool, bd float64) domain.Decision {
	switch {
	case !fitPassed:
		return domain.DecisionReject
	case bd >= e.params.StartThreshold:
		return domain.DecisionStart
	case bd >= e.params.MonitorThreshold:
		return domain.DecisionMonitor
	default:
		return domain.DecisionReject
	}
}
