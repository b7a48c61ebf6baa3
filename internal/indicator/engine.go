package indicator

import (
	"context"
	"fmt"
	"log/slog"

	"brewsignal/internal/policy"
	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

type strategy func(def Definition, b domain.EntityBundle) domain.Indicator

// Engine computes the indicator set for one bundle
type Engine struct {
	params     policy.IndicatorPolicy
	strategies map[Family]strategy
	logger     *slog.Logger
}

// New creates an indicator engine bound to p
func New(p policy.Policy, logger *slog.Logger) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("create indicator engine: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		params: p.Indicator,
		logger: logger.With(slog.String("component", "indicator_engine")),
	}
	e.strategies = map[Family]strategy{
		FamilyManual:         e.manual,
		FamilySearchMomentum: e.searchMomentum,
		FamilyCrossSignal:    e.crossAliasConsistency,
		FamilyTimingWindow:   e.timingWindow,
	}
	return e, nil
}

// Compute returns all indicators in registry order
func (e *Engine) Compute(ctx context.Context, b domain.EntityBundle) domain.IndicatorSet {
	out := make(domain.IndicatorSet, 0, len(registry))
	for _, def := range registry {
		ind := e.strategies[def.Family](def, b)
		ind.Score = mathx.Round(mathx.Clamp100(ind.Score), 1)
		if ind.Notes == nil {
			ind.Notes = []string{}
		}
		out = append(out, ind)
	}

	e.logger.DebugContext(ctx, "indicators computed",
		"entity_id", b.EntityID,
		"active", out.ActiveCount(),
		"total", len(out),
	)
	return out
}

// ComputeOne returns a single indicator by key
func (e *Engine) ComputeOne(b domain.EntityBundle, key string) (domain.Indicator, error) {
	def, ok := Lookup(key)
	if !ok {
		return domain.Indicator{}, fmt.Errorf("unknown indicator %q", key)
	}
	ind := e.strategies[def.Family](def, b)
	ind.Score = mathx.Round(mathx.Clamp100(ind.Score), 1)
	return ind, nil
}

func newIndicator(def Definition, status domain.IndicatorStatus, score float64, notes ...string) domain.Indicator {
	return domain.Indicator{
		Key:       def.Key,
		Label:     def.Label,
		Dimension: def.Dimension,
		Status:    status,
		Score:     score,
		Notes:     notes,
	}
}

func missing(def Definition, note string) domain.Indicator {
	return newIndicator(def, domain.StatusMissing, domain.NeutralScore, note)
}

// latestDemand returns the newest demand row dated on or before the as-of day
func latestDemand(b domain.EntityBundle) (domain.DemandPoint, bool) {
	var (
		latest domain.DemandPoint
		found  bool
	)
	for _, p := range b.Demand {
		if mathx.DaysBetween(b.AsOf, p.Date) > 0 {
			continue
		}
		if !found || p.Date.After(latest.Date) {
			latest, found = p, true
		}
	}
	return latest, found
}
