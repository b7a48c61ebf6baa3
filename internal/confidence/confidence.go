// Package confidence rates how far the indicator set can be trusted, from indicator
// coverage, source health and source availability.
package confidence

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"brewsignal/internal/indicator"
	"brewsignal/internal/policy"
	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

// Engine computes confidence results
type Engine struct {
	params policy.ConfidencePolicy
	logger *slog.Logger
}

// New creates a confidence engine bound to p
func New(p policy.Policy, logger *slog.Logger) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("create confidence engine: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		params: p.Confidence,
		logger: logger.With(slog.String("component", "confidence_engine")),
	}, nil
}

// Input is everything the confidence score depends on
type Input struct {
	Indicators domain.IndicatorSet
	Sources    []domain.SourceRegistration
	Health     []domain.SourceHealth
	// Now is the instant source staleness is measured against
	Now time.Time
}

// InputFromBundle pairs a bundle's source facts with its computed indicators
func InputFromBundle(b domain.EntityBundle, indicators domain.IndicatorSet) Input {
	return Input{
		Indicators: indicators,
		Sources:    b.Sources,
		Health:     b.SourceHealth,
		Now:        b.AsOf,
	}
}

// Compute returns a fresh confidence result
func (e *Engine) Compute(ctx context.Context, in Input) domain.ConfidenceResult {
	p := e.params
	total := indicator.Total
	active := in.Indicators.ActiveCount()

	statuses := e.sourceStatuses(in.Health, in.Now)

	expected := len(in.Sources)
	attempted, activeSources := 0, 0
	var missingSources []string
	for _, src := range in.Sources {
		status, seen := statuses[src.SourceKey]
		if seen {
			attempted++
			if status == domain.SourceOK {
				activeSources++
			}
		}
		if !seen || status == domain.SourceDown {
			missingSources = append(missingSources, src.SourceKey)
		}
	}
	sort.Strings(missingSources)

	indicatorCoverage := float64(active) / float64(total)
	sourceCoverage := 0.0
	if attempted > 0 && expected > 0 {
		sourceCoverage = (float64(activeSources) / float64(attempted)) * (float64(attempted) / float64(expected))
	}

	base := 100 * (p.IndicatorWeight*indicatorCoverage + p.SourceWeight*sourceCoverage)

	var penalty float64
	for _, src := range in.Sources {
		if !src.IsKeySource {
			continue
		}
		switch statuses[src.SourceKey] {
		case domain.SourceDown:
			penalty += p.KeySourceDownPenalty
		case domain.SourceWarn:
			penalty += p.KeySourceWarnPenalty
		}
	}

	missingKey := e.missingKeyIndicators(in.Indicators)
	penalty += math.Min(float64(len(missingKey))*p.KeyIndicatorMissingPenalty, p.KeyIndicatorPenaltyCap)
	fraction := math.Min(p.MaxPenaltyFraction, penalty/100)

	risk := e.riskAdjustment(in.Sources)
	score := int(math.Floor(mathx.Clamp100(base * risk * (1 - fraction))))

	result := domain.ConfidenceResult{
		Score:                score,
		Band:                 e.Band(score),
		IndicatorCoverage:    mathx.Round(indicatorCoverage, 4),
		SourceCoverage:       mathx.Round(sourceCoverage, 4),
		ActiveIndicators:     active,
		TotalIndicators:      total,
		ActiveSources:        activeSources,
		AttemptedSources:     attempted,
		ExpectedSources:      expected,
		MissingKeyIndicators: missingKey,
		MissingSources:       nonNil(missingSources),
		PenaltyPoints:        penalty,
		PenaltyFraction:      mathx.Round(fraction, 4),
		RiskAdjustment:       mathx.Round(risk, 4),
	}

	e.logger.DebugContext(ctx, "confidence computed",
		"score", result.Score,
		"band", result.Band,
		"active_indicators", active,
		"active_sources", activeSources,
		"penalty_points", penalty,
	)
	return result
}

// Band maps a score onto its band
func (e *Engine) Band(score int) domain.ConfidenceBand {
	s := float64(score)
	switch {
	case s >= e.params.Bands.High:
		return domain.BandHigh
	case s >= e.params.Bands.Medium:
		return domain.BandMedium
	case s >= e.params.Bands.Low:
		return domain.BandLow
	default:
		return domain.BandInsufficient
	}
}

// SourceStatus resolves the health of one source record at now.
// An explicit status wins; otherwise the age of the last success decides.
func (e *Engine) SourceStatus(h domain.SourceHealth, now time.Time) domain.SourceStatus {
	if h.Status != "" {
		return h.Status
	}
	if h.LastSuccessAt == nil {
		return domain.SourceDown
	}

	limits := e.params.StalenessFor(h.SourceKey)
	age := now.Sub(*h.LastSuccessAt).Hours()
	switch {
	case age <= limits.FreshHours:
		return domain.SourceOK
	case age <= limits.WarnHours:
		return domain.SourceWarn
	default:
		return domain.SourceDown
	}
}

func (e *Engine) sourceStatuses(health []domain.SourceHealth, now time.Time) map[string]domain.SourceStatus {
	out := make(map[string]domain.SourceStatus, len(health))
	for _, h := range health {
		out[h.SourceKey] = e.SourceStatus(h, now)
	}
	return out
}

func (e *Engine) missingKeyIndicators(set domain.IndicatorSet) []string {
	out := []string{}
	for _, key := range e.params.KeyIndicators {
		ind, ok := set.Find(key)
		if !ok || !ind.IsActive() {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// riskAdjustment is the priority-weighted mean availability factor
func (e *Engine) riskAdjustment(sources []domain.SourceRegistration) float64 {
	var sum, weight float64
	for _, src := range sources {
		sum += src.PriorityWeight * e.params.AvailabilityFactor(src.AvailabilityLevel)
		weight += src.PriorityWeight
	}
	if weight <= 0 {
		return 1.0
	}
	return sum / weight
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
