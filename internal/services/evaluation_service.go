package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"brewsignal/internal/allocation"
	"brewsignal/internal/confidence"
	"brewsignal/internal/indicator"
	"brewsignal/internal/infrastructure"
	"brewsignal/internal/policy"
	"brewsignal/internal/signal"
	"brewsignal/internal/timing"
	"brewsignal/pkg/contracts/domain"
)

// Options carries the optional collaborators of an EvaluationService
type Options struct {
	Metrics         *infrastructure.EngineMetrics
	Tracer          trace.Tracer
	RankConcurrency int
	MaxRankBundles  int
}

// EvaluateOptions tunes a single evaluation
type EvaluateOptions struct {
	// Overrides is applied over the bundle's stored overrides and never persisted
	Overrides map[string]float64
	// IncludePlan adds the Stage 2 launch plan to the result
	IncludePlan bool
}

// EvaluationService wires the engines into one evaluation pipeline
type EvaluationService struct {
	policy     policy.Policy
	aggregator *signal.Aggregator
	indicators *indicator.Engine
	confidence *confidence.Engine
	allocation *allocation.Engine
	timing     *timing.Engine

	metrics         *infrastructure.EngineMetrics
	tracer          trace.Tracer
	rankConcurrency int
	maxRankBundles  int
	logger          *slog.Logger
}

// NewEvaluationService builds every engine from p
func NewEvaluationService(p policy.Policy, opts Options, logger *slog.Logger) (*EvaluationService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &EvaluationService{
		policy:          p.Clone(),
		metrics:         opts.Metrics,
		tracer:          opts.Tracer,
		rankConcurrency: opts.RankConcurrency,
		maxRankBundles:  opts.MaxRankBundles,
		logger:          infrastructure.WithComponent(logger, "evaluation_service"),
	}
	if s.tracer == nil {
		s.tracer = tracenoop.NewTracerProvider().Tracer("brewsignal")
	}
	if s.rankConcurrency < 1 {
		s.rankConcurrency = 4
	}

	var err error
	if s.aggregator, err = signal.NewAggregator(p, logger); err != nil {
		return nil, err
	}
	if s.indicators, err = indicator.New(p, logger); err != nil {
		return nil, err
	}
	if s.confidence, err = confidence.New(p, logger); err != nil {
		return nil, err
	}
	if s.allocation, err = allocation.New(p, logger); err != nil {
		return nil, err
	}
	if s.timing, err = timing.New(p, logger); err != nil {
		return nil, err
	}
	return s, nil
}

// Policy returns a copy of the policy the engines were built with
func (s *EvaluationService) Policy() policy.Policy {
	return s.policy.Clone()
}

// Evaluate runs the full pipeline over one bundle
func (s *EvaluationService) Evaluate(ctx context.Context, b domain.EntityBundle, opts EvaluateOptions) (domain.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Evaluation{}, err
	}
	if err := ValidateBundle(b); err != nil {
		return domain.Evaluation{}, err
	}
	if err := ValidateOverrides(opts.Overrides); err != nil {
		return domain.Evaluation{}, err
	}

	ctx, span := s.tracer.Start(ctx, "evaluation.evaluate",
		trace.WithAttributes(attribute.String("entity.id", b.EntityID)))
	defer span.End()

	start := time.Now()
	dryRun := len(opts.Overrides) > 0
	if dryRun {
		b = b.WithOverrides(opts.Overrides)
	}

	b = s.aggregator.Enrich(ctx, b)
	set := s.indicators.Compute(ctx, b)
	conf := s.confidence.Compute(ctx, confidence.InputFromBundle(b, set))
	alloc := s.allocation.Score(ctx, set, &conf)

	eval := domain.Evaluation{
		EntityID:        b.EntityID,
		Name:            b.Name,
		AsOf:            b.AsOf,
		Indicators:      set,
		DimensionScores: set.DimensionScores(),
		Confidence:      conf,
		Allocation:      alloc,
		Alerts:          s.aggregator.Alerts(b.Demand),
		DryRun:          dryRun,
	}
	if opts.IncludePlan {
		plan := s.timing.Plan(ctx, b, set, &conf)
		eval.LaunchPlan = &plan
		s.metrics.RecordLaunchPlan(ctx, plan.Empty)
	}

	elapsed := time.Since(start)
	s.metrics.RecordEvaluation(ctx, string(alloc.Decision), dryRun, elapsed)
	span.SetAttributes(
		attribute.String("allocation.decision", string(alloc.Decision)),
		attribute.Float64("allocation.bd_score", alloc.BDScore),
		attribute.Int("confidence.score", conf.Score),
	)

	infrastructure.WithEntity(s.logger, b.EntityID, b.AsOf).InfoContext(ctx, "entity evaluated",
		"decision", alloc.Decision,
		"bd_score", alloc.BDScore,
		"confidence", conf.Score,
		"dry_run", dryRun,
		"duration_ms", elapsed.Milliseconds(),
	)
	return eval, nil
}

// LaunchPlan computes only the Stage 2 plan; indicators and confidence feed it
func (s *EvaluationService) LaunchPlan(ctx context.Context, b domain.EntityBundle, overrides map[string]float64) (domain.LaunchPlan, error) {
	if err := ctx.Err(); err != nil {
		return domain.LaunchPlan{}, err
	}
	if err := ValidateBundle(b); err != nil {
		return domain.LaunchPlan{}, err
	}
	if err := ValidateOverrides(overrides); err != nil {
		return domain.LaunchPlan{}, err
	}

	ctx, span := s.tracer.Start(ctx, "evaluation.launch_plan",
		trace.WithAttributes(attribute.String("entity.id", b.EntityID)))
	defer span.End()

	if len(overrides) > 0 {
		b = b.WithOverrides(overrides)
	}
	b = s.aggregator.Enrich(ctx, b)
	set := s.indicators.Compute(ctx, b)
	conf := s.confidence.Compute(ctx, confidence.InputFromBundle(b, set))
	plan := s.timing.Plan(ctx, b, set, &conf)

	s.metrics.RecordLaunchPlan(ctx, plan.Empty)
	span.SetAttributes(attribute.Bool("plan.empty", plan.Empty))

	attrs := []any{"empty", plan.Empty, "candidates", len(plan.Grid)}
	if plan.RecommendedWeek != nil {
		attrs = append(attrs, "recommended_week", plan.RecommendedWeek.Format(time.DateOnly))
	}
	infrastructure.WithEntity(s.logger, b.EntityID, b.AsOf).InfoContext(ctx, "launch plan computed", attrs...)
	return plan, nil
}

// Indicators computes the indicator set alone, for callers that only need dimension scores
func (s *EvaluationService) Indicators(ctx context.Context, b domain.EntityBundle) (domain.IndicatorSet, error) {
	if err := ValidateBundle(b); err != nil {
		return nil, err
	}
	return s.indicators.Compute(ctx, s.aggregator.Enrich(ctx, b)), nil
}
