package timing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"brewsignal/internal/policy"
	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

// Engine computes Stage 2 launch plans
type Engine struct {
	params policy.TimingPolicy
	logger *slog.Logger
}

// New creates a timing engine bound to p
func New(p policy.Policy, logger *slog.Logger) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("create timing engine: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		params: p.Clone().Timing,
		logger: logger.With(slog.String("component", "timing_engine")),
	}, nil
}

// Plan scores every candidate week of the license window and picks the launch week.
// indicators supply the current market pressure; confidence is optional and only
// affects the explanations.
func (e *Engine) Plan(ctx context.Context, b domain.EntityBundle, indicators domain.IndicatorSet, confidence *domain.ConfidenceResult) domain.LaunchPlan {
	w := e.resolveWindow(b)

	if !w.valid() {
		reason := w.emptyReason()
		e.logger.DebugContext(ctx, "launch plan empty",
			"entity_id", b.EntityID, "reason", reason,
			"license_start", w.start, "license_end", w.end)
		return emptyPlan(w, nil, reason)
	}

	events := w.eventsNear(b.Events, e.params.EventMarginWeeks)
	rows := demandHistory(b, w.asOf, e.params.DemandLookbackRows)
	if len(rows) == 0 {
		e.logger.DebugContext(ctx, "launch plan empty",
			"entity_id", b.EntityID, "reason", ReasonNoDemand)
		return emptyPlan(w, events, ReasonNoDemand)
	}

	weeks, truncated := w.candidates(e.params.MaxCandidateWeeks)
	grid := e.grid(w, weeks, rows, events, indicators.DimensionMean(domain.DimensionSupply), b.MerchProductCount)
	best, backups := e.selectWeeks(grid)
	recommended := grid[best].WeekStart

	plan := domain.LaunchPlan{
		Grid:            grid,
		RecommendedWeek: &recommended,
		BackupWeeks:     backups,
		Milestones:      e.milestones(recommended),
		LicenseStart:    w.start,
		LicenseEnd:      w.end,
		EventsInWindow:  events,
	}
	plan.Explanations = e.explain(grid[best], events, confidence)
	if truncated {
		plan.Explanations = append(plan.Explanations, fmt.Sprintf(
			"Launch window truncated to the first %d candidate weeks (license ends %s)",
			len(weeks), w.end.Format(time.DateOnly)))
	}

	e.logger.DebugContext(ctx, "launch plan computed",
		"entity_id", b.EntityID,
		"candidates", len(grid),
		"truncated", truncated,
		"recommended_week", recommended.Format(time.DateOnly),
		"launch_value", grid[best].LaunchValue,
		"backups", len(backups),
	)
	return plan
}

func (e *Engine) grid(w window, weeks []time.Time, rows []domain.DemandPoint, events []domain.EventRecord, supplyMean float64, merchCount int) []domain.TimingGridPoint {
	p := e.params
	demand := newDemandTrend(rows, w.asOf)
	saturation := newSaturationCurve(p, w.asOf, supplyMean, merchCount)

	grid := make([]domain.TimingGridPoint, 0, len(weeks))
	for _, week := range weeks {
		d := demand.at(week)
		boost := eventBoost(p, week, events)
		sat := saturation.at(week)
		risk := operationalRisk(p, w.asOf, week, w.end)

		value := p.Weights.Demand*d +
			p.Weights.Event*boost -
			p.Weights.Saturation*sat -
			p.Weights.OpsRisk*risk

		grid = append(grid, domain.TimingGridPoint{
			WeekStart:       week,
			DemandScore:     mathx.Round(d, 2),
			EventBoost:      mathx.Round(boost, 2),
			SaturationScore: mathx.Round(sat, 2),
			OperationalRisk: mathx.Round(risk, 2),
			LaunchValue:     mathx.Round(value, 2),
		})
	}
	return grid
}

// selectWeeks returns the index of the best week and the backup weeks.
// Ties go to the earliest week; backups keep the minimum spacing from every chosen week.
func (e *Engine) selectWeeks(grid []domain.TimingGridPoint) (int, []time.Time) {
	order := make([]int, len(grid))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case grid[a].LaunchValue > grid[b].LaunchValue:
			return -1
		case grid[a].LaunchValue < grid[b].LaunchValue:
			return 1
		default:
			return grid[a].WeekStart.Compare(grid[b].WeekStart)
		}
	})

	best := order[0]
	chosen := []time.Time{grid[best].WeekStart}
	backups := make([]time.Time, 0, e.params.BackupCount)
	for _, idx := range order[1:] {
		if len(backups) >= e.params.BackupCount {
			break
		}
		week := grid[idx].WeekStart
		if !e.spacedFrom(week, chosen) {
			continue
		}
		chosen = append(chosen, week)
		backups = append(backups, week)
	}
	return best, backups
}

func (e *Engine) spacedFrom(week time.Time, chosen []time.Time) bool {
	for _, c := range chosen {
		if math.Abs(mathx.WeeksBetween(c, week)) < e.params.BackupMinSpacingWeeks {
			return false
		}
	}
	return true
}

// milestones walks backwards from the launch week, returned in chronological order
func (e *Engine) milestones(launch time.Time) []domain.Milestone {
	out := make([]domain.Milestone, 0, len(e.params.Milestones))
	for _, m := range e.params.Milestones {
		out = append(out, domain.Milestone{
			Label:             m.Label,
			TargetDate:        mathx.AddWeeks(launch, -m.WeeksBefore),
			WeeksBeforeLaunch: m.WeeksBefore,
		})
	}
	slices.SortStableFunc(out, func(a, b domain.Milestone) int {
		return a.TargetDate.Compare(b.TargetDate)
	})
	return out
}

func emptyPlan(w window, events []domain.EventRecord, reason string) domain.LaunchPlan {
	if events == nil {
		events = []domain.EventRecord{}
	}
	return domain.LaunchPlan{
		Grid:           []domain.TimingGridPoint{},
		BackupWeeks:    []time.Time{},
		Milestones:     []domain.Milestone{},
		Empty:          true,
		EmptyReason:    reason,
		LicenseStart:   w.start,
		LicenseEnd:     w.end,
		EventsInWindow: events,
		Explanations:   []string{"Insufficient data to generate a launch plan: " + reason},
	}
}
