package signal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"brewsignal/internal/policy"
	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

// Aggregator builds and annotates demand series
type Aggregator struct {
	params policy.SignalPolicy
	logger *slog.Logger
}

// NewAggregator creates an Aggregator bound to p
func NewAggregator(p policy.Policy, logger *slog.Logger) (*Aggregator, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("create signal aggregator: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		params: p.Signal,
		logger: logger.With(slog.String("component", "signal_aggregator")),
	}, nil
}

// Composite merges enabled aliases into one weighted series, oldest first.
// Aliases with a non-positive weight do not contribute.
func (a *Aggregator) Composite(aliases []domain.AliasSeries) []domain.DemandPoint {
	type acc struct{ sum, weight float64 }
	byDate := make(map[time.Time]*acc)

	for _, alias := range aliases {
		if !alias.Enabled || alias.Weight <= 0 {
			continue
		}
		for _, pt := range alias.Points {
			d := mathx.TruncateDay(pt.Date.UTC())
			entry, ok := byDate[d]
			if !ok {
				entry = &acc{}
				byDate[d] = entry
			}
			entry.sum += pt.Value * alias.Weight
			entry.weight += alias.Weight
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]domain.DemandPoint, len(dates))
	for i, d := range dates {
		entry := byDate[d]
		out[i] = domain.DemandPoint{Date: d, Value: mathx.Round(entry.sum/entry.weight, 2)}
	}
	return out
}

// Derive recomputes every derived field from the raw values, oldest first.
// The input is not modified.
func (a *Aggregator) Derive(series []domain.DemandPoint) []domain.DemandPoint {
	rows := make([]domain.DemandPoint, len(series))
	copy(rows, series)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Value
	}

	var prevWoW *float64
	for i := range rows {
		agg := a.aggregate(values[:i+1], prevWoW)
		rows[i].MA7 = agg.ma7
		rows[i].MA28 = agg.ma28
		rows[i].WoWGrowth = agg.wow
		rows[i].Acceleration = agg.acceleration
		rows[i].BreakoutPercentile = agg.breakout
		rows[i].SignalLight = agg.light
		if agg.wow != nil {
			prevWoW = agg.wow
		}
	}
	return rows
}

type aggregation struct {
	ma7, ma28    *float64
	wow          *float64
	acceleration *bool
	breakout     *float64
	light        domain.SignalLight
}

// aggregate computes the derived fields of the last value in history
func (a *Aggregator) aggregate(history []float64, prevWoW *float64) aggregation {
	n := len(history)
	if n < 7 {
		return aggregation{}
	}

	var out aggregation
	ma7 := mathx.Mean(history[n-7:])
	out.ma7 = ptr(mathx.Round(ma7, 2))
	if n >= 28 {
		out.ma28 = ptr(mathx.Round(mathx.Mean(history[n-28:]), 2))
	}

	if n >= 14 {
		prev := mathx.Mean(history[n-14 : n-7])
		wow := 0.0
		if prev > 0 {
			wow = ma7/prev - 1
		}
		out.wow = ptr(mathx.Round(wow, 4))
	}

	accel := false
	if out.wow != nil && prevWoW != nil {
		accel = *out.wow > 0 && *prevWoW > 0 && *out.wow > *prevWoW
	}
	out.acceleration = &accel

	window := history
	if len(window) > a.params.PercentileWindow {
		window = window[len(window)-a.params.PercentileWindow:]
	}
	if len(window) >= 7 {
		out.breakout = ptr(mathx.Round(Percentile(window, ma7), 1))
	}

	out.light = a.Light(out.wow, accel, out.breakout, out.ma7, out.ma28)
	return out
}

// Percentile returns the share of values at or below v, as 0-100
func Percentile(values []float64, v float64) float64 {
	if len(values) == 0 {
		return 0
	}
	rank := 0
	for _, x := range values {
		if x <= v {
			rank++
		}
	}
	return float64(rank) / float64(len(values)) * 100
}

// Light classifies a row. Green needs strong growth, acceleration and a breakout;
// red needs MA7 under MA28 with shrinking demand.
func (a *Aggregator) Light(wow *float64, accel bool, breakout, ma7, ma28 *float64) domain.SignalLight {
	if wow != nil && *wow > a.params.GreenWoWThreshold &&
		accel &&
		breakout != nil && *breakout >= a.params.BreakoutPercentile {
		return domain.SignalGreen
	}
	if ma7 != nil && ma28 != nil && *ma7 < *ma28 && wow != nil && *wow < 0 {
		return domain.SignalRed
	}
	return domain.SignalYellow
}

// Enrich fills in the demand series of b when it is absent or lacks derived fields.
// A bundle whose series already carries derived fields is returned unchanged.
func (a *Aggregator) Enrich(ctx context.Context, b domain.EntityBundle) domain.EntityBundle {
	switch {
	case len(b.Demand) == 0 && len(b.Aliases) > 0:
		b.Demand = a.Derive(a.Composite(b.Aliases))
		a.logger.DebugContext(ctx, "demand series built from aliases",
			"entity_id", b.EntityID,
			"aliases", len(b.Aliases),
			"rows", len(b.Demand),
		)
	case len(b.Demand) > 0 && !hasDerived(b.Demand):
		b.Demand = a.Derive(b.Demand)
		a.logger.DebugContext(ctx, "demand series derived",
			"entity_id", b.EntityID,
			"rows", len(b.Demand),
		)
	}
	return b
}

func hasDerived(series []domain.DemandPoint) bool {
	for _, p := range series {
		if p.WoWGrowth != nil || p.MA7 != nil || p.MA28 != nil || p.SignalLight != "" {
			return true
		}
	}
	return false
}

func ptr(v float64) *float64 {
	return &v
}
