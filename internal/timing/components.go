package timing

import (
	"math"
	"time"

	"brewsignal/internal/policy"
	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

// demandTrend extrapolates the smoothed demand series linearly
type demandTrend struct {
	asOf  time.Time
	base  float64
	slope float64 // points per week
}

// smoothing is how far a demand row has been smoothed
type smoothing int

const (
	smoothRaw smoothing = iota
	smoothMA7
	smoothMA28
)

func smoothingOf(p domain.DemandPoint) smoothing {
	switch {
	case p.MA28 != nil:
		return smoothMA28
	case p.MA7 != nil:
		return smoothMA7
	default:
		return smoothRaw
	}
}

func (s smoothing) value(p domain.DemandPoint) (float64, bool) {
	switch s {
	case smoothMA28:
		if p.MA28 == nil {
			return 0, false
		}
		return *p.MA28, true
	case smoothMA7:
		if p.MA7 == nil {
			return 0, false
		}
		return *p.MA7, true
	default:
		return p.Value, true
	}
}

// newDemandTrend fits base and slope on the rows smoothed like the latest row,
// so early rows lacking a moving average never mix raw values into the slope.
func newDemandTrend(rows []domain.DemandPoint, asOf time.Time) demandTrend {
	tr := demandTrend{asOf: asOf}
	if len(rows) == 0 {
		return tr
	}
	level := smoothingOf(rows[len(rows)-1])

	type sample struct {
		date  time.Time
		value float64
	}
	series := make([]sample, 0, len(rows))
	for _, r := range rows {
		if v, ok := level.value(r); ok {
			series = append(series, sample{date: r.Date, value: v})
		}
	}

	latest := series[len(series)-1]
	tr.base = mathx.Clamp100(latest.value)
	if len(series) >= 2 {
		oldest := series[0]
		span := math.Max(mathx.WeeksBetween(oldest.date, latest.date), 1)
		tr.slope = (latest.value - oldest.value) / span
	}
	return tr
}

func (tr demandTrend) at(week time.Time) float64 {
	return mathx.Clamp100(tr.base + tr.slope*mathx.WeeksBetween(tr.asOf, week))
}

// eventBoost sums a gaussian bump per event peaking a few weeks before the event date
func eventBoost(p policy.TimingPolicy, week time.Time, events []domain.EventRecord) float64 {
	var total float64
	for _, ev := range events {
		importance := p.DefaultImportance
		if ev.Importance != nil {
			importance = *ev.Importance
		}
		d := mathx.WeeksBetween(ev.EventDate, week) + p.EventPeakWeeksBefore
		total += importance * 100 * mathx.Gaussian(d, p.EventSigmaWeeks)
	}
	return mathx.Clamp100(total)
}

// merchSaturation maps a merch product count onto a capped saturating curve
func merchSaturation(p policy.TimingPolicy, count int) float64 {
	if count <= 0 {
		return 0
	}
	return math.Min(p.MerchSaturationCap, 100*(1-math.Exp(-float64(count)/p.MerchSaturationScale)))
}

// saturationCurve drifts upward from the current supply pressure
type saturationCurve struct {
	asOf  time.Time
	base  float64
	drift float64 // points per week
}

func newSaturationCurve(p policy.TimingPolicy, asOf time.Time, supplyMean float64, merchCount int) saturationCurve {
	base := math.Max(supplyMean, merchSaturation(p, merchCount))
	return saturationCurve{
		asOf:  asOf,
		base:  base,
		drift: p.SaturationDriftPerWeek * base / 100,
	}
}

func (s saturationCurve) at(week time.Time) float64 {
	weeks := math.Max(0, mathx.WeeksBetween(s.asOf, week))
	return mathx.Clamp100(s.base + s.drift*weeks)
}

// operationalRisk is high when production has too little buffer or the window is closing
func operationalRisk(p policy.TimingPolicy, asOf, week, end time.Time) float64 {
	buffer := mathx.WeeksBetween(asOf, week)
	early := mathx.Logistic(buffer, p.ProductionLeadWeeks+p.OpsBufferMarginWeeks, p.EarlyRiskSteepness)

	remaining := mathx.WeeksBetween(week, end)
	late := mathx.Logistic(remaining, p.LateRiskWeeks, p.LateRiskSteepness)

	return mathx.Clamp100(math.Max(early, late))
}
