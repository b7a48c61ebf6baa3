package signal

import (
	"fmt"
	"sort"

	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

// Alerts inspects the latest rows of a derived series
func (a *Aggregator) Alerts(series []domain.DemandPoint) []domain.Alert {
	if len(series) == 0 {
		return nil
	}

	rows := make([]domain.DemandPoint, len(series))
	copy(rows, series)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	if len(rows) > a.params.AlertWindow {
		rows = rows[len(rows)-a.params.AlertWindow:]
	}

	latest := rows[len(rows)-1]
	var alerts []domain.Alert

	if bp := latest.BreakoutPercentile; bp != nil && *bp >= a.params.BreakoutPercentile {
		alerts = append(alerts, domain.Alert{
			Type:    domain.AlertBreakout,
			Date:    latest.Date,
			Value:   *bp,
			Message: fmt.Sprintf("Breakout detected: 7d avg at P%.0f of %d-day range", *bp, a.params.PercentileWindow),
		})
	}

	if len(rows) >= 2 {
		prev := rows[len(rows)-2]
		if prev.MA7 != nil && prev.MA28 != nil && latest.MA7 != nil && latest.MA28 != nil &&
			*prev.MA7 >= *prev.MA28 && *latest.MA7 < *latest.MA28 {
			alerts = append(alerts, domain.Alert{
				Type:    domain.AlertPeakTurn,
				Date:    latest.Date,
				Value:   *latest.MA7,
				Message: "Peak turn: MA7 crossed below MA28, trend may be declining",
			})
		}
	}

	if len(rows) >= a.params.SpikeMinPoints {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = r.Value
		}
		mean, sd := mathx.Mean(values), mathx.Stdev(values)
		limit := mean + a.params.SpikeSigma*sd
		if sd > 0 && latest.Value > limit {
			alerts = append(alerts, domain.Alert{
				Type:    domain.AlertSpike,
				Date:    latest.Date,
				Value:   latest.Value,
				Message: fmt.Sprintf("Spike: current value %.0f exceeds mean+%gσ (%.0f)", latest.Value, a.params.SpikeSigma, limit),
			})
		}
	}

	return alerts
}
