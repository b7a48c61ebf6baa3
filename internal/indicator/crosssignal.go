package indicator

import (
	"fmt"

	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

// crossAliasConsistency measures how many qualifying aliases are rising.
// An alias qualifies with enough observations in the lookback, data on both sides
// of the midpoint and a mean above the noise floor.
func (e *Engine) crossAliasConsistency(def Definition, b domain.EntityBundle) domain.Indicator {
	p := e.params
	asOf := mathx.TruncateDay(b.AsOf.UTC())
	cutoff := asOf.AddDate(0, 0, -p.AliasLookbackDays)
	midpoint := asOf.AddDate(0, 0, -p.AliasLookbackDays/2)

	enabled := 0
	rising, qualifying := 0, 0
	for _, alias := range b.Aliases {
		if !alias.Enabled {
			continue
		}
		enabled++

		var all, prior, recent []float64
		for _, pt := range alias.Points {
			d := mathx.TruncateDay(pt.Date.UTC())
			if d.Before(cutoff) || d.After(asOf) {
				continue
			}
			all = append(all, pt.Value)
			if d.Before(midpoint) {
				prior = append(prior, pt.Value)
			} else {
				recent = append(recent, pt.Value)
			}
		}

		if len(all) < p.AliasMinObservations || len(prior) == 0 || len(recent) == 0 {
			continue
		}
		if mathx.Mean(all) < p.AliasMinMean {
			continue
		}

		qualifying++
		if mathx.Mean(recent) > mathx.Mean(prior) {
			rising++
		}
	}

	if enabled == 0 {
		return missing(def, "No enabled aliases")
	}
	if qualifying == 0 {
		return missing(def, fmt.Sprintf("No alias data qualifies (min %d points, avg >= %g)",
			p.AliasMinObservations, p.AliasMinMean))
	}

	ind := newIndicator(def, domain.StatusLive, 100*float64(rising)/float64(qualifying),
		fmt.Sprintf("%d/%d aliases rising in last %dd", rising, qualifying, p.AliasLookbackDays))
	ind.Raw = map[string]interface{}{"rising": rising, "total": qualifying}
	return ind
}
