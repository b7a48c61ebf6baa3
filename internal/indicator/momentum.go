package indicator

import (
	"fmt"

	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

// searchMomentum scores the latest demand row:
// 50 + wow term (capped) + acceleration bonus + breakout term (capped).
func (e *Engine) searchMomentum(def Definition, b domain.EntityBundle) domain.Indicator {
	latest, ok := latestDemand(b)
	if !ok || latest.WoWGrowth == nil {
		return missing(def, "No daily trend data")
	}

	p := e.params
	wow := *latest.WoWGrowth
	accel := latest.Acceleration != nil && *latest.Acceleration

	score := domain.NeutralScore
	score += mathx.Clamp(-p.WoWCap, p.WoWCap, wow*100*p.WoWScale)
	if accel {
		score += p.AccelerationBonus
	}

	raw := map[string]interface{}{
		domain.RawWoWGrowth:    wow,
		domain.RawAcceleration: accel,
	}
	notes := []string{fmt.Sprintf("WoW=%.4f", wow), fmt.Sprintf("accel=%t", accel)}

	if latest.BreakoutPercentile != nil {
		bp := *latest.BreakoutPercentile
		score += mathx.Clamp(-p.BreakoutCap, p.BreakoutCap, (bp-50)*p.BreakoutScale)
		raw[domain.RawBreakoutPercentile] = bp
		notes = append(notes, fmt.Sprintf("bp=%.1f", bp))
	} else {
		raw[domain.RawBreakoutPercentile] = nil
		notes = append(notes, "bp=none")
	}

	ind := newIndicator(def, domain.StatusLive, mathx.Clamp100(score), notes...)
	ind.Raw = raw
	return ind
}
