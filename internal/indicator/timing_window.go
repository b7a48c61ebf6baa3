package indicator

import (
	"fmt"
	"math"
	"sort"

	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

// timingStep produces the timing window indicator or declines
type timingStep func(def Definition, b domain.EntityBundle) (domain.Indicator, bool)

// timingWindow walks the precedence chain; the first step that answers wins
func (e *Engine) timingWindow(def Definition, b domain.EntityBundle) domain.Indicator {
	chain := []timingStep{
		e.timingFromOverride,
		e.timingFromUpcomingEvent,
		e.timingFromRecentEvent,
		e.timingFromSignalLight,
	}
	for _, step := range chain {
		if ind, ok := step(def, b); ok {
			return ind
		}
	}
	return missing(def, "No events and no trend data")
}

func (e *Engine) timingFromOverride(def Definition, b domain.EntityBundle) (domain.Indicator, bool) {
	v, ok := b.Override(domain.KeyTimingWindowOverride)
	if !ok || v == e.params.OverrideNeutral {
		return domain.Indicator{}, false
	}
	return newIndicator(def, domain.StatusManual, mathx.Clamp100(v*100),
		fmt.Sprintf("Manual override: %g", v)), true
}

func (e *Engine) timingFromUpcomingEvent(def Definition, b domain.EntityBundle) (domain.Indicator, bool) {
	var upcoming []domain.EventRecord
	for _, ev := range b.Events {
		if mathx.DaysBetween(b.AsOf, ev.EventDate) >= 0 {
			upcoming = append(upcoming, ev)
		}
	}
	if len(upcoming) == 0 {
		return domain.Indicator{}, false
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].EventDate.Before(upcoming[j].EventDate)
	})

	nearest := upcoming[0]
	weeks := mathx.WeeksBetween(b.AsOf, nearest.EventDate)
	score := LeadTimeScore(weeks, e.params.LeadTimeWeeks)

	ind := newIndicator(def, domain.StatusLive, mathx.Clamp100(score),
		fmt.Sprintf("Next event: %s in %.1fw (%s)", nearest.Title, weeks, nearest.EventDate.Format("2006-01-02")))
	ind.Raw = map[string]interface{}{
		"event":       nearest.Title,
		"event_date":  nearest.EventDate.Format("2006-01-02"),
		"event_type":  nearest.EventType,
		"weeks_until": mathx.Round(weeks, 1),
	}
	return ind, true
}

// LeadTimeScore rates how well an event weeks away fits a production lead time.
// Scores peak one week inside the lead time and fall off on both sides.
func LeadTimeScore(weeks, leadTime float64) float64 {
	center := leadTime - 1
	switch {
	case weeks >= center-3 && weeks <= center+3:
		return 95 - math.Abs(weeks-center)/3*15
	case weeks > center+3 && weeks <= center+9:
		return 75 - (weeks-(center+3))*2.5
	case weeks > center+9:
		return math.Max(40, 60-(weeks-(center+9)))
	case weeks >= center-7:
		return 50 + (weeks-(center-7))*5
	default:
		return 25 + weeks*6
	}
}

func (e *Engine) timingFromRecentEvent(def Definition, b domain.EntityBundle) (domain.Indicator, bool) {
	var (
		latest domain.EventRecord
		found  bool
	)
	for _, ev := range b.Events {
		ago := mathx.DaysBetween(ev.EventDate, b.AsOf)
		if ago <= 0 || ago > e.params.RecentEventDays {
			continue
		}
		if !found || ev.EventDate.After(latest.EventDate) {
			latest, found = ev, true
		}
	}
	if !found {
		return domain.Indicator{}, false
	}

	daysAgo := mathx.DaysBetween(latest.EventDate, b.AsOf)
	score := math.Max(e.params.RecentEventFloor, e.params.RecentEventBase-float64(daysAgo)*e.params.RecentEventDecay)

	ind := newIndicator(def, domain.StatusLive, mathx.Clamp100(score),
		fmt.Sprintf("Recent event: %s was %dd ago, fading momentum", latest.Title, daysAgo))
	ind.Raw = map[string]interface{}{
		"event":      latest.Title,
		"event_date": latest.EventDate.Format("2006-01-02"),
		"days_ago":   daysAgo,
	}
	return ind, true
}

func (e *Engine) timingFromSignalLight(def Definition, b domain.EntityBundle) (domain.Indicator, bool) {
	latest, ok := latestDemand(b)
	if !ok || latest.SignalLight == "" {
		return domain.Indicator{}, false
	}

	lights := e.params.SignalLightScores
	score := domain.NeutralScore
	switch latest.SignalLight {
	case domain.SignalGreen:
		score = lights.Green
	case domain.SignalYellow:
		score = lights.Yellow
	case domain.SignalRed:
		score = lights.Red
	}

	ind := newIndicator(def, domain.StatusLive, score,
		fmt.Sprintf("No events, fallback to trend signal_light=%s", latest.SignalLight))
	ind.Raw = map[string]interface{}{"fallback": "trend", "signal_light": string(latest.SignalLight)}
	return ind, true
}
