package timing

import (
	"fmt"
	"strings"

	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

const nearEventDays = 56

func (e *Engine) explain(rec domain.TimingGridPoint, events []domain.EventRecord, confidence *domain.ConfidenceResult) []string {
	lines := make([]string, 0, 4)

	switch {
	case rec.EventBoost > 30:
		lines = append(lines, fmt.Sprintf("Recommended week aligns with %s: event boost %.0f/100",
			nearEventNames(rec, events), rec.EventBoost))
	case rec.DemandScore > 60:
		lines = append(lines, fmt.Sprintf("Recommended week captures projected demand peak (%.0f/100)", rec.DemandScore))
	default:
		lines = append(lines, fmt.Sprintf("Recommended week balances demand (%.0f) vs. risk (%.0f)",
			rec.DemandScore, rec.OperationalRisk))
	}

	sat := rec.SaturationScore
	switch {
	case sat > 50:
		lines = append(lines, fmt.Sprintf("High market saturation (%.0f/100): consider differentiating launch positioning", sat))
	case sat > 20:
		lines = append(lines, fmt.Sprintf("Moderate market saturation (%.0f/100): reasonable competitive landscape", sat))
	default:
		lines = append(lines, fmt.Sprintf("Low market saturation (%.0f/100): open market opportunity", sat))
	}

	if rec.OperationalRisk > 50 {
		lines = append(lines, fmt.Sprintf("Tight operational timeline (risk %.0f/100): start production planning immediately", rec.OperationalRisk))
	} else {
		lines = append(lines, fmt.Sprintf("Comfortable operational buffer (risk %.0f/100)", rec.OperationalRisk))
	}

	if confidence != nil && confidence.Score < e.params.LowConfidenceThreshold {
		lines = append(lines, fmt.Sprintf("Low data confidence (%d%%): timing recommendation has wide uncertainty", confidence.Score))
	}
	return lines
}

func nearEventNames(rec domain.TimingGridPoint, events []domain.EventRecord) string {
	names := make([]string, 0, 2)
	for _, ev := range events {
		days := mathx.DaysBetween(rec.WeekStart, ev.EventDate)
		if days < 0 {
			days = -days
		}
		if days >= nearEventDays {
			continue
		}
		names = append(names, ev.Title)
		if len(names) == 2 {
			break
		}
	}
	if len(names) == 0 {
		return "upcoming event"
	}
	return strings.Join(names, ", ")
}
