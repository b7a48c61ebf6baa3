package timing

import (
	"slices"
	"time"

	"brewsignal/internal/shared/mathx"
	"brewsignal/pkg/contracts/domain"
)

// Empty plan reasons
const (
	ReasonInvalidWindow  = "license window ends before it starts"
	ReasonClosesTooEarly = "license window closes before the earliest feasible start"
	ReasonNoDemand       = "no demand data available"
)

type window struct {
	asOf  time.Time
	start time.Time
	end   time.Time
	// shifted is set when a past start was pushed forward from as-of
	shifted bool
}

func (w window) valid() bool {
	return !w.end.Before(w.start)
}

// resolveWindow picks the license window, falling back to a window relative to as-of
// and pushing a start that already passed into the future.
func (e *Engine) resolveWindow(b domain.EntityBundle) window {
	asOf := mathx.TruncateDay(b.AsOf.UTC())
	w := window{asOf: asOf}
	if b.License != nil {
		w.start = mathx.TruncateDay(b.License.Start.UTC())
		w.end = mathx.TruncateDay(b.License.End.UTC())
	} else {
		w.start = mathx.AddWeeks(asOf, e.params.FallbackStartWeeks)
		w.end = mathx.AddWeeks(asOf, e.params.FallbackEndWeeks)
	}
	if w.start.Before(asOf) && !w.end.Before(w.start) {
		w.start = mathx.AddWeeks(asOf, e.params.PastStartOffsetWeeks)
		w.shifted = true
	}
	return w
}

// emptyReason explains why an invalid window yields no plan
func (w window) emptyReason() string {
	if w.shifted {
		return ReasonClosesTooEarly
	}
	return ReasonInvalidWindow
}

// candidates lists week starts from the window start in 7 day steps, at most limit
// of them. truncated reports whether weeks inside the window were left out.
func (w window) candidates(limit int) (weeks []time.Time, truncated bool) {
	for t := w.start; !t.After(w.end); t = t.AddDate(0, 0, 7) {
		if len(weeks) == limit {
			return weeks, true
		}
		weeks = append(weeks, t)
	}
	return weeks, false
}

// eventsNear keeps events inside the window widened by margin weeks, ordered by date
func (w window) eventsNear(events []domain.EventRecord, marginWeeks int) []domain.EventRecord {
	lo := mathx.AddWeeks(w.start, -marginWeeks)
	hi := mathx.AddWeeks(w.end, marginWeeks)
	out := make([]domain.EventRecord, 0, len(events))
	for _, ev := range events {
		d := mathx.TruncateDay(ev.EventDate.UTC())
		if d.Before(lo) || d.After(hi) {
			continue
		}
		out = append(out, ev)
	}
	slices.SortStableFunc(out, func(a, b domain.EventRecord) int {
		return a.EventDate.Compare(b.EventDate)
	})
	return out
}

// demandHistory returns the trailing rows up to as-of, oldest first
func demandHistory(b domain.EntityBundle, asOf time.Time, limit int) []domain.DemandPoint {
	rows := make([]domain.DemandPoint, 0, len(b.Demand))
	for _, p := range b.Demand {
		if mathx.DaysBetween(asOf, p.Date) > 0 {
			continue
		}
		rows = append(rows, p)
	}
	slices.SortStableFunc(rows, func(a, b domain.DemandPoint) int {
		return a.Date.Compare(b.Date)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows
}
