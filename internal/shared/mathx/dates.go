package mathx

import "time"

const day = 24 * time.Hour

// TruncateDay drops the clock part of t, keeping its location
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the whole calendar days from a to b, negative when b is earlier
func DaysBetween(a, b time.Time) int {
	a, b = TruncateDay(a.UTC()), TruncateDay(b.UTC())
	return int(b.Sub(a).Round(day) / day)
}

// WeeksBetween returns DaysBetween(a, b) / 7 as a fraction
func WeeksBetween(a, b time.Time) float64 {
	return float64(DaysBetween(a, b)) / 7
}

// AddWeeks shifts t by n calendar weeks
func AddWeeks(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, 7*n)
}
