// Package testutil provides fixtures and log capture helpers for package tests.
package testutil

import (
	"time"

	"brewsignal/pkg/contracts/domain"
)

// AsOf is the reference evaluation day used across tests (a Monday)
var AsOf = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

// ManualKeys lists every user-estimated indicator key
var ManualKeys = []string{
	domain.KeySocialBuzz,
	domain.KeyVideoMomentum,
	domain.KeyCrossPlatformPresence,
	domain.KeyEcommerceDensity,
	domain.KeyFnbCollabSaturation,
	domain.KeyMerchPressure,
	domain.KeyRightsholderIntensity,
	domain.KeyAdultFit,
	domain.KeyGiftability,
	domain.KeyBrandAesthetic,
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// Day returns AsOf shifted by n days
func Day(n int) time.Time {
	return AsOf.AddDate(0, 0, n)
}

// Bundle returns an empty bundle for id evaluated at AsOf
func Bundle(id string) domain.EntityBundle {
	return domain.EntityBundle{
		EntityID:  id,
		Name:      id,
		Geo:       "TW",
		Timeframe: "12m",
		AsOf:      AsOf,
	}
}

// Overrides sets every manual key to value, then applies extra on top
func Overrides(value float64, extra map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(ManualKeys)+len(extra))
	for _, k := range ManualKeys {
		out[k] = value
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// DemandRow builds a demand point with derived fields already filled in
func DemandRow(date time.Time, value, wow float64, accel bool, bp float64) domain.DemandPoint {
	return domain.DemandPoint{
		Date:               date,
		Value:              value,
		MA7:                Ptr(value),
		MA28:               Ptr(value),
		WoWGrowth:          Ptr(wow),
		Acceleration:       Ptr(accel),
		BreakoutPercentile: Ptr(bp),
	}
}

// Series builds daily observations starting at start
func Series(start time.Time, values ...float64) []domain.SeriesPoint {
	out := make([]domain.SeriesPoint, len(values))
	for i, v := range values {
		out[i] = domain.SeriesPoint{Date: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

// RawDemand builds a daily demand series without derived fields, ending at end
func RawDemand(end time.Time, values ...float64) []domain.DemandPoint {
	out := make([]domain.DemandPoint, len(values))
	start := end.AddDate(0, 0, -(len(values) - 1))
	for i, v := range values {
		out[i] = domain.DemandPoint{Date: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

// Event builds an event record
func Event(title string, date time.Time, importance *float64) domain.EventRecord {
	return domain.EventRecord{
		EventType:  "release",
		Title:      title,
		EventDate:  date,
		Source:     "manual",
		Importance: importance,
	}
}

// Repeat returns n copies of v
func Repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
