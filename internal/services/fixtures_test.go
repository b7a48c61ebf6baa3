package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"brewsignal/internal/policy"
	"brewsignal/internal/shared/testutil"
	"brewsignal/pkg/contracts/domain"
)

func newService(t testing.TB, opts Options) *EvaluationService {
	t.Helper()
	s, err := NewEvaluationService(policy.Default(), opts, nil)
	require.NoError(t, err)
	return s
}

// strongBundle has live breakout demand, healthy sources and favorable overrides
func strongBundle(id string) domain.EntityBundle {
	b := testutil.Bundle(id)
	b.Demand = []domain.DemandPoint{testutil.DemandRow(testutil.AsOf, 60, 0.40, true, 90)}
	b.Overrides = testutil.Overrides(0.9, map[string]float64{
		domain.KeyEcommerceDensity:      0.1,
		domain.KeyFnbCollabSaturation:   0.1,
		domain.KeyMerchPressure:         0.1,
		domain.KeyRightsholderIntensity: 0.5,
		domain.KeyTimingWindowOverride:  0.9,
	})
	b.Sources = []domain.SourceRegistration{
		{SourceKey: "google_trends", AvailabilityLevel: "high", PriorityWeight: 1, IsKeySource: true},
		{SourceKey: "youtube", AvailabilityLevel: "high", PriorityWeight: 1, IsKeySource: true},
		{SourceKey: "shopee", AvailabilityLevel: "high", PriorityWeight: 1},
	}
	b.SourceHealth = []domain.SourceHealth{
		{SourceKey: "google_trends", Status: domain.SourceOK},
		{SourceKey: "youtube", Status: domain.SourceOK},
		{SourceKey: "shopee", Status: domain.SourceOK},
	}
	b.License = &domain.LicenseWindow{Start: testutil.Day(28), End: testutil.Day(7 * 30)}
	b.Events = []domain.EventRecord{testutil.Event("Anniversary", testutil.Day(7*20), nil)}
	return b
}
