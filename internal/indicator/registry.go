package indicator

import (
	"brewsignal/pkg/contracts/domain"
)

// Family selects how an indicator is computed
type Family string

const (
	FamilyManual         Family = "manual"
	FamilySearchMomentum Family = "search_momentum"
	FamilyCrossSignal    Family = "cross_signal"
	FamilyTimingWindow   Family = "timing_window"
)

// Definition is the static metadata of one indicator
type Definition struct {
	Key       string           `json:"key"`
	Label     string           `json:"label"`
	Dimension domain.Dimension `json:"dimension"`
	Family    Family           `json:"family"`
}

// Live reports whether the indicator is derived from data rather than user input
func (d Definition) Live() bool {
	return d.Family != FamilyManual
}

var registry = []Definition{
	{domain.KeySearchMomentum, "Search Momentum", domain.DimensionDemand, FamilySearchMomentum},
	{domain.KeySocialBuzz, "Social Buzz", domain.DimensionDemand, FamilyManual},
	{domain.KeyVideoMomentum, "Video Momentum", domain.DimensionDemand, FamilyManual},
	{domain.KeyCrossAliasConsistency, "Cross-alias Consistency", domain.DimensionDiffusion, FamilyCrossSignal},
	{domain.KeyCrossPlatformPresence, "Cross-platform Presence", domain.DimensionDiffusion, FamilyManual},
	{domain.KeyEcommerceDensity, "E-commerce Density", domain.DimensionSupply, FamilyManual},
	{domain.KeyFnbCollabSaturation, "F&B Collab Saturation", domain.DimensionSupply, FamilyManual},
	{domain.KeyMerchPressure, "Merch Pressure", domain.DimensionSupply, FamilyManual},
	{domain.KeyRightsholderIntensity, "Rightsholder Intensity", domain.DimensionGatekeeper, FamilyManual},
	{domain.KeyTimingWindow, "Timing Window", domain.DimensionGatekeeper, FamilyTimingWindow},
	{domain.KeyAdultFit, "Adult Fit", domain.DimensionFit, FamilyManual},
	{domain.KeyGiftability, "Giftability", domain.DimensionFit, FamilyManual},
	{domain.KeyBrandAesthetic, "Brand Aesthetic", domain.DimensionFit, FamilyManual},
}

// Total is the fixed number of indicators
var Total = len(registry)

// Registry returns every definition in display order
func Registry() []Definition {
	out := make([]Definition, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the definition for key
func Lookup(key string) (Definition, bool) {
	for _, d := range registry {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// OverrideKeys lists every key accepted in a bundle's override map
func OverrideKeys() []string {
	keys := make([]string, 0, len(registry)+1)
	for _, d := range registry {
		if !d.Live() {
			keys = append(keys, d.Key)
		}
	}
	return append(keys, domain.KeyTimingWindowOverride)
}

// IsOverrideKey reports whether key may appear in an override map
func IsOverrideKey(key string) bool {
	for _, k := range OverrideKeys() {
		if k == key {
			return true
		}
	}
	return false
}
