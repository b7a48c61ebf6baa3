package domain

// Dimension groups indicators into one of the five scoring dimensions
type Dimension string

const (
	DimensionDemand     Dimension = "demand"
	DimensionDiffusion  Dimension = "diffusion"
	DimensionSupply     Dimension = "supply"
	DimensionGatekeeper Dimension = "gatekeeper"
	DimensionFit        Dimension = "fit"
)

// Dimensions lists every dimension in display order
var Dimensions = []Dimension{
	DimensionDemand,
	DimensionDiffusion,
	DimensionSupply,
	DimensionGatekeeper,
	DimensionFit,
}

// IndicatorStatus records where an indicator value came from
type IndicatorStatus string

const (
	// StatusLive is derived from time-series or event data
	StatusLive IndicatorStatus = "LIVE"
	// StatusManual comes from a stored user override
	StatusManual IndicatorStatus = "MANUAL"
	// StatusMissing means neither data nor an override exists; the score is neutral
	StatusMissing IndicatorStatus = "MISSING"
)

// Indicator keys. The set is fixed; see indicator.Registry for metadata.
const (
	KeySearchMomentum        = "search_momentum"
	KeySocialBuzz            = "social_buzz"
	KeyVideoMomentum         = "video_momentum"
	KeyCrossAliasConsistency = "cross_alias_consistency"
	KeyCrossPlatformPresence = "cross_platform_presence"
	KeyEcommerceDensity      = "ecommerce_density"
	KeyFnbCollabSaturation   = "fnb_collab_saturation"
	KeyMerchPressure         = "merch_pressure"
	KeyRightsholderIntensity = "rightsholder_intensity"
	KeyTimingWindow          = "timing_window"
	KeyAdultFit              = "adult_fit"
	KeyGiftability           = "giftability"
	KeyBrandAesthetic        = "brand_aesthetic"

	// KeyTimingWindowOverride is the override slot for the LIVE timing window indicator
	KeyTimingWindowOverride = "timing_window_override"
)

// Raw payload keys shared between engines
const (
	RawWoWGrowth          = "wow_growth"
	RawAcceleration       = "acceleration"
	RawBreakoutPercentile = "breakout_percentile"
)

// NeutralScore is the score every MISSING indicator carries
const NeutralScore = 50.0

// Indicator is a normalized 0-100 signal with provenance
type Indicator struct {
	Key       string                 `json:"key"`
	Label     string                 `json:"label"`
	Dimension Dimension              `json:"dimension"`
	Status    IndicatorStatus        `json:"status"`
	Score     float64                `json:"score"`
	Raw       map[string]interface{} `json:"raw,omitempty"`
	Notes     []string               `json:"notes"`
}

// IsActive reports whether the indicator is backed by data or a stored override
func (i Indicator) IsActive() bool {
	return i.Status != StatusMissing
}

// Accelerating reports whether the raw payload carries a true acceleration flag
func (i Indicator) Accelerating() bool {
	if i.Raw == nil {
		return false
	}
	v, ok := i.Raw[RawAcceleration].(bool)
	return ok && v
}

// IndicatorSet is the full list of indicators computed for one entity
type IndicatorSet []Indicator

// Find returns the indicator with the given key
func (s IndicatorSet) Find(key string) (Indicator, bool) {
	for _, ind := range s {
		if ind.Key == key {
			return ind, true
		}
	}
	return Indicator{}, false
}

// ScoreOf returns the score for key, or the neutral score when absent
func (s IndicatorSet) ScoreOf(key string) float64 {
	if ind, ok := s.Find(key); ok {
		return ind.Score
	}
	return NeutralScore
}

// DimensionMean averages the scores of one dimension; an empty dimension is neutral
func (s IndicatorSet) DimensionMean(dim Dimension) float64 {
	var sum float64
	var n int
	for _, ind := range s {
		if ind.Dimension != dim {
			continue
		}
		sum += ind.Score
		n++
	}
	if n == 0 {
		return NeutralScore
	}
	return sum / float64(n)
}

// DimensionScores returns the mean score for every dimension
func (s IndicatorSet) DimensionScores() map[Dimension]float64 {
	out := make(map[Dimension]float64, len(Dimensions))
	for _, dim := range Dimensions {
		out[dim] = s.DimensionMean(dim)
	}
	return out
}

// ActiveCount counts indicators that are not MISSING
func (s IndicatorSet) ActiveCount() int {
	n := 0
	for _, ind := range s {
		if ind.IsActive() {
			n++
		}
	}
	return n
}
