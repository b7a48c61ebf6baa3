package domain

// ConfidenceBand is the qualitative bucket of a confidence score
type ConfidenceBand string

const (
	BandHigh         ConfidenceBand = "high"
	BandMedium       ConfidenceBand = "medium"
	BandLow          ConfidenceBand = "low"
	BandInsufficient ConfidenceBand = "insufficient"
)

// ConfidenceResult describes how much the current indicator set can be trusted
type ConfidenceResult struct {
	Score                int            `json:"score"`
	Band                 ConfidenceBand `json:"band"`
	IndicatorCoverage    float64        `json:"indicator_coverage"`
	SourceCoverage       float64        `json:"source_coverage"`
	ActiveIndicators     int            `json:"active_indicators"`
	TotalIndicators      int            `json:"total_indicators"`
	ActiveSources        int            `json:"active_sources"`
	AttemptedSources     int            `json:"attempted_sources"`
	ExpectedSources      int            `json:"expected_sources"`
	MissingKeyIndicators []string       `json:"missing_key_indicators"`
	MissingSources       []string       `json:"missing_sources"`
	PenaltyPoints        float64        `json:"penalty_points"`
	PenaltyFraction      float64        `json:"penalty_fraction"`
	RiskAdjustment       float64        `json:"risk_adjustment"`
}
