package domain

import "time"

// Evaluation bundles every engine output for one entity
type Evaluation struct {
	EntityID        string                `json:"entity_id"`
	Name            string                `json:"name,omitempty"`
	AsOf            time.Time             `json:"as_of"`
	Indicators      IndicatorSet          `json:"indicators"`
	DimensionScores map[Dimension]float64 `json:"dimension_scores"`
	Confidence      ConfidenceResult      `json:"confidence"`
	Allocation      AllocationResult      `json:"allocation"`
	LaunchPlan      *LaunchPlan           `json:"launch_plan,omitempty"`
	Alerts          []Alert               `json:"alerts,omitempty"`
	DryRun          bool                  `json:"dry_run"`
}

// AlertType classifies a demand-series alert
type AlertType string

const (
	AlertBreakout AlertType = "breakout"
	AlertPeakTurn AlertType = "peak_turn"
	AlertSpike    AlertType = "spike"
)

// Alert is a notable change detected in the demand series
type Alert struct {
	Type    AlertType `json:"type"`
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
	Message string    `json:"message"`
}
