package domain

import "time"

// RankEntry is one row of a ranking over many entities
type RankEntry struct {
	Rank             int            `json:"rank"`
	EntityID         string         `json:"entity_id"`
	Name             string         `json:"name,omitempty"`
	Decision         Decision       `json:"decision"`
	BDScore          float64        `json:"bd_score"`
	RawScore         float64        `json:"raw_score"`
	FitGatePassed    bool           `json:"fit_gate_passed"`
	ConfidenceScore  int            `json:"confidence_score"`
	ConfidenceBand   ConfidenceBand `json:"confidence_band"`
	RecommendedWeek  *time.Time     `json:"recommended_week,omitempty"`
	LaunchValue      *float64       `json:"launch_value,omitempty"`
	ActiveIndicators int            `json:"active_indicators"`
}

// NewRankEntry summarizes an evaluation; Rank is assigned by the caller
func NewRankEntry(e Evaluation) RankEntry {
	entry := RankEntry{
		EntityID:         e.EntityID,
		Name:             e.Name,
		Decision:         e.Allocation.Decision,
		BDScore:          e.Allocation.BDScore,
		RawScore:         e.Allocation.RawScore,
		FitGatePassed:    e.Allocation.FitGatePassed,
		ConfidenceScore:  e.Confidence.Score,
		ConfidenceBand:   e.Confidence.Band,
		ActiveIndicators: e.Indicators.ActiveCount(),
	}
	if e.LaunchPlan != nil {
		if best, ok := e.LaunchPlan.Best(); ok {
			week := best.WeekStart
			value := best.LaunchValue
			entry.RecommendedWeek = &week
			entry.LaunchValue = &value
		}
	}
	return entry
}
