package domain

import "time"

// TimingGridPoint is the scored breakdown of one candidate launch week
type TimingGridPoint struct {
	WeekStart       time.Time `json:"week_start"`
	DemandScore     float64   `json:"demand_score"`
	EventBoost      float64   `json:"event_boost"`
	SaturationScore float64   `json:"saturation_score"`
	OperationalRisk float64   `json:"operational_risk"`
	LaunchValue     float64   `json:"launch_value"`
}

// Milestone is a production checkpoint placed before the launch week
type Milestone struct {
	Label             string    `json:"label"`
	TargetDate        time.Time `json:"target_date"`
	WeeksBeforeLaunch int       `json:"weeks_before_launch"`
}

// LaunchPlan is the Stage 2 result: the scored grid and the chosen weeks
type LaunchPlan struct {
	Grid            []TimingGridPoint `json:"grid"`
	RecommendedWeek *time.Time        `json:"recommended_week"`
	BackupWeeks     []time.Time       `json:"backup_weeks"`
	Milestones      []Milestone       `json:"milestones"`
	Empty           bool              `json:"empty"`
	EmptyReason     string            `json:"empty_reason,omitempty"`
	LicenseStart    time.Time         `json:"license_start"`
	LicenseEnd      time.Time         `json:"license_end"`
	EventsInWindow  []EventRecord     `json:"events_in_window"`
	Explanations    []string          `json:"explanations"`
}

// Best returns the grid point for the recommended week
func (p LaunchPlan) Best() (TimingGridPoint, bool) {
	if p.RecommendedWeek == nil {
		return TimingGridPoint{}, false
	}
	for _, g := range p.Grid {
		if g.WeekStart.Equal(*p.RecommendedWeek) {
			return g, true
		}
	}
	return TimingGridPoint{}, false
}
