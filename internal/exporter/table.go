package exporter

import (
	"time"

	"brewsignal/pkg/contracts/domain"
)

// Table is a header row plus string records.
// Numeric marks the columns the XLSX writer stores as numbers.
type Table struct {
	Headers []string
	Numeric []bool
	Records [][]string
}

// IsNumeric reports whether column col holds numbers
func (t Table) IsNumeric(col int) bool {
	return col < len(t.Numeric) && t.Numeric[col]
}

// Week roles in a launch grid
const (
	RoleRecommended = "recommended"
	RoleBackup      = "backup"
)

// RankingTable lays out a ranking, one row per entity
func RankingTable(entries []domain.RankEntry, timeFormat string) Table {
	if timeFormat == "" {
		timeFormat = time.DateOnly
	}
	t := Table{
		Headers: []string{
			"rank", "entity_id", "name", "decision", "bd_score", "raw_score",
			"fit_gate_passed", "confidence_score", "confidence_band",
			"recommended_week", "launch_value", "active_indicators",
		},
		Numeric: []bool{true, false, false, false, true, true, false, true, false, false, true, true},
		Records: make([][]string, 0, len(entries)),
	}
	for _, e := range entries {
		t.Records = append(t.Records, []string{
			formatInt(e.Rank),
			e.EntityID,
			e.Name,
			string(e.Decision),
			formatFloat(e.BDScore),
			formatFloat(e.RawScore),
			formatBool(e.FitGatePassed),
			formatInt(e.ConfidenceScore),
			string(e.ConfidenceBand),
			formatOptionalTime(e.RecommendedWeek, timeFormat),
			formatOptionalFloat(e.LaunchValue),
			formatInt(e.ActiveIndicators),
		})
	}
	return t
}

// GridTable lays out every candidate week of a launch plan in date order,
// tagging the recommended and backup weeks.
func GridTable(plan domain.LaunchPlan, timeFormat string) Table {
	if timeFormat == "" {
		timeFormat = time.DateOnly
	}
	t := Table{
		Headers: []string{
			"week_start", "demand_score", "event_boost", "saturation_score",
			"operational_risk", "launch_value", "role",
		},
		Numeric: []bool{false, true, true, true, true, true, false},
		Records: make([][]string, 0, len(plan.Grid)),
	}
	for _, g := range plan.Grid {
		t.Records = append(t.Records, []string{
			formatTime(g.WeekStart, timeFormat),
			formatFloat(g.DemandScore),
			formatFloat(g.EventBoost),
			formatFloat(g.SaturationScore),
			formatFloat(g.OperationalRisk),
			formatFloat(g.LaunchValue),
			weekRole(plan, g.WeekStart),
		})
	}
	return t
}

// MilestoneTable lays out the production milestones of a launch plan
func MilestoneTable(plan domain.LaunchPlan, timeFormat string) Table {
	if timeFormat == "" {
		timeFormat = time.DateOnly
	}
	t := Table{
		Headers: []string{"label", "target_date", "weeks_before_launch"},
		Numeric: []bool{false, false, true},
		Records: make([][]string, 0, len(plan.Milestones)),
	}
	for _, m := range plan.Milestones {
		t.Records = append(t.Records, []string{
			m.Label,
			formatTime(m.TargetDate, timeFormat),
			formatInt(m.WeeksBeforeLaunch),
		})
	}
	return t
}

func weekRole(plan domain.LaunchPlan, week time.Time) string {
	if plan.RecommendedWeek != nil && plan.RecommendedWeek.Equal(week) {
		return RoleRecommended
	}
	for _, b := range plan.BackupWeeks {
		if b.Equal(week) {
			return RoleBackup
		}
	}
	return ""
}
