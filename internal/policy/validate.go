package policy

import (
	"maps"
	"math"
	"slices"

	apperrors "brewsignal/internal/errors"
)

// fieldChecker accumulates field failures under a dotted prefix
type fieldChecker struct {
	prefix string
	errs   *apperrors.ValidationErrors
}

func (c fieldChecker) field(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "." + name
}

func (c fieldChecker) finite(name string, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.errs.Add(c.field(name), "must be a finite number", v)
		return false
	}
	return true
}

func (c fieldChecker) nonNegative(name string, v float64) {
	if c.finite(name, v) && v < 0 {
		c.errs.Add(c.field(name), "must be non-negative", v)
	}
}

func (c fieldChecker) positive(name string, v float64) {
	if c.finite(name, v) && v <= 0 {
		c.errs.Add(c.field(name), "must be positive", v)
	}
}

func (c fieldChecker) between(name string, v, lo, hi float64) {
	if c.finite(name, v) && (v < lo || v > hi) {
		c.errs.Add(c.field(name), "must be within range", map[string]float64{"value": v, "min": lo, "max": hi})
	}
}

func (c fieldChecker) ordered(name string, lower, upper float64) {
	if lower > upper {
		c.errs.Add(c.field(name), "thresholds are inverted", map[string]float64{"lower": lower, "upper": upper})
	}
}

func (c fieldChecker) sub(prefix string) fieldChecker {
	return fieldChecker{prefix: c.field(prefix), errs: c.errs}
}

// Validate checks every field and returns a CONFIG AppError wrapping all failures
func (p Policy) Validate() error {
	var errs apperrors.ValidationErrors
	root := fieldChecker{errs: &errs}

	p.Signal.validate(root.sub("signal"))
	p.Indicator.validate(root.sub("indicator"))
	p.Confidence.validate(root.sub("confidence"))
	p.Allocation.validate(root.sub("allocation"))
	p.Timing.validate(root.sub("timing"))

	if errs.HasErrors() {
		return apperrors.NewConfigError("invalid engine policy", errs).
			WithContext("invalid_fields", errs.Fields())
	}
	return nil
}

func (s SignalPolicy) validate(c fieldChecker) {
	c.finite("green_wow_threshold", s.GreenWoWThreshold)
	c.between("breakout_percentile", s.BreakoutPercentile, 0, 100)
	if s.PercentileWindow < 7 {
		c.errs.Add(c.field("percentile_window"), "must cover at least 7 values", s.PercentileWindow)
	}
	c.positive("spike_sigma", s.SpikeSigma)
	if s.SpikeMinPoints < 2 {
		c.errs.Add(c.field("spike_min_points"), "must be at least 2", s.SpikeMinPoints)
	}
	if s.AlertWindow < 2 {
		c.errs.Add(c.field("alert_window"), "must be at least 2", s.AlertWindow)
	}
}

func (i IndicatorPolicy) validate(c fieldChecker) {
	c.nonNegative("wow_scale", i.WoWScale)
	c.nonNegative("wow_cap", i.WoWCap)
	c.nonNegative("acceleration_bonus", i.AccelerationBonus)
	c.nonNegative("breakout_scale", i.BreakoutScale)
	c.nonNegative("breakout_cap", i.BreakoutCap)
	if i.AliasLookbackDays < 2 {
		c.errs.Add(c.field("alias_lookback_days"), "must be at least 2 days", i.AliasLookbackDays)
	}
	if i.AliasMinObservations < 1 {
		c.errs.Add(c.field("alias_min_observations"), "must be at least 1", i.AliasMinObservations)
	}
	c.nonNegative("alias_min_mean", i.AliasMinMean)
	c.positive("lead_time_weeks", i.LeadTimeWeeks)
	c.between("override_neutral", i.OverrideNeutral, 0, 1)
	if i.RecentEventDays < 0 {
		c.errs.Add(c.field("recent_event_days"), "must be non-negative", i.RecentEventDays)
	}
	c.between("recent_event_base", i.RecentEventBase, 0, 100)
	c.nonNegative("recent_event_decay", i.RecentEventDecay)
	c.between("recent_event_floor", i.RecentEventFloor, 0, 100)

	lights := c.sub("signal_light_scores")
	lights.between("green", i.SignalLightScores.Green, 0, 100)
	lights.between("yellow", i.SignalLightScores.Yellow, 0, 100)
	lights.between("red", i.SignalLightScores.Red, 0, 100)
}

func (cp ConfidencePolicy) validate(c fieldChecker) {
	c.nonNegative("indicator_weight", cp.IndicatorWeight)
	c.nonNegative("source_weight", cp.SourceWeight)
	c.nonNegative("key_source_down_penalty", cp.KeySourceDownPenalty)
	c.nonNegative("key_source_warn_penalty", cp.KeySourceWarnPenalty)
	c.nonNegative("key_indicator_missing_penalty", cp.KeyIndicatorMissingPenalty)
	c.nonNegative("key_indicator_penalty_cap", cp.KeyIndicatorPenaltyCap)
	c.between("max_penalty_fraction", cp.MaxPenaltyFraction, 0, 1)
	c.between("unknown_availability_factor", cp.UnknownAvailabilityFactor, 0, 1)
	for _, level := range slices.Sorted(maps.Keys(cp.AvailabilityFactors)) {
		c.sub("availability_factors").between(level, cp.AvailabilityFactors[level], 0, 1)
	}

	validateStaleness(c.sub("default_staleness"), cp.DefaultStaleness)
	for _, key := range slices.Sorted(maps.Keys(cp.Staleness)) {
		validateStaleness(c.sub("staleness").sub(key), cp.Staleness[key])
	}

	bands := c.sub("bands")
	bands.between("high", cp.Bands.High, 0, 100)
	bands.between("medium", cp.Bands.Medium, 0, 100)
	bands.between("low", cp.Bands.Low, 0, 100)
	bands.ordered("medium", cp.Bands.Medium, cp.Bands.High)
	bands.ordered("low", cp.Bands.Low, cp.Bands.Medium)
}

func validateStaleness(c fieldChecker, t StalenessThreshold) {
	c.nonNegative("fresh_hours", t.FreshHours)
	c.nonNegative("warn_hours", t.WarnHours)
	c.ordered("warn_hours", t.FreshHours, t.WarnHours)
}

func (a AllocationPolicy) validate(c fieldChecker) {
	c.between("fit_gate_threshold", a.FitGateThreshold, 0, 100)
	c.nonNegative("gatekeeper_urgency_factor", a.GatekeeperUrgencyFactor)
	c.nonNegative("acceleration_bonus", a.AccelerationBonus)
	c.between("feasibility_diffusion_weight", a.FeasibilityDiffusionWeight, 0, 1)

	w := c.sub("weights")
	w.nonNegative("timing_urgency", a.Weights.TimingUrgency)
	w.nonNegative("demand_trajectory", a.Weights.DemandTrajectory)
	w.nonNegative("market_gap", a.Weights.MarketGap)
	w.nonNegative("feasibility", a.Weights.Feasibility)

	c.between("start_threshold", a.StartThreshold, 0, 100)
	c.between("monitor_threshold", a.MonitorThreshold, 0, 100)
	c.ordered("monitor_threshold", a.MonitorThreshold, a.StartThreshold)
	c.between("default_confidence_multiplier", a.DefaultConfidenceMultiplier, 0, 1)
}

func (t TimingPolicy) validate(c fieldChecker) {
	w := c.sub("weights")
	w.nonNegative("demand", t.Weights.Demand)
	w.nonNegative("event", t.Weights.Event)
	w.nonNegative("saturation", t.Weights.Saturation)
	w.nonNegative("ops_risk", t.Weights.OpsRisk)

	if t.DemandLookbackRows < 1 {
		c.errs.Add(c.field("demand_lookback_rows"), "must be at least 1", t.DemandLookbackRows)
	}
	c.nonNegative("event_peak_weeks_before", t.EventPeakWeeksBefore)
	c.positive("event_sigma_weeks", t.EventSigmaWeeks)
	if t.EventMarginWeeks < 0 {
		c.errs.Add(c.field("event_margin_weeks"), "must be non-negative", t.EventMarginWeeks)
	}
	c.nonNegative("default_importance", t.DefaultImportance)
	c.positive("merch_saturation_scale", t.MerchSaturationScale)
	c.between("merch_saturation_cap", t.MerchSaturationCap, 0, 100)
	c.nonNegative("saturation_drift_per_week", t.SaturationDriftPerWeek)
	c.nonNegative("production_lead_weeks", t.ProductionLeadWeeks)
	c.nonNegative("ops_buffer_margin_weeks", t.OpsBufferMarginWeeks)
	c.positive("early_risk_steepness", t.EarlyRiskSteepness)
	c.positive("late_risk_steepness", t.LateRiskSteepness)
	c.nonNegative("late_risk_weeks", t.LateRiskWeeks)

	if t.BackupCount < 0 {
		c.errs.Add(c.field("backup_count"), "must be non-negative", t.BackupCount)
	}
	c.nonNegative("backup_min_spacing_weeks", t.BackupMinSpacingWeeks)

	if t.FallbackStartWeeks < 0 {
		c.errs.Add(c.field("fallback_start_weeks"), "must be non-negative", t.FallbackStartWeeks)
	}
	if t.FallbackEndWeeks < t.FallbackStartWeeks {
		c.errs.Add(c.field("fallback_end_weeks"), "thresholds are inverted",
			map[string]int{"lower": t.FallbackStartWeeks, "upper": t.FallbackEndWeeks})
	}
	if t.PastStartOffsetWeeks < 0 {
		c.errs.Add(c.field("past_start_offset_weeks"), "must be non-negative", t.PastStartOffsetWeeks)
	}
	if t.MaxCandidateWeeks < 1 {
		c.errs.Add(c.field("max_candidate_weeks"), "must be at least 1", t.MaxCandidateWeeks)
	}

	prev := math.MaxInt
	for i, m := range t.Milestones {
		if m.Label == "" {
			c.errs.Add(c.field("milestones"), "label is required", i)
		}
		if m.WeeksBefore < 0 {
			c.errs.Add(c.field("milestones"), "weeks_before must be non-negative", m.WeeksBefore)
		}
		if m.WeeksBefore > prev {
			c.errs.Add(c.field("milestones"), "must be ordered earliest first", m.Label)
		}
		prev = m.WeeksBefore
	}

	if t.LowConfidenceThreshold < 0 || t.LowConfidenceThreshold > 100 {
		c.errs.Add(c.field("low_confidence_threshold"), "must be within range", t.LowConfidenceThreshold)
	}
}
