package policy

// Policy is the complete set of engine knobs
type Policy struct {
	Signal     SignalPolicy     `yaml:"signal" json:"signal"`
	Indicator  IndicatorPolicy  `yaml:"indicator" json:"indicator"`
	Confidence ConfidencePolicy `yaml:"confidence" json:"confidence"`
	Allocation AllocationPolicy `yaml:"allocation" json:"allocation"`
	Timing     TimingPolicy     `yaml:"timing" json:"timing"`
}

// SignalPolicy tunes demand-series aggregation and the traffic light
type SignalPolicy struct {
	GreenWoWThreshold  float64 `yaml:"green_wow_threshold" json:"green_wow_threshold" envconfig:"GREEN_WOW_THRESHOLD"`
	BreakoutPercentile float64 `yaml:"breakout_percentile" json:"breakout_percentile" envconfig:"BREAKOUT_PERCENTILE"`
	PercentileWindow   int     `yaml:"percentile_window" json:"percentile_window" envconfig:"PERCENTILE_WINDOW"`
	SpikeSigma         float64 `yaml:"spike_sigma" json:"spike_sigma" envconfig:"SPIKE_SIGMA"`
	SpikeMinPoints     int     `yaml:"spike_min_points" json:"spike_min_points" envconfig:"SPIKE_MIN_POINTS"`
	AlertWindow        int     `yaml:"alert_window" json:"alert_window" envconfig:"ALERT_WINDOW"`
}

// IndicatorPolicy tunes the LIVE indicator families
type IndicatorPolicy struct {
	// Search momentum
	WoWScale          float64 `yaml:"wow_scale" json:"wow_scale" envconfig:"WOW_SCALE"`
	WoWCap            float64 `yaml:"wow_cap" json:"wow_cap" envconfig:"WOW_CAP"`
	AccelerationBonus float64 `yaml:"acceleration_bonus" json:"acceleration_bonus" envconfig:"ACCELERATION_BONUS"`
	BreakoutScale     float64 `yaml:"breakout_scale" json:"breakout_scale" envconfig:"BREAKOUT_SCALE"`
	BreakoutCap       float64 `yaml:"breakout_cap" json:"breakout_cap" envconfig:"BREAKOUT_CAP"`

	// Cross-alias consistency
	AliasLookbackDays    int     `yaml:"alias_lookback_days" json:"alias_lookback_days" envconfig:"ALIAS_LOOKBACK_DAYS"`
	AliasMinObservations int     `yaml:"alias_min_observations" json:"alias_min_observations" envconfig:"ALIAS_MIN_OBSERVATIONS"`
	AliasMinMean         float64 `yaml:"alias_min_mean" json:"alias_min_mean" envconfig:"ALIAS_MIN_MEAN"`

	// Timing window
	LeadTimeWeeks     float64     `yaml:"lead_time_weeks" json:"lead_time_weeks" envconfig:"LEAD_TIME_WEEKS"`
	OverrideNeutral   float64     `yaml:"override_neutral" json:"override_neutral" envconfig:"OVERRIDE_NEUTRAL"`
	RecentEventDays   int         `yaml:"recent_event_days" json:"recent_event_days" envconfig:"RECENT_EVENT_DAYS"`
	RecentEventBase   float64     `yaml:"recent_event_base" json:"recent_event_base" envconfig:"RECENT_EVENT_BASE"`
	RecentEventDecay  float64     `yaml:"recent_event_decay" json:"recent_event_decay" envconfig:"RECENT_EVENT_DECAY"`
	RecentEventFloor  float64     `yaml:"recent_event_floor" json:"recent_event_floor" envconfig:"RECENT_EVENT_FLOOR"`
	SignalLightScores LightScores `yaml:"signal_light_scores" json:"signal_light_scores" envconfig:"SIGNAL_LIGHT"`
}

// LightScores maps each traffic light to a timing score
type LightScores struct {
	Green  float64 `yaml:"green" json:"green" envconfig:"GREEN"`
	Yellow float64 `yaml:"yellow" json:"yellow" envconfig:"YELLOW"`
	Red    float64 `yaml:"red" json:"red" envconfig:"RED"`
}

// StalenessThreshold bounds how old a source success may be, in hours
type StalenessThreshold struct {
	FreshHours float64 `yaml:"fresh_hours" json:"fresh_hours"`
	WarnHours  float64 `yaml:"warn_hours" json:"warn_hours"`
}

// ConfidenceBands holds the lower bound of each band
type ConfidenceBands struct {
	High   float64 `yaml:"high" json:"high" envconfig:"HIGH"`
	Medium float64 `yaml:"medium" json:"medium" envconfig:"MEDIUM"`
	Low    float64 `yaml:"low" json:"low" envconfig:"LOW"`
}

// ConfidencePolicy tunes the confidence engine
type ConfidencePolicy struct {
	IndicatorWeight            float64 `yaml:"indicator_weight" json:"indicator_weight" envconfig:"INDICATOR_WEIGHT"`
	SourceWeight               float64 `yaml:"source_weight" json:"source_weight" envconfig:"SOURCE_WEIGHT"`
	KeySourceDownPenalty       float64 `yaml:"key_source_down_penalty" json:"key_source_down_penalty" envconfig:"KEY_SOURCE_DOWN_PENALTY"`
	KeySourceWarnPenalty       float64 `yaml:"key_source_warn_penalty" json:"key_source_warn_penalty" envconfig:"KEY_SOURCE_WARN_PENALTY"`
	KeyIndicatorMissingPenalty float64 `yaml:"key_indicator_missing_penalty" json:"key_indicator_missing_penalty" envconfig:"KEY_INDICATOR_MISSING_PENALTY"`
	KeyIndicatorPenaltyCap     float64 `yaml:"key_indicator_penalty_cap" json:"key_indicator_penalty_cap" envconfig:"KEY_INDICATOR_PENALTY_CAP"`
	MaxPenaltyFraction         float64 `yaml:"max_penalty_fraction" json:"max_penalty_fraction" envconfig:"MAX_PENALTY_FRACTION"`

	KeyIndicators             []string           `yaml:"key_indicators" json:"key_indicators" envconfig:"KEY_INDICATORS"`
	AvailabilityFactors       map[string]float64 `yaml:"availability_factors" json:"availability_factors" envconfig:"AVAILABILITY_FACTORS"`
	UnknownAvailabilityFactor float64            `yaml:"unknown_availability_factor" json:"unknown_availability_factor" envconfig:"UNKNOWN_AVAILABILITY_FACTOR"`

	DefaultStaleness StalenessThreshold            `yaml:"default_staleness" json:"default_staleness" ignored:"true"`
	Staleness        map[string]StalenessThreshold `yaml:"staleness" json:"staleness" ignored:"true"`

	Bands ConfidenceBands `yaml:"bands" json:"bands" envconfig:"BAND"`
}

// StalenessFor returns the thresholds for sourceKey, falling back to the default
func (c ConfidencePolicy) StalenessFor(sourceKey string) StalenessThreshold {
	if t, ok := c.Staleness[sourceKey]; ok {
		return t
	}
	return c.DefaultStaleness
}

// AvailabilityFactor maps an availability level to its risk factor
func (c ConfidencePolicy) AvailabilityFactor(level string) float64 {
	if f, ok := c.AvailabilityFactors[level]; ok {
		return f
	}
	return c.UnknownAvailabilityFactor
}

// AllocationWeights are the Stage 1 component weights
type AllocationWeights struct {
	TimingUrgency    float64 `yaml:"timing_urgency" json:"timing_urgency" envconfig:"TIMING_URGENCY"`
	DemandTrajectory float64 `yaml:"demand_trajectory" json:"demand_trajectory" envconfig:"DEMAND_TRAJECTORY"`
	MarketGap        float64 `yaml:"market_gap" json:"market_gap" envconfig:"MARKET_GAP"`
	Feasibility      float64 `yaml:"feasibility" json:"feasibility" envconfig:"FEASIBILITY"`
}

// AllocationPolicy tunes Stage 1 scoring
type AllocationPolicy struct {
	FitGateThreshold            float64           `yaml:"fit_gate_threshold" json:"fit_gate_threshold" envconfig:"FIT_GATE_THRESHOLD"`
	GatekeeperUrgencyFactor     float64           `yaml:"gatekeeper_urgency_factor" json:"gatekeeper_urgency_factor" envconfig:"GATEKEEPER_URGENCY_FACTOR"`
	AccelerationBonus           float64           `yaml:"acceleration_bonus" json:"acceleration_bonus" envconfig:"ACCELERATION_BONUS"`
	FeasibilityDiffusionWeight  float64           `yaml:"feasibility_diffusion_weight" json:"feasibility_diffusion_weight" envconfig:"FEASIBILITY_DIFFUSION_WEIGHT"`
	Weights                     AllocationWeights `yaml:"weights" json:"weights" envconfig:"WEIGHT"`
	StartThreshold              float64           `yaml:"start_threshold" json:"start_threshold" envconfig:"START_THRESHOLD"`
	MonitorThreshold            float64           `yaml:"monitor_threshold" json:"monitor_threshold" envconfig:"MONITOR_THRESHOLD"`
	DefaultConfidenceMultiplier float64           `yaml:"default_confidence_multiplier" json:"default_confidence_multiplier" envconfig:"DEFAULT_CONFIDENCE_MULTIPLIER"`
}

// TimingWeights are the Stage 2 launch value weights
type TimingWeights struct {
	Demand     float64 `yaml:"demand" json:"demand" envconfig:"DEMAND"`
	Event      float64 `yaml:"event" json:"event" envconfig:"EVENT"`
	Saturation float64 `yaml:"saturation" json:"saturation" envconfig:"SATURATION"`
	OpsRisk    float64 `yaml:"ops_risk" json:"ops_risk" envconfig:"OPS_RISK"`
}

// MilestoneOffset places a milestone a number of weeks before launch
type MilestoneOffset struct {
	Label       string `yaml:"label" json:"label"`
	WeeksBefore int    `yaml:"weeks_before" json:"weeks_before"`
}

// TimingPolicy tunes Stage 2 grid search
type TimingPolicy struct {
	Weights TimingWeights `yaml:"weights" json:"weights" envconfig:"WEIGHT"`

	DemandLookbackRows int `yaml:"demand_lookback_rows" json:"demand_lookback_rows" envconfig:"DEMAND_LOOKBACK_ROWS"`

	EventPeakWeeksBefore float64 `yaml:"event_peak_weeks_before" json:"event_peak_weeks_before" envconfig:"EVENT_PEAK_WEEKS_BEFORE"`
	EventSigmaWeeks      float64 `yaml:"event_sigma_weeks" json:"event_sigma_weeks" envconfig:"EVENT_SIGMA_WEEKS"`
	EventMarginWeeks     int     `yaml:"event_margin_weeks" json:"event_margin_weeks" envconfig:"EVENT_MARGIN_WEEKS"`
	DefaultImportance    float64 `yaml:"default_importance" json:"default_importance" envconfig:"DEFAULT_IMPORTANCE"`

	MerchSaturationScale   float64 `yaml:"merch_saturation_scale" json:"merch_saturation_scale" envconfig:"MERCH_SATURATION_SCALE"`
	MerchSaturationCap     float64 `yaml:"merch_saturation_cap" json:"merch_saturation_cap" envconfig:"MERCH_SATURATION_CAP"`
	SaturationDriftPerWeek float64 `yaml:"saturation_drift_per_week" json:"saturation_drift_per_week" envconfig:"SATURATION_DRIFT_PER_WEEK"`

	ProductionLeadWeeks  float64 `yaml:"production_lead_weeks" json:"production_lead_weeks" envconfig:"PRODUCTION_LEAD_WEEKS"`
	OpsBufferMarginWeeks float64 `yaml:"ops_buffer_margin_weeks" json:"ops_buffer_margin_weeks" envconfig:"OPS_BUFFER_MARGIN_WEEKS"`
	EarlyRiskSteepness   float64 `yaml:"early_risk_steepness" json:"early_risk_steepness" envconfig:"EARLY_RISK_STEEPNESS"`
	LateRiskSteepness    float64 `yaml:"late_risk_steepness" json:"late_risk_steepness" envconfig:"LATE_RISK_STEEPNESS"`
	LateRiskWeeks        float64 `yaml:"late_risk_weeks" json:"late_risk_weeks" envconfig:"LATE_RISK_WEEKS"`

	BackupCount           int     `yaml:"backup_count" json:"backup_count" envconfig:"BACKUP_COUNT"`
	BackupMinSpacingWeeks float64 `yaml:"backup_min_spacing_weeks" json:"backup_min_spacing_weeks" envconfig:"BACKUP_MIN_SPACING_WEEKS"`

	FallbackStartWeeks   int `yaml:"fallback_start_weeks" json:"fallback_start_weeks" envconfig:"FALLBACK_START_WEEKS"`
	FallbackEndWeeks     int `yaml:"fallback_end_weeks" json:"fallback_end_weeks" envconfig:"FALLBACK_END_WEEKS"`
	PastStartOffsetWeeks int `yaml:"past_start_offset_weeks" json:"past_start_offset_weeks" envconfig:"PAST_START_OFFSET_WEEKS"`
	MaxCandidateWeeks    int `yaml:"max_candidate_weeks" json:"max_candidate_weeks" envconfig:"MAX_CANDIDATE_WEEKS"`

	Milestones []MilestoneOffset `yaml:"milestones" json:"milestones" ignored:"true"`

	LowConfidenceThreshold int `yaml:"low_confidence_threshold" json:"low_confidence_threshold" envconfig:"LOW_CONFIDENCE_THRESHOLD"`
}

// Default returns the production policy
func Default() Policy {
	return Policy{
		Signal:     DefaultSignal(),
		Indicator:  DefaultIndicator(),
		Confidence: DefaultConfidence(),
		Allocation: DefaultAllocation(),
		Timing:     DefaultTiming(),
	}
}

// DefaultSignal returns the default signal thresholds
func DefaultSignal() SignalPolicy {
	return SignalPolicy{
		GreenWoWThreshold:  0.30,
		BreakoutPercentile: 85,
		PercentileWindow:   180,
		SpikeSigma:         2,
		SpikeMinPoints:     30,
		AlertWindow:        90,
	}
}

// DefaultIndicator returns the default indicator shape parameters
func DefaultIndicator() IndicatorPolicy {
	return IndicatorPolicy{
		WoWScale:             0.5,
		WoWCap:               20,
		AccelerationBonus:    15,
		BreakoutScale:        0.3,
		BreakoutCap:          15,
		AliasLookbackDays:    14,
		AliasMinObservations: 10,
		AliasMinMean:         5,
		LeadTimeWeeks:        12,
		OverrideNeutral:      0.5,
		RecentEventDays:      28,
		RecentEventBase:      60,
		RecentEventDecay:     1.5,
		RecentEventFloor:     20,
		SignalLightScores:    LightScores{Green: 75, Yellow: 50, Red: 25},
	}
}

// DefaultConfidence returns the default confidence policy
func DefaultConfidence() ConfidencePolicy {
	return ConfidencePolicy{
		IndicatorWeight:            0.6,
		SourceWeight:               0.4,
		KeySourceDownPenalty:       20,
		KeySourceWarnPenalty:       10,
		KeyIndicatorMissingPenalty: 10,
		KeyIndicatorPenaltyCap:     30,
		MaxPenaltyFraction:         0.8,
		KeyIndicators:              []string{"search_momentum", "video_momentum", "timing_window"},
		AvailabilityFactors: map[string]float64{
			"high":   1.0,
			"medium": 0.8,
			"low":    0.5,
		},
		UnknownAvailabilityFactor: 0.8,
		DefaultStaleness:          StalenessThreshold{FreshHours: 72, WarnHours: 168},
		Staleness:                 map[string]StalenessThreshold{},
		Bands:                     ConfidenceBands{High: 80, Medium: 60, Low: 40},
	}
}

// DefaultAllocation returns the default Stage 1 policy
func DefaultAllocation() AllocationPolicy {
	return AllocationPolicy{
		FitGateThreshold:           30,
		GatekeeperUrgencyFactor:    0.3,
		AccelerationBonus:          10,
		FeasibilityDiffusionWeight: 0.5,
		Weights: AllocationWeights{
			TimingUrgency:    0.35,
			DemandTrajectory: 0.30,
			MarketGap:        0.20,
			Feasibility:      0.15,
		},
		StartThreshold:              70,
		MonitorThreshold:            40,
		DefaultConfidenceMultiplier: 0.5,
	}
}

// DefaultTiming returns the default Stage 2 policy
func DefaultTiming() TimingPolicy {
	return TimingPolicy{
		Weights: TimingWeights{
			Demand:     0.35,
			Event:      0.30,
			Saturation: 0.20,
			OpsRisk:    0.15,
		},
		DemandLookbackRows:     60,
		EventPeakWeeksBefore:   3,
		EventSigmaWeeks:        3,
		EventMarginWeeks:       8,
		DefaultImportance:      1.0,
		MerchSaturationScale:   800,
		MerchSaturationCap:     95,
		SaturationDriftPerWeek: 0.5,
		ProductionLeadWeeks:    8,
		OpsBufferMarginWeeks:   7,
		EarlyRiskSteepness:     0.3,
		LateRiskSteepness:      1.0,
		LateRiskWeeks:          4,
		BackupCount:            2,
		BackupMinSpacingWeeks:  2,
		FallbackStartWeeks:     12,
		FallbackEndWeeks:       26,
		PastStartOffsetWeeks:   4,
		MaxCandidateWeeks:      156,
		Milestones:             DefaultMilestones(),
		LowConfidenceThreshold: 50,
	}
}

// DefaultMilestones returns the production milestone schedule, earliest first
func DefaultMilestones() []MilestoneOffset {
	return []MilestoneOffset{
		{Label: "Design Start", WeeksBefore: 20},
		{Label: "Artwork Submission", WeeksBefore: 16},
		{Label: "Sample Review", WeeksBefore: 12},
		{Label: "Production Start", WeeksBefore: 8},
		{Label: "Launch", WeeksBefore: 0},
	}
}

// Clone returns a deep copy so callers can tweak knobs without aliasing maps or slices
func (p Policy) Clone() Policy {
	out := p
	out.Confidence.KeyIndicators = append([]string(nil), p.Confidence.KeyIndicators...)
	out.Confidence.AvailabilityFactors = make(map[string]float64, len(p.Confidence.AvailabilityFactors))
	for k, v := range p.Confidence.AvailabilityFactors {
		out.Confidence.AvailabilityFactors[k] = v
	}
	out.Confidence.Staleness = make(map[string]StalenessThreshold, len(p.Confidence.Staleness))
	for k, v := range p.Confidence.Staleness {
		out.Confidence.Staleness[k] = v
	}
	out.Timing.Milestones = append([]MilestoneOffset(nil), p.Timing.Milestones...)
	return out
}
