package domain

import (
	"time"
)

// SignalLight is the qualitative trend state of a demand series
type SignalLight string

const (
	SignalGreen  SignalLight = "green"
	SignalYellow SignalLight = "yellow"
	SignalRed    SignalLight = "red"
)

// DemandPoint is one day of the composite search-demand series with derived fields.
// Derived fields are nil when the collector has not computed them.
type DemandPoint struct {
	Date               time.Time   `json:"date" yaml:"date" validate:"required"`
	Value              float64     `json:"value" yaml:"value" validate:"min=0"`
	MA7                *float64    `json:"ma7,omitempty" yaml:"ma7,omitempty"`
	MA28               *float64    `json:"ma28,omitempty" yaml:"ma28,omitempty"`
	WoWGrowth          *float64    `json:"wow_growth,omitempty" yaml:"wow_growth,omitempty"`
	Acceleration       *bool       `json:"acceleration,omitempty" yaml:"acceleration,omitempty"`
	BreakoutPercentile *float64    `json:"breakout_percentile,omitempty" yaml:"breakout_percentile,omitempty"`
	SignalLight        SignalLight `json:"signal_light,omitempty" yaml:"signal_light,omitempty"`
}

// SeriesPoint is one observation of an alias trend series
type SeriesPoint struct {
	Date  time.Time `json:"date" yaml:"date" validate:"required"`
	Value float64   `json:"value" yaml:"value" validate:"min=0"`
}

// AliasSeries is the trend series for one alias or spelling variant of the entity
type AliasSeries struct {
	Alias   string        `json:"alias" yaml:"alias" validate:"required"`
	Locale  string        `json:"locale,omitempty" yaml:"locale,omitempty"`
	Weight  float64       `json:"weight" yaml:"weight" validate:"min=0"`
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Points  []SeriesPoint `json:"points" yaml:"points" validate:"dive"`
}

// EventRecord is an externally supplied calendar event relevant to the entity
type EventRecord struct {
	EventType  string    `json:"event_type" yaml:"event_type"`
	Title      string    `json:"title" yaml:"title"`
	EventDate  time.Time `json:"event_date" yaml:"event_date" validate:"required"`
	Source     string    `json:"source,omitempty" yaml:"source,omitempty"`
	Importance *float64  `json:"importance,omitempty" yaml:"importance,omitempty" validate:"omitempty,min=0"`
}

// SourceStatus is the health state of one data source for one entity
type SourceStatus string

const (
	SourceOK   SourceStatus = "ok"
	SourceWarn SourceStatus = "warn"
	SourceDown SourceStatus = "down"
)

// SourceHealth is the last known collection health of a source for an entity.
// An empty Status is derived from LastSuccessAt and the staleness policy.
type SourceHealth struct {
	SourceKey     string       `json:"source_key" yaml:"source_key" validate:"required"`
	Status        SourceStatus `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=ok warn down"`
	LastSuccessAt *time.Time   `json:"last_success_at,omitempty" yaml:"last_success_at,omitempty"`
	LastError     string       `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

// SourceRegistration describes a configured data source
type SourceRegistration struct {
	SourceKey         string  `json:"source_key" yaml:"source_key" validate:"required"`
	AvailabilityLevel string  `json:"availability_level" yaml:"availability_level" validate:"omitempty,oneof=high medium low"`
	PriorityWeight    float64 `json:"priority_weight" yaml:"priority_weight" validate:"min=0"`
	IsKeySource       bool    `json:"is_key_source" yaml:"is_key_source"`
}

// LicenseWindow bounds the weeks in which a launch may happen
type LicenseWindow struct {
	Start time.Time `json:"start" yaml:"start" validate:"required"`
	End   time.Time `json:"end" yaml:"end" validate:"required"`
}

// EntityBundle is the immutable snapshot of everything known about one entity
type EntityBundle struct {
	EntityID          string               `json:"entity_id" yaml:"entity_id" validate:"required"`
	Name              string               `json:"name,omitempty" yaml:"name,omitempty"`
	Geo               string               `json:"geo,omitempty" yaml:"geo,omitempty"`
	Timeframe         string               `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
	AsOf              time.Time            `json:"as_of" yaml:"as_of" validate:"required"`
	Demand            []DemandPoint        `json:"demand,omitempty" yaml:"demand,omitempty" validate:"dive"`
	Aliases           []AliasSeries        `json:"aliases,omitempty" yaml:"aliases,omitempty" validate:"dive"`
	Overrides         map[string]float64   `json:"overrides,omitempty" yaml:"overrides,omitempty" validate:"dive,min=0,max=1"`
	Events            []EventRecord        `json:"events,omitempty" yaml:"events,omitempty" validate:"dive"`
	SourceHealth      []SourceHealth       `json:"source_health,omitempty" yaml:"source_health,omitempty" validate:"dive"`
	Sources           []SourceRegistration `json:"sources,omitempty" yaml:"sources,omitempty" validate:"dive"`
	License           *LicenseWindow       `json:"license,omitempty" yaml:"license,omitempty"`
	MerchProductCount int                  `json:"merch_product_count,omitempty" yaml:"merch_product_count,omitempty" validate:"min=0"`
}

// Override returns the stored override for key, if any
func (b EntityBundle) Override(key string) (float64, bool) {
	if b.Overrides == nil {
		return 0, false
	}
	v, ok := b.Overrides[key]
	return v, ok
}

// WithOverrides returns a copy of the bundle with patch applied over its overrides.
// The receiver is left untouched.
func (b EntityBundle) WithOverrides(patch map[string]float64) EntityBundle {
	merged := make(map[string]float64, len(b.Overrides)+len(patch))
	for k, v := range b.Overrides {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	b.Overrides = merged
	return b
}
