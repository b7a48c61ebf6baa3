// Package indicator turns a raw entity bundle into the 13 bounded indicators.
//
// Each indicator key is registered with a label, a dimension and a family. The family
// selects the compute strategy:
//
//   - search momentum: week-over-week growth, acceleration and breakout of the demand series
//   - cross signal: share of qualifying aliases whose recent half beats the prior half
//   - timing window: override, then upcoming event, then recent event, then signal light
//   - manual: stored override scaled to 0-100
//
// Missing input never fails. The indicator comes back MISSING with the neutral score
// of 50 and a note saying what was absent.
package indicator
