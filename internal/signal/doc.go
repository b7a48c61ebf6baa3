// Package signal derives the daily demand series from raw alias trend observations.
//
// The composite is the weight-averaged value of every enabled alias per date. From it
// each row gets MA7, MA28, week-over-week growth, acceleration, a breakout percentile
// against the trailing window and a green/yellow/red light. Alerts flag breakouts,
// MA7 crossing under MA28 and 2-sigma spikes on the latest row.
package signal
