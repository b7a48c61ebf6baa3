// Package services runs the engines as one pipeline for the transport and CLI layers.
//
// A single evaluation enriches the bundle's demand series, computes the indicator set,
// then derives confidence, the Stage 1 allocation and, on request, the Stage 2 launch
// plan. Request-scoped override patches are applied over the bundle for a dry run and
// never stored. Ranking evaluates many bundles concurrently with a bounded worker pool.
//
// Engines are stateless, so one EvaluationService is safe for concurrent use.
package services
