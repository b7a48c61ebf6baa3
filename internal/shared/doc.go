// Package shared holds helpers used by more than one engine package.
//
// # Structure
//
//   - mathx: clamping, means and rounding shared by every scorer
//   - testutil: captured slog handlers and entity bundle fixtures for tests
//
// Nothing here carries domain rules; formulas live in the engine packages.
package shared
