// Package policy holds every tunable weight, threshold and shape parameter used by
// the scoring engines.
//
// A Policy is a plain value. Engines receive it at construction time and never read
// ambient state, so two engines built from different policies can run side by side
// (what-if sessions, sensitivity tests). Validate reports every bad field at once.
package policy
