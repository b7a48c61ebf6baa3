// Package timing searches the license window for the best launch week.
//
// Every candidate week is scored on projected demand, event hype, market saturation
// and operational risk. The highest scoring week is recommended, backups are spread
// out so they are not near-duplicates, and production milestones are scheduled
// backwards from the recommendation. Windows that cannot produce a plan yield an
// explicit empty plan instead of an error.
package timing
