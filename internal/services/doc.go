// Package services defines the shared error taxonomy for the measurement
// pipeline and the mapping from stage failures to per-tick outcomes.
//
// Input-quality and geometric failures are recoverable: the tick reports
// "unavailable" and the session keeps running. Configuration failures are
// fatal at session construction and never downgraded to defaults.
package services
