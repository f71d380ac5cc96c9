// Package compensation turns secondary-joint measurements and postural
// deltas into flagged compensation patterns. Every pattern kind owns a
// scalar metric evaluated once per tick against a two-tier threshold;
// a candidate becomes flagged only after its metric stays past the
// warning threshold for the pattern's persistence window, and a flagged
// pattern clears only after a cool-down below warning. The persistence
// window is the anti-jitter guarantee: single-frame excursions never
// register as clinical error.
package compensation
