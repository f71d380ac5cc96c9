// Package session runs one measurement pipeline per exercise session:
// smoothing, frame building, joint measurement, compensation
// detection and feedback ranking, driven by per-frame ticks. State is
// strictly partitioned by session; within a session ticks are
// processed in non-decreasing timestamp order. Live sessions throttle
// to a configured tick interval; offline sessions process every
// frame. Stopping a session releases its filter state and never emits
// partial feedback.
package session
