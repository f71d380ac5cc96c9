// Package smoothing suppresses frame-to-frame jitter in keypoint and angle
// signals with a One-Euro adaptive low-pass filter: slow motion gets a low
// cutoff (heavy smoothing), fast motion raises the cutoff so response lag
// stays bounded.
//
// Filter state is owned per session and keyed by (joint, signal); resetting a
// session clears its bank so no state leaks between users or exercises.
package smoothing
