// Package measurement computes clinical joint angles inside anatomical
// planes: it selects the limb-segment vectors bounding a joint, projects them
// into the plane the exercise prescribes, and measures the angle between the
// projections.
//
// The package also owns the per-session rep state machine
// (AWAITING_POSITION -> MEASURING -> REP_COMPLETE loop -> SESSION_DONE) and
// the scapulohumeral rhythm check used for shoulder elevation exercises.
package measurement
