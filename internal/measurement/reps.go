package measurement

import (
	"kinemetry/internal/pose"
	"kinemetry/internal/services"
)

// State is the session measurement lifecycle.
type State string

const (
	StateAwaitingPosition State = "awaiting_position"
	StateMeasuring        State = "measuring"
	StateRepComplete      State = "rep_complete"
	StateSessionDone      State = "session_done"
)

// Event reports what a tracker update produced.
type Event string

const (
	EventNone               Event = ""
	EventMeasurementStarted Event = "measurement_started"
	EventRepComplete        Event = "rep_complete"
)

// TrackerConfig tunes rep detection.
type TrackerConfig struct {
	// MinFrameConfidence gates the AWAITING_POSITION -> MEASURING
	// transition together with the full-body-visible check.
	MinFrameConfidence float64

	// MinExcursionDegrees is how far the primary angle must travel from
	// its baseline before a return can count as a rep.
	MinExcursionDegrees float64

	// HysteresisDegrees is the return band around the baseline. It must
	// be smaller than the excursion or every wobble near a single peak
	// would double-count.
	HysteresisDegrees float64
}

// Tracker runs the per-session rep state machine over the primary angle.
type Tracker struct {
	cfg   TrackerConfig
	state State

	baselineSet bool
	baseline    float64
	peak        float64
	ascended    bool
	reps        int
}

// NewTracker validates the tuning and returns an AWAITING_POSITION tracker.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if cfg.MinExcursionDegrees <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "measurement", "rep tracker", "min excursion must be positive", nil)
	}
	if cfg.HysteresisDegrees <= 0 || cfg.HysteresisDegrees >= cfg.MinExcursionDegrees {
		return nil, services.Wrap(services.ErrConfiguration, "measurement", "rep tracker", "hysteresis must be positive and below min excursion", nil)
	}
	if cfg.MinFrameConfidence < 0 || cfg.MinFrameConfidence > 1 {
		return nil, services.Wrap(services.ErrConfiguration, "measurement", "rep tracker", "frame confidence outside [0, 1]", nil)
	}
	return &Tracker{cfg: cfg, state: StateAwaitingPosition}, nil
}

// State returns the current lifecycle state. REP_COMPLETE is transient: it
// is observable on the tick that completed a rep and collapses back to
// MEASURING on the next update.
func (t *Tracker) State() State { return t.state }

// Reps returns the count of completed repetitions.
func (t *Tracker) Reps() int { return t.reps }

// Gate evaluates an incoming frame while awaiting position. The transition
// to MEASURING requires the frame to pass confidence and full-body checks.
func (t *Tracker) Gate(f *pose.Frame) Event {
	if t.state != StateAwaitingPosition {
		return EventNone
	}
	if f.Confidence < t.cfg.MinFrameConfidence {
		return EventNone
	}
	if !f.FullBodyVisible(t.cfg.MinFrameConfidence) {
		return EventNone
	}
	t.state = StateMeasuring
	return EventMeasurementStarted
}

// Update feeds one primary-joint angle while measuring. A rep completes when
// the angle has traveled at least the minimum excursion above baseline and
// then returned to within the hysteresis band; after that, a fresh full
// excursion is required before another rep can count.
func (t *Tracker) Update(angle float64) Event {
	switch t.state {
	case StateMeasuring:
	case StateRepComplete:
		t.state = StateMeasuring
	default:
		return EventNone
	}

	if !t.baselineSet {
		t.baselineSet = true
		t.baseline = angle
		t.peak = angle
		return EventNone
	}

	if angle > t.peak {
		t.peak = angle
	}
	if !t.ascended && angle >= t.baseline+t.cfg.MinExcursionDegrees {
		t.ascended = true
	}
	if t.ascended && angle <= t.baseline+t.cfg.HysteresisDegrees {
		t.reps++
		t.ascended = false
		t.peak = angle
		t.state = StateRepComplete
		return EventRepComplete
	}
	return EventNone
}

// Stop enters SESSION_DONE. Only an external stop signal ends a session;
// the tracker never infers completion.
func (t *Tracker) Stop() {
	t.state = StateSessionDone
}

// PeakAngle returns the highest primary angle seen in the current excursion.
func (t *Tracker) PeakAngle() float64 { return t.peak }
