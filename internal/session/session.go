package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/compensation"
	"kinemetry/internal/exercise"
	"kinemetry/internal/feedback"
	"kinemetry/internal/measurement"
	"kinemetry/internal/pose"
	"kinemetry/internal/services"
	"kinemetry/internal/smoothing"
)

// Options bundles the tunable surface of one session's pipeline. All
// clinical values must be supplied; NewSession rejects empty
// threshold tables instead of silently defaulting them.
type Options struct {
	Mode             feedback.Mode
	LiveTickInterval time.Duration

	Smoothing smoothing.Params
	Builder   anatomy.BuilderConfig
	Detector  compensation.Config
	Feedback  feedback.Config
	Tracker   measurement.TrackerConfig
	Rhythm    measurement.RhythmConfig
}

// DefaultOptions returns offline-mode options with the package
// defaults of every pipeline stage.
func DefaultOptions() Options {
	return Options{
		Mode:             feedback.ModeOffline,
		LiveTickInterval: 500 * time.Millisecond,
		Smoothing:        smoothing.DefaultParams(),
		Builder:          anatomy.BuilderConfig{MinLandmarkConfidence: 0.5, ScapularOffsetDegrees: 35},
		Detector:         compensation.DefaultConfig(),
		Feedback:         feedback.DefaultConfig(),
		Rhythm:           measurement.DefaultRhythmConfig(),
	}
}

// TickResult is the externally visible outcome of one processed frame.
type TickResult struct {
	SessionID string
	Timestamp time.Time

	// Skipped marks frames dropped by the live throttle or by the
	// non-decreasing timestamp guard; nothing was computed for them.
	Skipped bool

	Status services.TickStatus
	Reason string

	Measurements *measurement.Tick
	State        measurement.State
	Event        measurement.Event
	Reps         int

	Flagged []compensation.Pattern

	// RepPeakDegrees and RepKinds describe the rep that just closed;
	// both are set only when Event is rep_complete.
	RepPeakDegrees float64
	RepKinds       []compensation.Kind

	// Feedback is attached per tick in live mode only; offline
	// sessions rank once at Stop.
	Feedback *feedback.Result
}

// Summary is the per-session result produced by Stop.
type Summary struct {
	SessionID  string
	ExerciseID string
	StartedAt  time.Time
	StoppedAt  time.Time
	Reps       int
	Patterns   []compensation.Pattern
	Feedback   feedback.Result
	Rhythm     *measurement.RhythmResult
}

// Session owns every piece of per-session mutable state. Methods are
// safe for one caller at a time; concurrent sessions never share state.
type Session struct {
	id     string
	ex     exercise.Exercise
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	bank     *smoothing.Bank
	engine   *measurement.Engine
	tracker  *measurement.Tracker
	rhythm   *measurement.RhythmAnalyzer
	detector *compensation.Detector
	ranker   *feedback.Ranker

	startedAt     time.Time
	lastTimestamp time.Time
	lastProcessed time.Time
	stopped       bool

	// repFlagged collects the kinds flagged during the current rep;
	// accumulated collects the worst observation of each kind across
	// the whole session for the offline ranking.
	repFlagged  map[compensation.Kind]bool
	accumulated map[compensation.Kind]compensation.Pattern
}

// New constructs a session pipeline for the exercise. Every
// configuration problem surfaces here, before the first tick.
func New(ex exercise.Exercise, opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Mode != feedback.ModeLive && opts.Mode != feedback.ModeOffline {
		return nil, services.Wrap(services.ErrConfiguration, "session", "new",
			"mode must be live or offline", nil)
	}
	if opts.Mode == feedback.ModeLive && opts.LiveTickInterval <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "session", "new",
			"live tick interval must be positive", nil)
	}
	if len(opts.Detector.Thresholds) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "session", "new",
			"no compensation thresholds configured", nil)
	}

	builder, err := anatomy.NewBuilder(opts.Builder)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "new", "", err)
	}
	engine, err := measurement.NewEngine(builder, ex)
	if err != nil {
		return nil, err
	}
	detector, err := compensation.NewDetector(ex, opts.Detector)
	if err != nil {
		return nil, err
	}
	ranker, err := feedback.NewRanker(ex.PrimaryJoint, opts.Feedback)
	if err != nil {
		return nil, err
	}

	trackerCfg := opts.Tracker
	if trackerCfg.MinExcursionDegrees == 0 {
		trackerCfg.MinExcursionDegrees = ex.MinExcursionDegrees
	}
	if trackerCfg.HysteresisDegrees == 0 {
		trackerCfg.HysteresisDegrees = trackerCfg.MinExcursionDegrees / 4
	}
	if trackerCfg.MinFrameConfidence == 0 {
		trackerCfg.MinFrameConfidence = opts.Builder.MinLandmarkConfidence
	}
	tracker, err := measurement.NewTracker(trackerCfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:          uuid.NewString(),
		ex:          ex,
		opts:        opts,
		bank:        smoothing.NewBank(opts.Smoothing),
		engine:      engine,
		tracker:     tracker,
		detector:    detector,
		ranker:      ranker,
		startedAt:   time.Now().UTC(),
		repFlagged:  make(map[compensation.Kind]bool),
		accumulated: make(map[compensation.Kind]compensation.Pattern),
	}
	s.logger = logger.With(
		slog.String("component", "session"),
		slog.String("session_id", s.id),
		slog.String("exercise", ex.ID),
	)

	if elevationExercise(ex) {
		rhythm, err := measurement.NewRhythmAnalyzer(opts.Rhythm)
		if err != nil {
			return nil, err
		}
		s.rhythm = rhythm
	}

	s.logger.Info("session started", slog.String("mode", string(opts.Mode)))
	return s, nil
}

// elevationExercise reports whether scapulohumeral rhythm applies.
func elevationExercise(ex exercise.Exercise) bool {
	if ex.PrimaryJoint != exercise.JointShoulder {
		return false
	}
	return ex.Movement == exercise.MovementAbduction || ex.Movement == exercise.MovementRaise
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Exercise returns the prescription the session runs under.
func (s *Session) Exercise() exercise.Exercise { return s.ex }

// StartedAt returns the session start time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Tick processes one pose frame through the pipeline. Cancelling the
// context abandons the tick with no result; a stopped session rejects
// further frames.
func (s *Session) Tick(ctx context.Context, f *pose.Frame) (*TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "session", "tick", "cancelled", err)
	}
	if s.stopped {
		return nil, services.Wrap(services.ErrValidation, "session", "tick", "session already stopped", nil)
	}

	res := &TickResult{SessionID: s.id, Timestamp: f.Timestamp}

	// Within-session ordering guard: stale frames are dropped, never
	// re-fed to the filters.
	if !s.lastTimestamp.IsZero() && f.Timestamp.Before(s.lastTimestamp) {
		s.logger.Warn("dropping out-of-order frame",
			slog.Time("frame_ts", f.Timestamp),
			slog.Time("last_ts", s.lastTimestamp))
		res.Skipped = true
		res.Reason = "out-of-order frame"
		res.State = s.tracker.State()
		res.Reps = s.tracker.Reps()
		return res, nil
	}
	s.lastTimestamp = f.Timestamp

	if s.opts.Mode == feedback.ModeLive && !s.lastProcessed.IsZero() &&
		f.Timestamp.Sub(s.lastProcessed) < s.opts.LiveTickInterval {
		res.Skipped = true
		res.Reason = "live throttle"
		res.State = s.tracker.State()
		res.Reps = s.tracker.Reps()
		return res, nil
	}
	s.lastProcessed = f.Timestamp

	smoothed := s.bank.SmoothFrame(f)

	if ev := s.tracker.Gate(smoothed); ev == measurement.EventMeasurementStarted {
		res.Event = ev
		s.logger.Info("measurement started", slog.Time("ts", f.Timestamp))
	}
	res.State = s.tracker.State()
	if res.State == measurement.StateAwaitingPosition {
		res.Status = services.StatusUnavailable
		res.Reason = "awaiting position"
		res.Reps = s.tracker.Reps()
		return res, nil
	}

	tick, err := s.engine.Measure(smoothed)
	if err != nil {
		status, recoverable := services.TickOutcome(err)
		if !recoverable {
			return nil, err
		}
		res.Status = status
		res.Reason = err.Error()
		// Postures are still observable from landmarks even when the
		// primary measurement is not.
		res.Flagged = s.observe(smoothed, nil)
		res.Reps = s.tracker.Reps()
		return res, nil
	}

	res.Status = services.StatusOK
	res.Measurements = tick

	// Captured before Update: a completing rep resets the tracker's peak
	// to the current (low) angle within the same call.
	peakBefore := s.tracker.PeakAngle()
	event := s.tracker.Update(tick.Primary.AngleDegrees)
	if event != measurement.EventNone {
		res.Event = event
	}
	res.State = s.tracker.State()
	res.Reps = s.tracker.Reps()

	if s.rhythm != nil {
		s.rhythm.Observe(smoothed, tick.Primary.AngleDegrees)
	}

	res.Flagged = s.observe(smoothed, tick)

	if event == measurement.EventRepComplete {
		kinds := make([]compensation.Kind, 0, len(s.repFlagged))
		for k := range s.repFlagged {
			kinds = append(kinds, k)
		}
		s.ranker.RecordRep(peakBefore, kinds)
		res.RepPeakDegrees = peakBefore
		res.RepKinds = kinds
		s.repFlagged = make(map[compensation.Kind]bool)
		s.logger.Info("rep complete",
			slog.Int("reps", s.tracker.Reps()),
			slog.Float64("peak_degrees", peakBefore))
	}

	// A cancellation that lands mid-tick must not emit feedback.
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "session", "tick", "cancelled", err)
	}
	if s.opts.Mode == feedback.ModeLive {
		fb := s.ranker.Rank(res.Flagged, feedback.ModeLive)
		res.Feedback = &fb
	}
	return res, nil
}

// observe runs the detector and folds the result into the rep and
// session accumulators.
func (s *Session) observe(f *pose.Frame, tick *measurement.Tick) []compensation.Pattern {
	flagged := s.detector.Observe(f, tick)
	for _, p := range flagged {
		s.repFlagged[p.Kind] = true
		prev, seen := s.accumulated[p.Kind]
		if !seen {
			s.accumulated[p.Kind] = p
			s.logger.Warn("compensation flagged",
				slog.String("pattern", string(p.Kind)),
				slog.String("severity", string(p.Severity)),
				slog.Float64("magnitude", p.Magnitude))
			continue
		}
		if p.Severity.AtLeast(prev.Severity) {
			prev.Severity = p.Severity
			prev.Tier = p.Tier
		}
		if p.PeakMagnitude > prev.PeakMagnitude {
			prev.PeakMagnitude = p.PeakMagnitude
		}
		prev.Magnitude = p.Magnitude
		if p.DetectedAt.Before(prev.DetectedAt) {
			prev.DetectedAt = p.DetectedAt
		}
		s.accumulated[p.Kind] = prev
	}
	return flagged
}

// Stop ends the session: the tracker enters SESSION_DONE, filter
// state is released, and the offline feedback ranking is produced
// from the session's accumulated patterns.
func (s *Session) Stop() *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true
	s.tracker.Stop()
	s.bank.Reset()

	patterns := make([]compensation.Pattern, 0, len(s.accumulated))
	for _, kind := range compensation.AllKinds {
		if p, ok := s.accumulated[kind]; ok {
			patterns = append(patterns, p)
		}
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].DetectedAt.Before(patterns[j].DetectedAt)
	})

	summary := &Summary{
		SessionID:  s.id,
		ExerciseID: s.ex.ID,
		StartedAt:  s.startedAt,
		StoppedAt:  time.Now().UTC(),
		Reps:       s.tracker.Reps(),
		Patterns:   patterns,
		Feedback:   s.ranker.Rank(patterns, feedback.ModeOffline),
	}
	if s.rhythm != nil {
		if result, ok := s.rhythm.Result(); ok {
			summary.Rhythm = &result
		}
	}

	s.logger.Info("session stopped",
		slog.Int("reps", summary.Reps),
		slog.Int("patterns", len(patterns)))
	return summary
}
