package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/compensation"
	"kinemetry/internal/exercise"
	"kinemetry/internal/feedback"
	"kinemetry/internal/logging"
	"kinemetry/internal/measurement"
	"kinemetry/internal/services"
	"kinemetry/internal/session"
	"kinemetry/internal/testsupport"
)

var sessionStart = time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)

func newSession(t *testing.T, opts session.Options) *session.Session {
	t.Helper()
	s, err := session.New(exercise.ShoulderAbduction(anatomy.SideLeft), opts, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewConfigErrors(t *testing.T) {
	nop := logging.NewNop()
	ex := exercise.ShoulderAbduction(anatomy.SideLeft)

	bad := session.DefaultOptions()
	bad.Mode = "batch"
	if _, err := session.New(ex, bad, nop); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("bad mode: got %v", err)
	}

	bad = session.DefaultOptions()
	bad.Detector.Thresholds = nil
	if _, err := session.New(ex, bad, nop); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("empty thresholds: got %v", err)
	}

	bad = session.DefaultOptions()
	bad.Mode = feedback.ModeLive
	bad.LiveTickInterval = 0
	if _, err := session.New(ex, bad, nop); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("zero live interval: got %v", err)
	}

	badEx := ex
	badEx.PrimaryJoint = "spine"
	if _, err := session.New(badEx, session.DefaultOptions(), nop); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("bad exercise: got %v", err)
	}
}

// abductionFrame scripts one frame of a single shoulder-abduction rep:
// raise over frames 0-14, lower over 15-29, then hold at the side so the
// smoothed angle settles back inside the hysteresis band. A 12 degree
// trunk lean is injected from frame 8 onward, sustained well past the
// 400 ms persistence window.
func abductionFrame(i int) []testsupport.BodyOption {
	var abduction float64
	switch {
	case i <= 14:
		abduction = 90 * float64(i) / 14
	case i <= 29:
		abduction = 90 * float64(29-i) / 14
	}
	opts := []testsupport.BodyOption{testsupport.WithArmAbduction("left", abduction)}
	if i >= 8 {
		opts = append(opts, testsupport.WithTrunkLean(12))
	}
	return opts
}

func TestEndToEndAbductionWithSustainedTrunkLean(t *testing.T) {
	s := newSession(t, session.DefaultOptions())
	ctx := context.Background()

	step := 50 * time.Millisecond
	var last *session.TickResult
	for i := 0; i < 34; i++ {
		ts := sessionStart.Add(time.Duration(i) * step)
		res, err := s.Tick(ctx, testsupport.Body(ts, abductionFrame(i)...))
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if res.Skipped {
			t.Fatalf("tick %d skipped in offline mode", i)
		}
		if res.Feedback != nil {
			t.Fatalf("tick %d carried feedback in offline mode", i)
		}
		last = res
	}

	if len(last.Flagged) != 1 {
		t.Fatalf("flagged = %v, want exactly one trunk_lean", last.Flagged)
	}
	if last.Flagged[0].Kind != compensation.TrunkLean {
		t.Fatalf("flagged kind = %s, want trunk_lean", last.Flagged[0].Kind)
	}
	if !last.Flagged[0].Severity.AtLeast(compensation.SeverityMild) {
		t.Fatalf("severity = %s, want at least mild", last.Flagged[0].Severity)
	}

	summary := s.Stop()
	if summary == nil {
		t.Fatal("nil summary")
	}
	if summary.Reps != 1 {
		t.Fatalf("reps = %d, want 1", summary.Reps)
	}
	if len(summary.Patterns) != 1 || summary.Patterns[0].Kind != compensation.TrunkLean {
		t.Fatalf("summary patterns = %v, want one trunk_lean", summary.Patterns)
	}
	if len(summary.Feedback.Items) == 0 || len(summary.Feedback.Items) > 3 {
		t.Fatalf("offline feedback has %d items, want 1..3", len(summary.Feedback.Items))
	}
	found := false
	for _, item := range summary.Feedback.Items {
		if item.Pattern.Kind == compensation.TrunkLean {
			found = true
		}
	}
	if !found {
		t.Fatal("trunk_lean missing from top-3 feedback")
	}
	if summary.Rhythm == nil {
		t.Fatal("expected a scapulohumeral rhythm result for an abduction session")
	}
}

func TestRepPeakRecordsExcursionNotReturnAngle(t *testing.T) {
	s := newSession(t, session.DefaultOptions())
	ctx := context.Background()

	// One clean rep: raise to 90, lower, hold at the side. The tick that
	// completes the rep measures a near-zero angle, so a peak read after
	// the tracker resets would report that instead of the excursion.
	var peak float64
	for i := 0; i < 34; i++ {
		var abduction float64
		switch {
		case i <= 14:
			abduction = 90 * float64(i) / 14
		case i <= 29:
			abduction = 90 * float64(29-i) / 14
		}
		ts := sessionStart.Add(time.Duration(i) * 50 * time.Millisecond)
		res, err := s.Tick(ctx, testsupport.Body(ts, testsupport.WithArmAbduction("left", abduction)))
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if res.Event == measurement.EventRepComplete {
			peak = res.RepPeakDegrees
			if res.Measurements.Primary.AngleDegrees > 30 {
				t.Fatalf("rep completed at %.1f degrees, script expects a low return angle", res.Measurements.Primary.AngleDegrees)
			}
		}
	}
	if peak < 60 {
		t.Fatalf("rep peak = %.1f, want the excursion peak (>= 60)", peak)
	}
}

func TestLiveThrottleProcessesAtTickInterval(t *testing.T) {
	opts := session.DefaultOptions()
	opts.Mode = feedback.ModeLive
	s := newSession(t, opts)
	ctx := context.Background()

	processed := 0
	for i := 0; i <= 20; i++ {
		ts := sessionStart.Add(time.Duration(i) * 100 * time.Millisecond)
		res, err := s.Tick(ctx, testsupport.Body(ts))
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if res.Skipped {
			continue
		}
		processed++
		if res.Feedback == nil {
			t.Fatalf("tick %d: live tick without feedback", i)
		}
	}
	// 2 seconds of frames at a 500 ms tick interval.
	if processed != 5 {
		t.Fatalf("processed %d ticks, want 5", processed)
	}
}

func TestOutOfOrderFrameIsDropped(t *testing.T) {
	s := newSession(t, session.DefaultOptions())
	ctx := context.Background()

	if _, err := s.Tick(ctx, testsupport.Body(sessionStart.Add(time.Second))); err != nil {
		t.Fatalf("tick: %v", err)
	}
	res, err := s.Tick(ctx, testsupport.Body(sessionStart))
	if err != nil {
		t.Fatalf("stale tick: %v", err)
	}
	if !res.Skipped || res.Reason != "out-of-order frame" {
		t.Fatalf("stale frame not dropped: %+v", res)
	}
}

func TestCancelledContextAbandonsTick(t *testing.T) {
	s := newSession(t, session.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Tick(ctx, testsupport.Body(sessionStart))
	if err == nil || res != nil {
		t.Fatalf("cancelled tick returned (%v, %v)", res, err)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestStoppedSessionRejectsTicks(t *testing.T) {
	s := newSession(t, session.DefaultOptions())
	if s.Stop() == nil {
		t.Fatal("first stop returned nil summary")
	}
	if s.Stop() != nil {
		t.Fatal("second stop should return nil")
	}
	if _, err := s.Tick(context.Background(), testsupport.Body(sessionStart)); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("tick after stop: got %v", err)
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := session.NewManager(logging.NewNop())
	ex := exercise.ShoulderAbduction(anatomy.SideRight)

	s, err := m.Start(ex, session.DefaultOptions())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got, ok := m.Get(s.ID()); !ok || got != s {
		t.Fatal("Get did not return the started session")
	}
	if ids := m.Active(); len(ids) != 1 || ids[0] != s.ID() {
		t.Fatalf("Active = %v", ids)
	}

	summary, err := m.Stop(s.ID())
	if err != nil || summary == nil {
		t.Fatalf("Stop: (%v, %v)", summary, err)
	}
	if _, ok := m.Get(s.ID()); ok {
		t.Fatal("stopped session still registered")
	}
	if _, err := m.Stop("nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown stop: got %v", err)
	}
}
