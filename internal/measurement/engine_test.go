package measurement_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/exercise"
	"kinemetry/internal/measurement"
	"kinemetry/internal/pose"
	"kinemetry/internal/services"
	"kinemetry/internal/testsupport"
)

var tickTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, ex exercise.Exercise) *measurement.Engine {
	t.Helper()
	builder, err := anatomy.NewBuilder(anatomy.BuilderConfig{
		MinLandmarkConfidence: 0.5,
		ScapularOffsetDegrees: 35,
	})
	if err != nil {
		t.Fatalf("NewBuilder returned error: %v", err)
	}
	engine, err := measurement.NewEngine(builder, ex)
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	return engine
}

func TestNewEngineRejectsInvalidExercise(t *testing.T) {
	builder, err := anatomy.NewBuilder(anatomy.BuilderConfig{MinLandmarkConfidence: 0.5, ScapularOffsetDegrees: 35})
	if err != nil {
		t.Fatalf("NewBuilder returned error: %v", err)
	}
	bad := exercise.ShoulderAbduction(anatomy.SideRight)
	bad.Plane = "diagonal"
	_, err = measurement.NewEngine(builder, bad)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestMeasureShoulderAbductionAngle(t *testing.T) {
	engine := newEngine(t, exercise.ShoulderAbduction(anatomy.SideRight))

	tests := []struct {
		abduction float64
		tolerance float64
	}{
		{0, 8}, // resting offset of the synthetic arm
		{45, 9},
		{90, 9},
		{120, 9},
	}
	for _, tt := range tests {
		f := testsupport.Body(tickTime, testsupport.WithArmAbduction("right", tt.abduction))
		tick, err := engine.Measure(f)
		if err != nil {
			t.Fatalf("Measure(%v) returned error: %v", tt.abduction, err)
		}
		if tick.Primary == nil {
			t.Fatalf("Measure(%v) produced no primary measurement", tt.abduction)
		}
		if got := tick.Primary.AngleDegrees; math.Abs(got-tt.abduction) > tt.tolerance {
			t.Fatalf("abduction %v measured as %v", tt.abduction, got)
		}
		if tick.Primary.Role != measurement.RolePrimary {
			t.Fatal("primary measurement not marked primary")
		}
		if tick.Primary.Plane != anatomy.PlaneCoronal {
			t.Fatalf("primary measured in %s, want coronal", tick.Primary.Plane)
		}
	}
}

func TestMeasureAttachesMinimumLandmarkConfidence(t *testing.T) {
	engine := newEngine(t, exercise.ShoulderAbduction(anatomy.SideRight))
	f := testsupport.Body(tickTime,
		testsupport.WithLandmarkConfidence(0.62, pose.RightElbow))

	tick, err := engine.Measure(f)
	if err != nil {
		t.Fatalf("Measure returned error: %v", err)
	}
	if got := tick.Primary.Confidence; got != 0.62 {
		t.Fatalf("primary confidence %v, want min contributing landmark 0.62", got)
	}
}

func TestMeasureCarriesDepthFlag(t *testing.T) {
	engine := newEngine(t, exercise.ShoulderAbduction(anatomy.SideRight))
	tick, err := engine.Measure(testsupport.Body(tickTime, testsupport.With2D()))
	if err != nil {
		t.Fatalf("Measure returned error: %v", err)
	}
	if tick.Primary.HasDepth {
		t.Fatal("2D input must yield HasDepth=false measurements")
	}
}

func TestMeasureLowConfidencePrimaryIsRecoverable(t *testing.T) {
	engine := newEngine(t, exercise.ShoulderAbduction(anatomy.SideRight))
	f := testsupport.Body(tickTime, testsupport.WithLandmarkConfidence(0.1, pose.RightShoulder))

	_, err := engine.Measure(f)
	if err == nil {
		t.Fatal("expected error for low-confidence primary landmarks")
	}
	status, ok := services.TickOutcome(err)
	if !ok || status != services.StatusUnavailable {
		t.Fatalf("low confidence should map to unavailable, got (%q, %v): %v", status, ok, err)
	}
}

func TestMeasureSecondaryDegradesToUnavailable(t *testing.T) {
	engine := newEngine(t, exercise.ShoulderAbduction(anatomy.SideRight))
	// Elbow validation needs the wrist; dropping it must not block the
	// primary shoulder measurement.
	f := testsupport.Body(tickTime, testsupport.WithLandmarkConfidence(0.1, pose.RightWrist))

	tick, err := engine.Measure(f)
	if err != nil {
		t.Fatalf("Measure returned error: %v", err)
	}
	if tick.Primary == nil {
		t.Fatal("primary measurement missing")
	}
	found := false
	for _, status := range tick.Unavailable {
		if status.Joint == exercise.JointElbow {
			found = true
		}
	}
	if !found {
		t.Fatalf("elbow not reported unavailable: %+v", tick.Unavailable)
	}
	for _, m := range tick.Secondary {
		if m.Joint == exercise.JointElbow {
			t.Fatal("elbow measured despite missing wrist")
		}
	}
}

func TestMeasureSecondaryTrunkReadsLean(t *testing.T) {
	engine := newEngine(t, exercise.ShoulderAbduction(anatomy.SideRight))
	f := testsupport.Body(tickTime, testsupport.WithTrunkLean(12))

	tick, err := engine.Measure(f)
	if err != nil {
		t.Fatalf("Measure returned error: %v", err)
	}
	var trunk *measurement.Measurement
	for i := range tick.Secondary {
		if tick.Secondary[i].Joint == exercise.JointTrunk {
			trunk = &tick.Secondary[i]
		}
	}
	if trunk == nil {
		t.Fatal("no trunk secondary measurement")
	}
	if math.Abs(trunk.AngleDegrees-12) > 1 {
		t.Fatalf("trunk lean measured as %v, want ~12", trunk.AngleDegrees)
	}
	if trunk.Role != measurement.RoleSecondary {
		t.Fatal("trunk measurement not marked secondary")
	}
}
