package anatomy_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/geom"
	"kinemetry/internal/pose"
	"kinemetry/internal/testsupport"
)

var frameTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newBuilder(t *testing.T) *anatomy.Builder {
	t.Helper()
	b, err := anatomy.NewBuilder(anatomy.BuilderConfig{
		MinLandmarkConfidence: 0.5,
		ScapularOffsetDegrees: 35,
	})
	if err != nil {
		t.Fatalf("NewBuilder returned error: %v", err)
	}
	return b
}

func TestNewBuilderRejectsOutOfRangeConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  anatomy.BuilderConfig
	}{
		{"negative confidence", anatomy.BuilderConfig{MinLandmarkConfidence: -0.1, ScapularOffsetDegrees: 35}},
		{"offset below clinical range", anatomy.BuilderConfig{MinLandmarkConfidence: 0.5, ScapularOffsetDegrees: 20}},
		{"offset above clinical range", anatomy.BuilderConfig{MinLandmarkConfidence: 0.5, ScapularOffsetDegrees: 45}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := anatomy.NewBuilder(tt.cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}

func TestThoraxFrameIsOrthonormal(t *testing.T) {
	b := newBuilder(t)
	poses := []*pose.Frame{
		testsupport.Body(frameTime),
		testsupport.Body(frameTime, testsupport.WithTrunkLean(15)),
		testsupport.Body(frameTime, testsupport.WithTrunkLean(-25)),
	}
	for _, f := range poses {
		frame, err := b.Thorax(f)
		if err != nil {
			t.Fatalf("Thorax returned error: %v", err)
		}
		if !frame.Valid() {
			t.Fatalf("thorax frame not orthonormal: %+v", frame)
		}
		if frame.Kind != anatomy.KindThorax {
			t.Fatalf("unexpected kind %s", frame.Kind)
		}
		if !frame.HasDepth {
			t.Fatal("3D input should produce HasDepth=true")
		}
	}
}

func TestThoraxFrameTracksTrunkLean(t *testing.T) {
	b := newBuilder(t)
	lean := 12.0
	frame, err := b.Thorax(testsupport.Body(frameTime, testsupport.WithTrunkLean(lean)))
	if err != nil {
		t.Fatalf("Thorax returned error: %v", err)
	}
	angle, err := geom.AngleBetween(frame.Y, geom.Vec{Y: 1})
	if err != nil {
		t.Fatalf("AngleBetween returned error: %v", err)
	}
	if math.Abs(angle-lean) > 0.5 {
		t.Fatalf("thorax superior axis deviates %v degrees from vertical, want %v", angle, lean)
	}
}

func TestThoraxLowConfidenceRejected(t *testing.T) {
	b := newBuilder(t)
	f := testsupport.Body(frameTime, testsupport.WithLandmarkConfidence(0.2, pose.LeftShoulder))

	var lowConf *anatomy.LowConfidenceError
	_, err := b.Thorax(f)
	if !errors.As(err, &lowConf) {
		t.Fatalf("expected LowConfidenceError, got %v", err)
	}
	if lowConf.Minimum != 0.5 {
		t.Fatalf("error carries minimum %v, want 0.5", lowConf.Minimum)
	}
}

func TestThoraxMissingLandmarkRejected(t *testing.T) {
	b := newBuilder(t)
	f := testsupport.Body(frameTime, testsupport.WithMissing(pose.RightHip))

	var lowConf *anatomy.LowConfidenceError
	if _, err := b.Thorax(f); !errors.As(err, &lowConf) {
		t.Fatalf("expected LowConfidenceError for missing landmark, got %v", err)
	}
}

func TestTwoDFallbackClearsDepthFlag(t *testing.T) {
	b := newBuilder(t)
	frame, err := b.Thorax(testsupport.Body(frameTime, testsupport.With2D()))
	if err != nil {
		t.Fatalf("Thorax returned error: %v", err)
	}
	if frame.HasDepth {
		t.Fatal("2D fallback must set HasDepth=false")
	}
	if !frame.Valid() {
		t.Fatal("2D fallback frame must still be orthonormal")
	}
}

// The scapular offset is a fixed configuration constant: whatever pose the
// thorax frame came from, the scapular anterior axis sits exactly the
// configured rotation from the coronal one.
func TestScapularOffsetInvariantAcrossPoses(t *testing.T) {
	b := newBuilder(t)
	poses := []*pose.Frame{
		testsupport.Body(frameTime),
		testsupport.Body(frameTime, testsupport.WithTrunkLean(18)),
		testsupport.Body(frameTime, testsupport.WithTrunkLean(-9)),
		testsupport.Body(frameTime, testsupport.WithArmAbduction("right", 70)),
	}
	for _, f := range poses {
		thorax, err := b.Thorax(f)
		if err != nil {
			t.Fatalf("Thorax returned error: %v", err)
		}
		scapular, err := b.Scapular(thorax)
		if err != nil {
			t.Fatalf("Scapular returned error: %v", err)
		}
		if !scapular.Valid() {
			t.Fatal("scapular frame not orthonormal")
		}
		offset, err := geom.AngleBetween(thorax.Z, scapular.Z)
		if err != nil {
			t.Fatalf("AngleBetween returned error: %v", err)
		}
		if math.Abs(offset-35) > 1e-6 {
			t.Fatalf("scapular offset = %v, want 35", offset)
		}
		// The superior axis is the rotation axis and must be untouched.
		if thorax.Y != scapular.Y {
			t.Fatal("scapular rotation moved the superior axis")
		}
	}
}

func TestScapularRequiresThoraxFrame(t *testing.T) {
	b := newBuilder(t)
	global, err := b.Global(testsupport.Body(frameTime))
	if err != nil {
		t.Fatalf("Global returned error: %v", err)
	}
	if _, err := b.Scapular(global); err == nil {
		t.Fatal("expected error rotating a non-thorax frame")
	}
}

func TestHumeralFrameFollowsArm(t *testing.T) {
	b := newBuilder(t)

	humeralAxis := func(abduction float64) geom.Vec {
		t.Helper()
		f := testsupport.Body(frameTime, testsupport.WithArmAbduction("right", abduction))
		thorax, err := b.Thorax(f)
		if err != nil {
			t.Fatalf("Thorax returned error: %v", err)
		}
		humeral, err := b.Humeral(f, thorax, anatomy.SideRight)
		if err != nil {
			t.Fatalf("Humeral returned error: %v", err)
		}
		if !humeral.Valid() {
			t.Fatal("humeral frame not orthonormal")
		}
		return humeral.Y
	}

	// Raising the arm by 90 degrees must swing the humeral long axis by
	// exactly that much; the small resting offset of the synthetic body
	// cancels in the difference.
	swing, err := geom.AngleBetween(humeralAxis(0), humeralAxis(90))
	if err != nil {
		t.Fatalf("AngleBetween returned error: %v", err)
	}
	if math.Abs(swing-90) > 1e-6 {
		t.Fatalf("humeral axis swung %v degrees, want 90", swing)
	}
}

func TestGlobalFrameOriginAtBodyCenter(t *testing.T) {
	b := newBuilder(t)
	f := testsupport.Body(frameTime)
	frame, err := b.Global(f)
	if err != nil {
		t.Fatalf("Global returned error: %v", err)
	}
	lh, _ := f.Keypoint(pose.LeftHip)
	rh, _ := f.Keypoint(pose.RightHip)
	want := geom.Midpoint(lh.Position, rh.Position)
	if frame.Origin != want {
		t.Fatalf("global origin %v, want hip midpoint %v", frame.Origin, want)
	}
	if !frame.Valid() {
		t.Fatal("global frame not orthonormal")
	}
}
