package measurement_test

import (
	"errors"
	"math"
	"testing"

	"kinemetry/internal/measurement"
	"kinemetry/internal/services"
	"kinemetry/internal/testsupport"
)

func TestRhythmConfigValidation(t *testing.T) {
	bad := []measurement.RhythmConfig{
		{TargetRatio: 0, Tolerance: 0.5, MinElevationDegrees: 60},
		{TargetRatio: 2, Tolerance: -1, MinElevationDegrees: 60},
		{TargetRatio: 2, Tolerance: 0.5, MinElevationDegrees: 0},
	}
	for _, cfg := range bad {
		if _, err := measurement.NewRhythmAnalyzer(cfg); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("config %+v: expected configuration error, got %v", cfg, err)
		}
	}
}

func TestRhythmNoResultBeforeMinElevation(t *testing.T) {
	analyzer, err := measurement.NewRhythmAnalyzer(measurement.DefaultRhythmConfig())
	if err != nil {
		t.Fatalf("NewRhythmAnalyzer returned error: %v", err)
	}
	analyzer.Observe(testsupport.Body(tickTime), 0)
	analyzer.Observe(testsupport.Body(tickTime), 40)
	if _, ok := analyzer.Result(); ok {
		t.Fatal("result available below minimum elevation")
	}
}

func TestRhythmRatioAtPeak(t *testing.T) {
	analyzer, err := measurement.NewRhythmAnalyzer(measurement.DefaultRhythmConfig())
	if err != nil {
		t.Fatalf("NewRhythmAnalyzer returned error: %v", err)
	}

	// Resting baseline: level girdle.
	analyzer.Observe(testsupport.Body(tickTime), 0)

	// Peak: 90 degrees of elevation with the girdle tilted 30 degrees,
	// i.e. a 60:30 glenohumeral-to-scapulothoracic split (ratio 2).
	hike := math.Tan(30*math.Pi/180) * 0.44
	analyzer.Observe(testsupport.Body(tickTime, testsupport.WithShoulderHike("right", hike)), 90)

	result, ok := analyzer.Result()
	if !ok {
		t.Fatal("no result at peak elevation")
	}
	if math.Abs(result.Ratio-2) > 0.2 {
		t.Fatalf("ratio %v, want ~2", result.Ratio)
	}
	if !result.WithinTarget {
		t.Fatalf("ratio %v should satisfy the 2:1 target", result.Ratio)
	}
	if result.PeakElevation != 90 {
		t.Fatalf("peak elevation %v, want 90", result.PeakElevation)
	}
}

func TestRhythmExcessiveShrugFailsTarget(t *testing.T) {
	analyzer, err := measurement.NewRhythmAnalyzer(measurement.DefaultRhythmConfig())
	if err != nil {
		t.Fatalf("NewRhythmAnalyzer returned error: %v", err)
	}
	analyzer.Observe(testsupport.Body(tickTime), 0)

	// Girdle tilt of ~48 degrees at 90 elevation: the shrug dominates.
	hike := math.Tan(48*math.Pi/180) * 0.44
	analyzer.Observe(testsupport.Body(tickTime, testsupport.WithShoulderHike("right", hike)), 90)

	result, ok := analyzer.Result()
	if !ok {
		t.Fatal("no result at peak elevation")
	}
	if result.WithinTarget {
		t.Fatalf("ratio %v should fail the 2:1 target", result.Ratio)
	}
	if result.Ratio >= 2 {
		t.Fatalf("shrug-heavy ratio %v should be below 2", result.Ratio)
	}
}

func TestRhythmBaselineFromRestingOffset(t *testing.T) {
	analyzer, err := measurement.NewRhythmAnalyzer(measurement.DefaultRhythmConfig())
	if err != nil {
		t.Fatalf("NewRhythmAnalyzer returned error: %v", err)
	}

	// A hanging arm never measures zero elevation; the resting readout
	// sits around 8 degrees. The baseline must still establish there.
	analyzer.Observe(testsupport.Body(tickTime), 8)

	hike := math.Tan(30*math.Pi/180) * 0.44
	analyzer.Observe(testsupport.Body(tickTime, testsupport.WithShoulderHike("right", hike)), 90)

	result, ok := analyzer.Result()
	if !ok {
		t.Fatal("no result when the resting arm reads a nonzero elevation")
	}
	if result.PeakElevation != 90 {
		t.Fatalf("peak elevation %v, want 90", result.PeakElevation)
	}
}
