package geom_test

import (
	"errors"
	"math"
	"testing"

	"kinemetry/internal/geom"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestAngleBetweenRangeAndSymmetry(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.Vec
		want float64
	}{
		{"identical", geom.Vec{X: 1}, geom.Vec{X: 1}, 0},
		{"opposite", geom.Vec{X: 1}, geom.Vec{X: -1}, 180},
		{"orthogonal", geom.Vec{X: 1}, geom.Vec{Y: 1}, 90},
		{"45 degrees", geom.Vec{X: 1}, geom.Vec{X: 1, Y: 1}, 45},
		{"unnormalized inputs", geom.Vec{X: 3}, geom.Vec{Y: 7}, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := geom.AngleBetween(tt.a, tt.b)
			if err != nil {
				t.Fatalf("AngleBetween returned error: %v", err)
			}
			if !almostEqual(got, tt.want, 1e-9) {
				t.Fatalf("AngleBetween = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 180 {
				t.Fatalf("angle %v outside [0, 180]", got)
			}
			sym, err := geom.AngleBetween(tt.b, tt.a)
			if err != nil {
				t.Fatalf("symmetric AngleBetween returned error: %v", err)
			}
			if !almostEqual(got, sym, 1e-12) {
				t.Fatalf("asymmetric angle: %v vs %v", got, sym)
			}
		})
	}
}

func TestAngleBetweenClampsCosineDrift(t *testing.T) {
	// Nearly identical directions whose dot product can exceed 1 in floats.
	a := geom.Vec{X: 0.577350269189626, Y: 0.577350269189626, Z: 0.577350269189626}
	got, err := geom.AngleBetween(a, a)
	if err != nil {
		t.Fatalf("AngleBetween returned error: %v", err)
	}
	if math.IsNaN(got) {
		t.Fatal("AngleBetween produced NaN on near-parallel vectors")
	}
	if !almostEqual(got, 0, 1e-6) {
		t.Fatalf("AngleBetween = %v, want ~0", got)
	}
}

func TestAngleBetweenDegenerate(t *testing.T) {
	var degenerate *geom.DegenerateVectorError
	_, err := geom.AngleBetween(geom.Vec{}, geom.Vec{X: 1})
	if !errors.As(err, &degenerate) {
		t.Fatalf("expected DegenerateVectorError, got %v", err)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	v := geom.Vec{X: 3, Y: -4, Z: 12}
	once, err := geom.Normalize(v)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	twice, err := geom.Normalize(once)
	if err != nil {
		t.Fatalf("second Normalize returned error: %v", err)
	}
	if !almostEqual(once.Sub(twice).Norm(), 0, 1e-12) {
		t.Fatalf("Normalize not idempotent: %v vs %v", once, twice)
	}
	if !geom.IsUnit(once) {
		t.Fatalf("Normalize output not unit: norm %v", once.Norm())
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	var degenerate *geom.DegenerateVectorError
	_, err := geom.Normalize(geom.Vec{X: 1e-12, Y: -1e-12})
	if !errors.As(err, &degenerate) {
		t.Fatalf("expected DegenerateVectorError, got %v", err)
	}
}

func TestProjectOntoPlane(t *testing.T) {
	normal := geom.Vec{Z: 1}
	v := geom.Vec{X: 2, Y: 3, Z: 5}
	got, err := geom.ProjectOntoPlane(v, normal)
	if err != nil {
		t.Fatalf("ProjectOntoPlane returned error: %v", err)
	}
	want := geom.Vec{X: 2, Y: 3}
	if !almostEqual(got.Sub(want).Norm(), 0, 1e-12) {
		t.Fatalf("projection = %v, want %v", got, want)
	}
	if !almostEqual(got.Dot(normal), 0, 1e-12) {
		t.Fatal("projection retains a normal component")
	}
}

func TestProjectOntoPlaneRejectsNonUnitNormal(t *testing.T) {
	var nonUnit *geom.NonUnitNormalError
	_, err := geom.ProjectOntoPlane(geom.Vec{X: 1}, geom.Vec{Z: 2})
	if !errors.As(err, &nonUnit) {
		t.Fatalf("expected NonUnitNormalError, got %v", err)
	}
}

func TestMidpoint(t *testing.T) {
	got := geom.Midpoint(geom.Vec{X: 2, Y: 4}, geom.Vec{X: 4, Y: -2, Z: 6})
	want := geom.Vec{X: 3, Y: 1, Z: 3}
	if got != want {
		t.Fatalf("Midpoint = %v, want %v", got, want)
	}
}

func TestOrthonormalize(t *testing.T) {
	x, y, z, err := geom.Orthonormalize(geom.Vec{X: 2, Y: 0.1}, geom.Vec{X: 0.3, Y: 5, Z: 0.2})
	if err != nil {
		t.Fatalf("Orthonormalize returned error: %v", err)
	}
	if !geom.IsOrthonormal(x, y, z) {
		t.Fatalf("axes not orthonormal: %v %v %v", x, y, z)
	}
}

func TestOrthonormalizeParallelInputs(t *testing.T) {
	var degenerate *geom.DegenerateVectorError
	_, _, _, err := geom.Orthonormalize(geom.Vec{X: 1}, geom.Vec{X: 2})
	if !errors.As(err, &degenerate) {
		t.Fatalf("expected DegenerateVectorError for parallel inputs, got %v", err)
	}
}

func TestRotateAround(t *testing.T) {
	got, err := geom.RotateAround(geom.Vec{X: 1}, geom.Vec{Z: 1}, 90)
	if err != nil {
		t.Fatalf("RotateAround returned error: %v", err)
	}
	want := geom.Vec{Y: 1}
	if !almostEqual(got.Sub(want).Norm(), 0, 1e-12) {
		t.Fatalf("RotateAround = %v, want %v", got, want)
	}
	angle, err := geom.AngleBetween(geom.Vec{X: 1}, got)
	if err != nil {
		t.Fatalf("AngleBetween returned error: %v", err)
	}
	if !almostEqual(angle, 90, 1e-9) {
		t.Fatalf("rotation angle = %v, want 90", angle)
	}
}
