package services_test

import (
	"errors"
	"strings"
	"testing"

	"kinemetry/internal/services"
)

func TestWrapTagsMarkerAndContext(t *testing.T) {
	inner := errors.New("shoulder landmark below 0.5")
	err := services.Wrap(services.ErrInputQuality, "anatomy", "thorax", "confidence gate", inner)

	if !errors.Is(err, services.ErrInputQuality) {
		t.Fatal("wrapped error lost its marker")
	}
	if !errors.Is(err, inner) {
		t.Fatal("wrapped error lost the cause")
	}
	for _, part := range []string{"anatomy", "thorax", "confidence gate"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("error %q missing context %q", err, part)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "store", "persist", "", errors.New("db locked"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("nil marker should default to ErrTransient")
	}
}

func TestTickOutcome(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus services.TickStatus
		wantOK     bool
	}{
		{"nil error", nil, services.StatusOK, true},
		{"input quality", services.Wrap(services.ErrInputQuality, "smoothing", "", "", nil), services.StatusUnavailable, true},
		{"geometry", services.Wrap(services.ErrGeometry, "geom", "normalize", "", nil), services.StatusUnavailable, true},
		{"transient", services.Wrap(services.ErrTransient, "store", "", "", nil), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := services.TickOutcome(tt.err)
			if ok != tt.wantOK || status != tt.wantStatus {
				t.Fatalf("TickOutcome = (%q, %v), want (%q, %v)", status, ok, tt.wantStatus, tt.wantOK)
			}
		})
	}
}

func TestFatalClassification(t *testing.T) {
	if !services.Fatal(services.Wrap(services.ErrConfiguration, "session", "start", "unknown plane", nil)) {
		t.Fatal("configuration errors must be fatal")
	}
	if services.Fatal(services.Wrap(services.ErrInputQuality, "", "", "", nil)) {
		t.Fatal("input quality errors must not be fatal")
	}
}
