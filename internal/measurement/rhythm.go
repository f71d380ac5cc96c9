package measurement

import (
	"kinemetry/internal/geom"
	"kinemetry/internal/pose"
	"kinemetry/internal/services"
)

// RhythmConfig tunes the scapulohumeral rhythm check. The default target is
// the classic 2:1 glenohumeral-to-scapulothoracic ratio; clinics preferring
// the 2.86-3.13:1 literature range override target and tolerance in config.
type RhythmConfig struct {
	TargetRatio         float64
	Tolerance           float64
	MinElevationDegrees float64
}

// DefaultRhythmConfig returns the 2:1 target with a +-0.5 band, evaluated
// only once elevation exceeds 60 degrees where the rhythm stabilizes.
func DefaultRhythmConfig() RhythmConfig {
	return RhythmConfig{TargetRatio: 2.0, Tolerance: 0.5, MinElevationDegrees: 60}
}

// RhythmResult is the per-session rhythm verdict.
type RhythmResult struct {
	Ratio         float64
	TargetRatio   float64
	WithinTarget  bool
	PeakElevation float64
}

// RhythmAnalyzer estimates the scapulothoracic contribution to shoulder
// elevation from landmark data alone: the upward rotation of the shoulder
// girdle is read as the tilt change of the inter-shoulder line relative to
// the pelvis line, and the glenohumeral share is what remains of the total
// humerothoracic elevation.
type RhythmAnalyzer struct {
	cfg RhythmConfig

	baselineSet  bool
	minElevation float64
	baselineTilt float64

	peakElevation float64
	tiltAtPeak    float64
}

// NewRhythmAnalyzer validates the tuning.
func NewRhythmAnalyzer(cfg RhythmConfig) (*RhythmAnalyzer, error) {
	if cfg.TargetRatio <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "measurement", "rhythm", "target ratio must be positive", nil)
	}
	if cfg.Tolerance < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "measurement", "rhythm", "tolerance must be non-negative", nil)
	}
	if cfg.MinElevationDegrees <= 0 || cfg.MinElevationDegrees > 180 {
		return nil, services.Wrap(services.ErrConfiguration, "measurement", "rhythm", "min elevation outside (0, 180]", nil)
	}
	return &RhythmAnalyzer{cfg: cfg}, nil
}

// Observe feeds one frame and its measured humerothoracic elevation. The
// resting girdle tilt baseline tracks the lowest elevation seen so far: a
// hanging arm still measures several degrees of elevation, so a fixed
// near-zero window would never establish a baseline.
func (r *RhythmAnalyzer) Observe(f *pose.Frame, elevation float64) {
	tilt, ok := girdleTilt(f)
	if !ok {
		return
	}
	if !r.baselineSet || elevation < r.minElevation {
		r.baselineSet = true
		r.minElevation = elevation
		r.baselineTilt = tilt
		return
	}
	if elevation > r.peakElevation {
		r.peakElevation = elevation
		r.tiltAtPeak = tilt
	}
}

// Result reports the estimated ratio at peak elevation. The second return
// is false until the session reached the configured minimum elevation.
func (r *RhythmAnalyzer) Result() (RhythmResult, bool) {
	if !r.baselineSet || r.peakElevation < r.cfg.MinElevationDegrees {
		return RhythmResult{}, false
	}
	scapular := r.tiltAtPeak - r.baselineTilt
	if scapular < 1 {
		scapular = 1
	}
	glenohumeral := r.peakElevation - scapular
	if glenohumeral < 0 {
		glenohumeral = 0
	}
	ratio := glenohumeral / scapular
	return RhythmResult{
		Ratio:         ratio,
		TargetRatio:   r.cfg.TargetRatio,
		WithinTarget:  ratio >= r.cfg.TargetRatio-r.cfg.Tolerance && ratio <= r.cfg.TargetRatio+r.cfg.Tolerance,
		PeakElevation: r.peakElevation,
	}, true
}

// girdleTilt measures the angle between the inter-shoulder line and the
// inter-hip line in degrees.
func girdleTilt(f *pose.Frame) (float64, bool) {
	ls, ok1 := f.Keypoint(pose.LeftShoulder)
	rs, ok2 := f.Keypoint(pose.RightShoulder)
	lh, ok3 := f.Keypoint(pose.LeftHip)
	rh, ok4 := f.Keypoint(pose.RightHip)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, false
	}
	shoulderLine := ls.Position.Sub(rs.Position)
	hipLine := lh.Position.Sub(rh.Position)
	tilt, err := geom.AngleBetween(shoulderLine, hipLine)
	if err != nil {
		return 0, false
	}
	return tilt, true
}
