package pose

import (
	"time"

	"kinemetry/internal/geom"
)

// ViewOrientation describes which side of the body faces the camera.
type ViewOrientation string

const (
	ViewUnknown   ViewOrientation = "unknown"
	ViewFrontal   ViewOrientation = "frontal"
	ViewSagittal  ViewOrientation = "sagittal"
	ViewPosterior ViewOrientation = "posterior"
)

// Keypoint is one landmark's position and detection confidence for a single
// frame. Immutable after creation; owned by the frame that contains it.
type Keypoint struct {
	Landmark   Landmark
	Position   geom.Vec
	Confidence float64
}

// Frame is a timestamped snapshot of all detected keypoints for one instant.
// Pipeline stages never mutate a frame; derived values live in new objects.
type Frame struct {
	Timestamp  time.Time
	Keypoints  map[Landmark]Keypoint
	Confidence float64
	View       ViewOrientation

	// HasDepth records whether Z coordinates carry real depth or are the
	// detector's 2D output padded with estimates.
	HasDepth bool
}

// Keypoint returns the named landmark, if present.
func (f *Frame) Keypoint(l Landmark) (Keypoint, bool) {
	kp, ok := f.Keypoints[l]
	return kp, ok
}

// MinConfidence returns the lowest confidence among the named landmarks.
// A missing landmark counts as confidence 0.
func (f *Frame) MinConfidence(landmarks ...Landmark) float64 {
	min := 1.0
	for _, l := range landmarks {
		kp, ok := f.Keypoints[l]
		if !ok {
			return 0
		}
		if kp.Confidence < min {
			min = kp.Confidence
		}
	}
	return min
}

// FullBodyVisible reports whether every core landmark is present at or above
// the given confidence. Sessions require this before leaving
// AWAITING_POSITION.
func (f *Frame) FullBodyVisible(minConfidence float64) bool {
	return f.MinConfidence(CoreLandmarks...) >= minConfidence
}
