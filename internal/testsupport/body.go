// Package testsupport builds synthetic pose frames for pipeline tests: an
// idealized upright body with options to lean the trunk, raise an arm, drop
// landmark confidence, or strip depth.
package testsupport

import (
	"math"
	"time"

	"kinemetry/internal/geom"
	"kinemetry/internal/pose"
)

// Upright landmark positions in meters. X points toward the subject's left,
// Y up, Z anterior. Arms hang at the sides.
var uprightBody = map[pose.Landmark]geom.Vec{
	pose.Nose:           {X: 0, Y: 1.62, Z: 0.05},
	pose.LeftEar:        {X: 0.08, Y: 1.60, Z: 0},
	pose.RightEar:       {X: -0.08, Y: 1.60, Z: 0},
	pose.LeftShoulder:   {X: 0.22, Y: 1.50, Z: 0},
	pose.RightShoulder:  {X: -0.22, Y: 1.50, Z: 0},
	pose.LeftElbow:      {X: 0.26, Y: 1.20, Z: 0},
	pose.RightElbow:     {X: -0.26, Y: 1.20, Z: 0},
	pose.LeftWrist:      {X: 0.28, Y: 0.95, Z: 0},
	pose.RightWrist:     {X: -0.28, Y: 0.95, Z: 0},
	pose.LeftIndex:      {X: 0.29, Y: 0.87, Z: 0.02},
	pose.RightIndex:     {X: -0.29, Y: 0.87, Z: 0.02},
	pose.LeftHip:        {X: 0.16, Y: 1.00, Z: 0},
	pose.RightHip:       {X: -0.16, Y: 1.00, Z: 0},
	pose.LeftKnee:       {X: 0.17, Y: 0.52, Z: 0},
	pose.RightKnee:      {X: -0.17, Y: 0.52, Z: 0},
	pose.LeftAnkle:      {X: 0.17, Y: 0.08, Z: 0},
	pose.RightAnkle:     {X: -0.17, Y: 0.08, Z: 0},
	pose.LeftHeel:       {X: 0.17, Y: 0.02, Z: -0.06},
	pose.RightHeel:      {X: -0.17, Y: 0.02, Z: -0.06},
	pose.LeftFootIndex:  {X: 0.17, Y: 0.02, Z: 0.12},
	pose.RightFootIndex: {X: -0.17, Y: 0.02, Z: 0.12},
}

// BodyOption customizes a synthetic frame.
type BodyOption func(*bodyBuilder)

type bodyBuilder struct {
	positions  map[pose.Landmark]geom.Vec
	confidence map[pose.Landmark]float64
	missing    map[pose.Landmark]bool
	frameConf  float64
	view       pose.ViewOrientation
	hasDepth   bool
}

// Body returns an idealized pose frame at the given timestamp, modified by
// the supplied options. All landmarks default to confidence 0.95.
func Body(ts time.Time, opts ...BodyOption) *pose.Frame {
	b := &bodyBuilder{
		positions:  make(map[pose.Landmark]geom.Vec, len(uprightBody)),
		confidence: make(map[pose.Landmark]float64),
		missing:    make(map[pose.Landmark]bool),
		frameConf:  0.95,
		view:       pose.ViewFrontal,
		hasDepth:   true,
	}
	for l, p := range uprightBody {
		b.positions[l] = p
	}
	for _, opt := range opts {
		opt(b)
	}

	keypoints := make(map[pose.Landmark]pose.Keypoint, len(b.positions))
	for l, p := range b.positions {
		if b.missing[l] {
			continue
		}
		conf := b.frameConf
		if c, ok := b.confidence[l]; ok {
			conf = c
		}
		if !b.hasDepth {
			p.Z = 0
		}
		keypoints[l] = pose.Keypoint{Landmark: l, Position: p, Confidence: conf}
	}
	return &pose.Frame{
		Timestamp:  ts,
		Keypoints:  keypoints,
		Confidence: b.frameConf,
		View:       b.view,
		HasDepth:   b.hasDepth,
	}
}

// WithTrunkLean tilts everything above the hips laterally (toward the
// subject's left for positive degrees) by rotating about the hip midpoint
// around the anterior axis.
func WithTrunkLean(degrees float64) BodyOption {
	upper := []pose.Landmark{
		pose.Nose, pose.LeftEar, pose.RightEar,
		pose.LeftShoulder, pose.RightShoulder,
		pose.LeftElbow, pose.RightElbow,
		pose.LeftWrist, pose.RightWrist,
		pose.LeftIndex, pose.RightIndex,
	}
	return func(b *bodyBuilder) {
		pivot := geom.Midpoint(b.positions[pose.LeftHip], b.positions[pose.RightHip])
		for _, l := range upper {
			b.positions[l] = rotateAbout(b.positions[l], pivot, geom.Vec{Z: 1}, degrees)
		}
	}
}

// WithArmAbduction raises one arm in the coronal plane: elbow, wrist, and
// index rotate about the shoulder toward vertical at 180 degrees.
func WithArmAbduction(side string, degrees float64) BodyOption {
	landmarks := []pose.Landmark{pose.LeftElbow, pose.LeftWrist, pose.LeftIndex}
	shoulder := pose.LeftShoulder
	axis := geom.Vec{Z: 1}
	if side == "right" {
		landmarks = []pose.Landmark{pose.RightElbow, pose.RightWrist, pose.RightIndex}
		shoulder = pose.RightShoulder
		axis = geom.Vec{Z: -1}
	}
	return func(b *bodyBuilder) {
		pivot := b.positions[shoulder]
		for _, l := range landmarks {
			b.positions[l] = rotateAbout(b.positions[l], pivot, axis, degrees)
		}
	}
}

// WithShoulderHike raises one shoulder vertically by the given meters,
// simulating scapular elevation compensation.
func WithShoulderHike(side string, meters float64) BodyOption {
	shoulder := pose.LeftShoulder
	if side == "right" {
		shoulder = pose.RightShoulder
	}
	return func(b *bodyBuilder) {
		p := b.positions[shoulder]
		p.Y += meters
		b.positions[shoulder] = p
	}
}

// WithOffset translates a single landmark by the given delta.
func WithOffset(l pose.Landmark, delta geom.Vec) BodyOption {
	return func(b *bodyBuilder) {
		b.positions[l] = b.positions[l].Add(delta)
	}
}

// WithConfidence sets the default confidence applied to every landmark and
// the frame itself.
func WithConfidence(c float64) BodyOption {
	return func(b *bodyBuilder) { b.frameConf = c }
}

// WithLandmarkConfidence overrides the confidence of specific landmarks.
func WithLandmarkConfidence(c float64, landmarks ...pose.Landmark) BodyOption {
	return func(b *bodyBuilder) {
		for _, l := range landmarks {
			b.confidence[l] = c
		}
	}
}

// WithMissing drops landmarks from the frame entirely.
func WithMissing(landmarks ...pose.Landmark) BodyOption {
	return func(b *bodyBuilder) {
		for _, l := range landmarks {
			b.missing[l] = true
		}
	}
}

// With2D flattens the body onto the camera plane and clears the depth flag,
// simulating a 2D-only detector tier.
func With2D() BodyOption {
	return func(b *bodyBuilder) { b.hasDepth = false }
}

// WithView sets the frame's view orientation metadata.
func WithView(v pose.ViewOrientation) BodyOption {
	return func(b *bodyBuilder) { b.view = v }
}

func rotateAbout(p, pivot, axis geom.Vec, degrees float64) geom.Vec {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	v := p.Sub(pivot)
	rotated := v.Mul(cos).
		Add(axis.Cross(v).Mul(sin)).
		Add(axis.Mul(axis.Dot(v) * (1 - cos)))
	return pivot.Add(rotated)
}
