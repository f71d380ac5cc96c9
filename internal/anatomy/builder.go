package anatomy

import (
	"fmt"

	"kinemetry/internal/geom"
	"kinemetry/internal/pose"
)

// BuilderConfig carries the externally supplied constants the builder needs.
type BuilderConfig struct {
	// MinLandmarkConfidence gates frame construction; landmarks below it
	// produce LowConfidenceError.
	MinLandmarkConfidence float64

	// ScapularOffsetDegrees rotates the thorax frame anterior to the
	// coronal plane. Clinical range 30-40.
	ScapularOffsetDegrees float64
}

// Builder computes reference frames from single pose frames. Builders are
// stateless and safe to share across sessions.
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder validates the configuration and returns a frame builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.MinLandmarkConfidence < 0 || cfg.MinLandmarkConfidence > 1 {
		return nil, fmt.Errorf("anatomy: min landmark confidence %.2f outside [0, 1]", cfg.MinLandmarkConfidence)
	}
	if cfg.ScapularOffsetDegrees < 30 || cfg.ScapularOffsetDegrees > 40 {
		return nil, fmt.Errorf("anatomy: scapular offset %.1f outside clinical range [30, 40]", cfg.ScapularOffsetDegrees)
	}
	return &Builder{cfg: cfg}, nil
}

// MinLandmarkConfidence exposes the configured confidence gate so callers
// can apply the same minimum to their own landmark sets.
func (b *Builder) MinLandmarkConfidence() float64 {
	return b.cfg.MinLandmarkConfidence
}

func (b *Builder) requireLandmarks(kind Kind, f *pose.Frame, landmarks ...pose.Landmark) error {
	conf := f.MinConfidence(landmarks...)
	if conf < b.cfg.MinLandmarkConfidence {
		return &LowConfidenceError{
			Kind:       kind,
			Landmarks:  landmarks,
			Confidence: conf,
			Minimum:    b.cfg.MinLandmarkConfidence,
		}
	}
	return nil
}

// Global returns the world-axis frame with its origin at the body center
// (hip midpoint).
func (b *Builder) Global(f *pose.Frame) (ReferenceFrame, error) {
	if err := b.requireLandmarks(KindGlobal, f, pose.LeftHip, pose.RightHip); err != nil {
		return ReferenceFrame{}, err
	}
	lh, _ := f.Keypoint(pose.LeftHip)
	rh, _ := f.Keypoint(pose.RightHip)
	frame := ReferenceFrame{
		Kind:     KindGlobal,
		Origin:   geom.Midpoint(lh.Position, rh.Position),
		X:        geom.Vec{X: 1},
		Y:        geom.Vec{Y: 1},
		Z:        geom.Vec{Z: 1},
		HasDepth: f.HasDepth,
	}
	return frame, nil
}

// Thorax builds the trunk frame: Y approximates the spine (hip midpoint to
// shoulder midpoint), X follows the inter-shoulder line with its spine
// component removed, Z is their cross product. Gram-Schmidt guarantees the
// orthonormality invariant; a pose where the shoulder line collapses onto
// the spine direction is rejected as degenerate.
//
// When the detector supplied no real depth, the 2D fallback keeps the
// supplied planar coordinates and lets the cross product provide the
// out-of-plane axis; HasDepth=false marks the result for downstream
// discounting.
func (b *Builder) Thorax(f *pose.Frame) (ReferenceFrame, error) {
	required := []pose.Landmark{pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip}
	if err := b.requireLandmarks(KindThorax, f, required...); err != nil {
		return ReferenceFrame{}, err
	}
	ls, _ := f.Keypoint(pose.LeftShoulder)
	rs, _ := f.Keypoint(pose.RightShoulder)
	lh, _ := f.Keypoint(pose.LeftHip)
	rh, _ := f.Keypoint(pose.RightHip)

	midShoulder := geom.Midpoint(ls.Position, rs.Position)
	midHip := geom.Midpoint(lh.Position, rh.Position)

	spine := geom.Sub(midShoulder, midHip)
	shoulderLine := geom.Sub(ls.Position, rs.Position)

	up, lateral, _, err := geom.Orthonormalize(spine, shoulderLine)
	if err != nil {
		return ReferenceFrame{}, err
	}
	frame := ReferenceFrame{
		Kind:     KindThorax,
		Origin:   midShoulder,
		X:        lateral,
		Y:        up,
		Z:        lateral.Cross(up),
		HasDepth: f.HasDepth,
	}
	if !frame.Valid() {
		return ReferenceFrame{}, fmt.Errorf("anatomy: thorax frame failed orthonormality check")
	}
	return frame, nil
}

// Scapular rotates a thorax frame about its superior axis by the configured
// fixed offset, yielding the scapular-plane frame. The offset is a clinical
// configuration constant, never recomputed per frame.
func (b *Builder) Scapular(thorax ReferenceFrame) (ReferenceFrame, error) {
	if thorax.Kind != KindThorax {
		return ReferenceFrame{}, fmt.Errorf("anatomy: scapular frame requires a thorax frame, got %s", thorax.Kind)
	}
	if !thorax.Valid() {
		return ReferenceFrame{}, fmt.Errorf("anatomy: refusing to rotate invalid thorax frame")
	}
	x, err := geom.RotateAround(thorax.X, thorax.Y, b.cfg.ScapularOffsetDegrees)
	if err != nil {
		return ReferenceFrame{}, err
	}
	z, err := geom.RotateAround(thorax.Z, thorax.Y, b.cfg.ScapularOffsetDegrees)
	if err != nil {
		return ReferenceFrame{}, err
	}
	frame := ReferenceFrame{
		Kind:     KindScapular,
		Origin:   thorax.Origin,
		X:        x,
		Y:        thorax.Y,
		Z:        z,
		HasDepth: thorax.HasDepth,
	}
	if !frame.Valid() {
		return ReferenceFrame{}, fmt.Errorf("anatomy: scapular frame failed orthonormality check")
	}
	return frame, nil
}

// Humeral builds the upper-arm frame for one side: Y runs shoulder to elbow,
// Z carries the thorax superior axis orthogonalized against it so "up" stays
// consistent across arm positions, X completes the triple.
func (b *Builder) Humeral(f *pose.Frame, thorax ReferenceFrame, side Side) (ReferenceFrame, error) {
	shoulder, elbow := pose.LeftShoulder, pose.LeftElbow
	if side == SideRight {
		shoulder, elbow = pose.RightShoulder, pose.RightElbow
	}
	if err := b.requireLandmarks(KindHumeral, f, shoulder, elbow); err != nil {
		return ReferenceFrame{}, err
	}
	s, _ := f.Keypoint(shoulder)
	e, _ := f.Keypoint(elbow)

	humerus := geom.Sub(e.Position, s.Position)
	axis, upRef, _, err := geom.Orthonormalize(humerus, thorax.Y)
	if err != nil {
		return ReferenceFrame{}, err
	}
	frame := ReferenceFrame{
		Kind:     KindHumeral,
		Origin:   s.Position,
		X:        axis.Cross(upRef),
		Y:        axis,
		Z:        upRef,
		HasDepth: f.HasDepth && thorax.HasDepth,
	}
	if !frame.Valid() {
		return ReferenceFrame{}, fmt.Errorf("anatomy: humeral frame failed orthonormality check")
	}
	return frame, nil
}

// PlaneNormal returns the unit normal of the named anatomical plane within
// this frame: sagittal is normal to the lateral axis, coronal to the
// anterior axis, transverse to the superior axis.
func (f ReferenceFrame) PlaneNormal(plane Plane) (geom.Vec, error) {
	switch plane {
	case PlaneSagittal:
		return f.X, nil
	case PlaneCoronal, PlaneScapular:
		// The scapular plane is the coronal plane of the scapular frame;
		// callers pass the rotated frame.
		return f.Z, nil
	case PlaneTransverse:
		return f.Y, nil
	default:
		return geom.Vec{}, fmt.Errorf("anatomy: unknown plane %q", plane)
	}
}

// Plane names an anatomical measurement plane.
type Plane string

const (
	PlaneSagittal   Plane = "sagittal"
	PlaneCoronal    Plane = "coronal"
	PlaneTransverse Plane = "transverse"
	PlaneScapular   Plane = "scapular"
)

// KnownPlane reports whether the identifier names a supported plane.
func KnownPlane(p Plane) bool {
	switch p {
	case PlaneSagittal, PlaneCoronal, PlaneTransverse, PlaneScapular:
		return true
	}
	return false
}
