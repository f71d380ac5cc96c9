package compensation

import (
	"math"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/exercise"
	"kinemetry/internal/geom"
	"kinemetry/internal/measurement"
	"kinemetry/internal/pose"
)

// Depth engagement constants for squat-style movements: flexion below
// the floor means the subject is standing and depth is not judged;
// the target is thighs-parallel knee flexion.
const (
	depthEngagementFloorDegrees = 20.0
	depthTargetDegrees          = 90.0

	// ascentMarginDegrees separates a genuine turnaround from filter
	// wobble around the rep's deepest point.
	ascentMarginDegrees = 5.0
)

var (
	globalUp      = geom.Vec{Y: 1}
	coronalNormal = geom.Vec{Z: 1}
)

// metric evaluates one pattern kind for the current tick. ok=false
// means the metric could not be measured this tick (missing or
// low-confidence landmarks, no depth, joint unavailable); the
// detector leaves that pattern's state untouched rather than treating
// silence as recovery.
func (d *Detector) metric(kind Kind, f *pose.Frame, tick *measurement.Tick) (float64, bool) {
	switch kind {
	case TrunkLean:
		return d.trunkLean(f)
	case TrunkRotation:
		return d.trunkRotation(f)
	case ShoulderHiking:
		return d.shoulderHiking(f)
	case ElbowFlexionComp:
		return jointAngle(tick, exercise.JointElbow)
	case KneeValgus:
		return d.kneeValgus(f)
	case HeelLift:
		return d.heelLift(f)
	case PosteriorPelvicTilt:
		return d.posteriorPelvicTilt(f)
	case InsufficientDepth:
		return d.insufficientDepth(tick)
	case ShoulderCompensation:
		return d.contralateralElevation(f)
	case IncompleteExtension:
		return d.incompleteExtension(f)
	case WristDeviation:
		return d.wristDeviation(f)
	}
	return 0, false
}

// point returns a landmark position usable for metric work: present
// and at or above the configured confidence minimum.
func (d *Detector) point(f *pose.Frame, l pose.Landmark) (geom.Vec, bool) {
	kp, ok := f.Keypoint(l)
	if !ok || kp.Confidence < d.cfg.MinLandmarkConfidence {
		return geom.Vec{}, false
	}
	return kp.Position, true
}

func (d *Detector) girdle(f *pose.Frame) (shoulderLine, hipLine geom.Vec, ok bool) {
	ls, okLS := d.point(f, pose.LeftShoulder)
	rs, okRS := d.point(f, pose.RightShoulder)
	lh, okLH := d.point(f, pose.LeftHip)
	rh, okRH := d.point(f, pose.RightHip)
	if !okLS || !okRS || !okLH || !okRH {
		return geom.Vec{}, geom.Vec{}, false
	}
	return ls.Sub(rs), lh.Sub(rh), true
}

// trunkLean is the angle between the spine (hip midpoint to shoulder
// midpoint) and the global vertical.
func (d *Detector) trunkLean(f *pose.Frame) (float64, bool) {
	ls, okLS := d.point(f, pose.LeftShoulder)
	rs, okRS := d.point(f, pose.RightShoulder)
	lh, okLH := d.point(f, pose.LeftHip)
	rh, okRH := d.point(f, pose.RightHip)
	if !okLS || !okRS || !okLH || !okRH {
		return 0, false
	}
	spine := geom.Midpoint(ls, rs).Sub(geom.Midpoint(lh, rh))
	angle, err := geom.AngleBetween(spine, globalUp)
	if err != nil {
		return 0, false
	}
	return angle, true
}

// trunkRotation is the transverse-plane angle between the shoulder
// line and the hip line. Meaningless without real depth.
func (d *Detector) trunkRotation(f *pose.Frame) (float64, bool) {
	if !f.HasDepth {
		return 0, false
	}
	shoulderLine, hipLine, ok := d.girdle(f)
	if !ok {
		return 0, false
	}
	return planarAngle(shoulderLine, hipLine, globalUp)
}

// shoulderHiking is the frontal-plane tilt of the shoulder line away
// from square with the spine. Measuring against the spine rather than
// the hip line keeps a rigid trunk lean from reading as hiking.
func (d *Detector) shoulderHiking(f *pose.Frame) (float64, bool) {
	ls, okLS := d.point(f, pose.LeftShoulder)
	rs, okRS := d.point(f, pose.RightShoulder)
	lh, okLH := d.point(f, pose.LeftHip)
	rh, okRH := d.point(f, pose.RightHip)
	if !okLS || !okRS || !okLH || !okRH {
		return 0, false
	}
	spine := geom.Midpoint(ls, rs).Sub(geom.Midpoint(lh, rh))
	angle, ok := planarAngle(ls.Sub(rs), spine, coronalNormal)
	if !ok {
		return 0, false
	}
	return math.Abs(angle - 90), true
}

// kneeValgus is the frontal-plane deviation of the shank from the
// thigh line on the exercising side: a straight leg reads 0.
func (d *Detector) kneeValgus(f *pose.Frame) (float64, bool) {
	h, okH := d.point(f, d.onSide(pose.LeftHip))
	k, okK := d.point(f, d.onSide(pose.LeftKnee))
	a, okA := d.point(f, d.onSide(pose.LeftAnkle))
	if !okH || !okK || !okA {
		return 0, false
	}
	angle, ok := planarAngle(h.Sub(k), a.Sub(k), coronalNormal)
	if !ok {
		return 0, false
	}
	return 180 - angle, true
}

// heelLift is the pitch of the foot segment above horizontal: a
// planted foot reads ~0, a raised heel tips the heel-to-toe vector
// below the horizon.
func (d *Detector) heelLift(f *pose.Frame) (float64, bool) {
	hp, okH := d.point(f, d.onSide(pose.LeftHeel))
	tp, okT := d.point(f, d.onSide(pose.LeftFootIndex))
	if !okH || !okT {
		return 0, false
	}
	angle, err := geom.AngleBetween(tp.Sub(hp), globalUp)
	if err != nil {
		return 0, false
	}
	return math.Max(0, angle-90), true
}

// posteriorPelvicTilt reads the sagittal backward inclination of the
// spine. Anterior lean does not count; 2D frames cannot measure it.
func (d *Detector) posteriorPelvicTilt(f *pose.Frame) (float64, bool) {
	if !f.HasDepth {
		return 0, false
	}
	ls, okLS := d.point(f, pose.LeftShoulder)
	rs, okRS := d.point(f, pose.RightShoulder)
	lh, okLH := d.point(f, pose.LeftHip)
	rh, okRH := d.point(f, pose.RightHip)
	if !okLS || !okRS || !okLH || !okRH {
		return 0, false
	}
	spine, err := geom.Normalize(geom.Midpoint(ls, rs).Sub(geom.Midpoint(lh, rh)))
	if err != nil {
		return 0, false
	}
	posterior := math.Asin(clamp(-spine.Z, -1, 1)) * 180 / math.Pi
	return math.Max(0, posterior), true
}

// insufficientDepth judges squat depth at the turnaround: the metric
// is the shortfall between the rep's deepest knee flexion so far and
// the parallel target, counted only while ascending so a normal
// descent through shallow angles never accumulates dwell time.
func (d *Detector) insufficientDepth(tick *measurement.Tick) (float64, bool) {
	flexion, ok := jointAngle(tick, exercise.JointKnee)
	if !ok {
		return 0, false
	}
	if flexion < depthEngagementFloorDegrees {
		d.depthPeak = 0
		return 0, true
	}
	if flexion > d.depthPeak {
		d.depthPeak = flexion
	}
	ascending := flexion <= d.depthPeak-ascentMarginDegrees
	if !ascending {
		return 0, true
	}
	return math.Max(0, depthTargetDegrees-d.depthPeak), true
}

// contralateralElevation is the off-side upper arm's angle from the
// hanging position; the non-exercising arm joining the movement is
// the classic bilateral compensation.
func (d *Detector) contralateralElevation(f *pose.Frame) (float64, bool) {
	s, okS := d.point(f, d.offSide(pose.LeftShoulder))
	e, okE := d.point(f, d.offSide(pose.LeftElbow))
	if !okS || !okE {
		return 0, false
	}
	angle, err := geom.AngleBetween(e.Sub(s), geom.Vec{Y: -1})
	if err != nil {
		return 0, false
	}
	return angle, true
}

// incompleteExtension is the residual elbow flexion while the wrist
// is overhead, where the prescription expects a locked-out arm.
func (d *Detector) incompleteExtension(f *pose.Frame) (float64, bool) {
	s, okS := d.point(f, d.onSide(pose.LeftShoulder))
	e, okE := d.point(f, d.onSide(pose.LeftElbow))
	w, okW := d.point(f, d.onSide(pose.LeftWrist))
	if !okS || !okE || !okW {
		return 0, false
	}
	if w.Y <= s.Y {
		return 0, true
	}
	angle, err := geom.AngleBetween(s.Sub(e), w.Sub(e))
	if err != nil {
		return 0, false
	}
	return 180 - angle, true
}

// wristDeviation is the bend between the forearm and the hand ray on
// the exercising side: a neutral wrist reads 0.
func (d *Detector) wristDeviation(f *pose.Frame) (float64, bool) {
	e, okE := d.point(f, d.onSide(pose.LeftElbow))
	w, okW := d.point(f, d.onSide(pose.LeftWrist))
	i, okI := d.point(f, d.onSide(pose.LeftIndex))
	if !okE || !okW || !okI {
		return 0, false
	}
	angle, err := geom.AngleBetween(w.Sub(e), i.Sub(w))
	if err != nil {
		return 0, false
	}
	return angle, true
}

// jointAngle pulls the named joint's angle out of the tick, primary
// or secondary.
func jointAngle(tick *measurement.Tick, joint exercise.Joint) (float64, bool) {
	if tick == nil {
		return 0, false
	}
	if tick.Primary != nil && tick.Primary.Joint == joint {
		return tick.Primary.AngleDegrees, true
	}
	for _, m := range tick.Secondary {
		if m.Joint == joint {
			return m.AngleDegrees, true
		}
	}
	return 0, false
}

// planarAngle projects both vectors into the plane with the given
// normal and measures the angle between the projections.
func planarAngle(a, b, normal geom.Vec) (float64, bool) {
	aProj, err := geom.ProjectOntoPlane(a, normal)
	if err != nil {
		return 0, false
	}
	bProj, err := geom.ProjectOntoPlane(b, normal)
	if err != nil {
		return 0, false
	}
	angle, err := geom.AngleBetween(aProj, bProj)
	if err != nil {
		return 0, false
	}
	return angle, true
}

// onSide resolves a left-side landmark name to the exercising side;
// offSide resolves it to the contralateral side.
func (d *Detector) onSide(l pose.Landmark) pose.Landmark {
	if d.ex.Side == anatomy.SideRight {
		return mirror(l)
	}
	return l
}

func (d *Detector) offSide(l pose.Landmark) pose.Landmark {
	if d.ex.Side == anatomy.SideRight {
		return l
	}
	return mirror(l)
}

var mirrored = map[pose.Landmark]pose.Landmark{
	pose.LeftShoulder:  pose.RightShoulder,
	pose.LeftElbow:     pose.RightElbow,
	pose.LeftWrist:     pose.RightWrist,
	pose.LeftIndex:     pose.RightIndex,
	pose.LeftHip:       pose.RightHip,
	pose.LeftKnee:      pose.RightKnee,
	pose.LeftAnkle:     pose.RightAnkle,
	pose.LeftHeel:      pose.RightHeel,
	pose.LeftFootIndex: pose.RightFootIndex,
}

func mirror(l pose.Landmark) pose.Landmark {
	if m, ok := mirrored[l]; ok {
		return m
	}
	return l
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
