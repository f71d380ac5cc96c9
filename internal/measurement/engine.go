package measurement

import (
	"errors"
	"fmt"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/exercise"
	"kinemetry/internal/geom"
	"kinemetry/internal/pose"
	"kinemetry/internal/services"
)

// Engine measures the configured primary joint plus secondary validation
// joints for each frame. Engines hold no per-frame state and are safe to
// reuse across ticks of one session.
type Engine struct {
	builder *anatomy.Builder
	ex      exercise.Exercise
}

// NewEngine validates the exercise configuration and returns a measurement
// engine. Configuration errors are fatal here, before any session starts.
func NewEngine(builder *anatomy.Builder, ex exercise.Exercise) (*Engine, error) {
	if builder == nil {
		return nil, services.Wrap(services.ErrConfiguration, "measurement", "new engine", "nil frame builder", nil)
	}
	if err := ex.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "measurement", "new engine", "", err)
	}
	return &Engine{builder: builder, ex: ex}, nil
}

// Exercise returns the prescription this engine measures against.
func (e *Engine) Exercise() exercise.Exercise { return e.ex }

// Measure computes the tick's measurements from one (already smoothed)
// frame. A failure to measure the primary joint fails the whole tick with a
// recoverable marker; secondary failures degrade to JointStatus entries.
func (e *Engine) Measure(f *pose.Frame) (*Tick, error) {
	thorax, err := e.builder.Thorax(f)
	if err != nil {
		return nil, classifyGeometry("thorax frame", err)
	}

	tick := &Tick{Timestamp: f.Timestamp}

	primary, err := e.measureJoint(f, thorax, e.ex.PrimaryJoint, e.ex.Plane, RolePrimary)
	if err != nil {
		return nil, err
	}
	tick.Primary = primary

	for _, joint := range e.ex.SecondaryJoints {
		m, err := e.measureJoint(f, thorax, joint, secondaryPlane(joint, e.ex.Plane), RoleSecondary)
		if err != nil {
			if !services.Recoverable(err) {
				return nil, err
			}
			tick.Unavailable = append(tick.Unavailable, JointStatus{Joint: joint, Reason: err.Error()})
			continue
		}
		tick.Secondary = append(tick.Secondary, *m)
	}
	return tick, nil
}

// secondaryPlane keeps secondary joints in their natural plane rather than
// the primary's: trunk deviations read in the coronal plane, limb flexion
// checks in the sagittal plane.
func secondaryPlane(joint exercise.Joint, primary anatomy.Plane) anatomy.Plane {
	switch joint {
	case exercise.JointTrunk:
		return anatomy.PlaneCoronal
	case exercise.JointElbow, exercise.JointKnee, exercise.JointHip, exercise.JointAnkle, exercise.JointWrist:
		return anatomy.PlaneSagittal
	default:
		return primary
	}
}

func (e *Engine) measureJoint(f *pose.Frame, thorax anatomy.ReferenceFrame, joint exercise.Joint, plane anatomy.Plane, role Role) (*Measurement, error) {
	frame := thorax
	if plane == anatomy.PlaneScapular {
		scapular, err := e.builder.Scapular(thorax)
		if err != nil {
			return nil, classifyGeometry("scapular frame", err)
		}
		frame = scapular
	}

	ref, limb, landmarks, err := e.segments(f, thorax, joint)
	if err != nil {
		return nil, err
	}

	conf := f.MinConfidence(landmarks...)
	if conf < e.builder.MinLandmarkConfidence() {
		return nil, services.Wrap(services.ErrInputQuality, "measurement", string(joint),
			fmt.Sprintf("landmark confidence %.2f below minimum", conf), nil)
	}

	normal, err := frame.PlaneNormal(plane)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "measurement", string(joint), "", err)
	}
	refProj, err := geom.ProjectOntoPlane(ref, normal)
	if err != nil {
		return nil, classifyGeometry(string(joint)+" reference projection", err)
	}
	limbProj, err := geom.ProjectOntoPlane(limb, normal)
	if err != nil {
		return nil, classifyGeometry(string(joint)+" limb projection", err)
	}
	angle, err := geom.AngleBetween(refProj, limbProj)
	if err != nil {
		return nil, classifyGeometry(string(joint)+" angle", err)
	}
	angle = clinicalConvention(joint, angle)

	return &Measurement{
		Joint:        joint,
		Side:         e.ex.Side,
		Plane:        plane,
		FrameKind:    frame.Kind,
		AngleDegrees: angle,
		Confidence:   conf,
		HasDepth:     frame.HasDepth,
		Role:         role,
		Timestamp:    f.Timestamp,
	}, nil
}

// segments returns the reference and limb vectors bounding the joint plus
// the landmarks whose confidence backs the measurement.
func (e *Engine) segments(f *pose.Frame, thorax anatomy.ReferenceFrame, joint exercise.Joint) (ref, limb geom.Vec, landmarks []pose.Landmark, err error) {
	side := e.ex.Side

	pick := func(l pose.Landmark) (geom.Vec, bool) {
		kp, ok := f.Keypoint(l)
		return kp.Position, ok
	}
	segment := func(from, to pose.Landmark) (geom.Vec, error) {
		a, okA := pick(from)
		b, okB := pick(to)
		if !okA || !okB {
			return geom.Vec{}, services.Wrap(services.ErrInputQuality, "measurement", string(joint),
				fmt.Sprintf("missing landmark %s or %s", from, to), nil)
		}
		return b.Sub(a), nil
	}

	shoulder, elbow, wrist, index := pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftIndex
	hip, knee, ankle, foot := pose.LeftHip, pose.LeftKnee, pose.LeftAnkle, pose.LeftFootIndex
	if side == anatomy.SideRight {
		shoulder, elbow, wrist, index = pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightIndex
		hip, knee, ankle, foot = pose.RightHip, pose.RightKnee, pose.RightAnkle, pose.RightFootIndex
	}

	switch joint {
	case exercise.JointShoulder:
		limb, err = segment(shoulder, elbow)
		// Zero elevation is the arm hanging along the trunk's inferior axis.
		return thorax.Y.Mul(-1), limb, []pose.Landmark{shoulder, elbow}, err
	case exercise.JointElbow:
		ref, err = segment(elbow, shoulder)
		if err != nil {
			return geom.Vec{}, geom.Vec{}, nil, err
		}
		limb, err = segment(elbow, wrist)
		return ref, limb, []pose.Landmark{shoulder, elbow, wrist}, err
	case exercise.JointWrist:
		ref, err = segment(wrist, elbow)
		if err != nil {
			return geom.Vec{}, geom.Vec{}, nil, err
		}
		limb, err = segment(wrist, index)
		return ref, limb, []pose.Landmark{elbow, wrist, index}, err
	case exercise.JointHip:
		limb, err = segment(hip, knee)
		return thorax.Y.Mul(-1), limb, []pose.Landmark{hip, knee}, err
	case exercise.JointKnee:
		ref, err = segment(knee, hip)
		if err != nil {
			return geom.Vec{}, geom.Vec{}, nil, err
		}
		limb, err = segment(knee, ankle)
		return ref, limb, []pose.Landmark{hip, knee, ankle}, err
	case exercise.JointAnkle:
		ref, err = segment(ankle, knee)
		if err != nil {
			return geom.Vec{}, geom.Vec{}, nil, err
		}
		limb, err = segment(ankle, foot)
		return ref, limb, []pose.Landmark{knee, ankle, foot}, err
	case exercise.JointTrunk:
		// Trunk lean is measured against the global vertical.
		return geom.Vec{Y: 1}, thorax.Y, []pose.Landmark{pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip}, nil
	default:
		return geom.Vec{}, geom.Vec{}, nil, services.Wrap(services.ErrConfiguration, "measurement", string(joint), "unknown joint", nil)
	}
}

// clinicalConvention converts raw inter-segment angles to the reported
// convention: hinge joints report flexion from full extension (a straight
// elbow or knee reads 0, not 180), ankle reports dorsiflexion from plantigrade.
func clinicalConvention(joint exercise.Joint, angle float64) float64 {
	switch joint {
	case exercise.JointElbow, exercise.JointKnee, exercise.JointWrist:
		return 180 - angle
	case exercise.JointAnkle:
		return angle - 90
	default:
		return angle
	}
}

// classifyGeometry converts anatomy/geom failures into the recoverable
// taxonomy: low confidence is an input-quality problem, everything else from
// this layer is a geometric one. Both degrade the tick to "unavailable".
func classifyGeometry(op string, err error) error {
	var lowConf *anatomy.LowConfidenceError
	if errors.As(err, &lowConf) {
		return services.Wrap(services.ErrInputQuality, "measurement", op, "", err)
	}
	return services.Wrap(services.ErrGeometry, "measurement", op, "", err)
}
