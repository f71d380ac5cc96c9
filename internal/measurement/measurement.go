package measurement

import (
	"time"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/exercise"
)

// Role marks whether a measurement targets the exercise's clinical joint or
// a secondary joint watched for compensation.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// Measurement is one joint angle for one tick. Immutable once created; a new
// frame produces a new measurement object.
type Measurement struct {
	Joint        exercise.Joint
	Side         anatomy.Side
	Plane        anatomy.Plane
	FrameKind    anatomy.Kind
	AngleDegrees float64

	// Confidence is the minimum confidence of the contributing landmarks.
	Confidence float64

	// HasDepth is inherited from the reference frame the angle was
	// measured in; 2D-fallback measurements are discounted downstream.
	HasDepth bool

	Role      Role
	Timestamp time.Time
}

// JointStatus reports a secondary joint that produced no measurement this
// tick and why. Missing secondary data never blocks the primary measurement.
type JointStatus struct {
	Joint  exercise.Joint
	Reason string
}

// Tick bundles everything the engine measured for one pose frame.
type Tick struct {
	Timestamp   time.Time
	Primary     *Measurement
	Secondary   []Measurement
	Unavailable []JointStatus
}
