package exercise

import (
	"errors"
	"fmt"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/pose"
)

// Joint identifies a measurable joint.
type Joint string

const (
	JointShoulder Joint = "shoulder"
	JointElbow    Joint = "elbow"
	JointWrist    Joint = "wrist"
	JointHip      Joint = "hip"
	JointKnee     Joint = "knee"
	JointAnkle    Joint = "ankle"
	JointTrunk    Joint = "trunk"
)

// KnownJoint reports whether the identifier names a supported joint.
func KnownJoint(j Joint) bool {
	switch j {
	case JointShoulder, JointElbow, JointWrist, JointHip, JointKnee, JointAnkle, JointTrunk:
		return true
	}
	return false
}

// Movement names the prescribed motion of the primary joint.
type Movement string

const (
	MovementFlexion   Movement = "flexion"
	MovementExtension Movement = "extension"
	MovementAbduction Movement = "abduction"
	MovementSquat     Movement = "squat"
	MovementRaise     Movement = "raise"
)

// Category follows the PhysioAssist template taxonomy.
type Category string

const (
	CategoryStrength       Category = "strength"
	CategoryFlexibility    Category = "flexibility"
	CategoryBalance        Category = "balance"
	CategoryEndurance      Category = "endurance"
	CategoryPlyometric     Category = "plyometric"
	CategoryFunctional     Category = "functional"
	CategoryRehabilitation Category = "rehabilitation"
)

// Phase describes one segment of a multi-angle exercise and the camera view
// it expects.
type Phase struct {
	Name string               `toml:"name" json:"name"`
	View pose.ViewOrientation `toml:"view" json:"view"`
}

// Exercise is the full prescription configuration a session runs under.
type Exercise struct {
	ID         string   `toml:"id" json:"id"`
	Name       string   `toml:"name" json:"name"`
	Category   Category `toml:"category" json:"category"`
	Difficulty int      `toml:"difficulty" json:"difficulty"`
	BodyRegion string   `toml:"body_region" json:"bodyRegion"`

	PrimaryJoint Joint         `toml:"primary_joint" json:"primaryJoint"`
	Side         anatomy.Side  `toml:"side" json:"side"`
	Movement     Movement      `toml:"movement" json:"movement"`
	Plane        anatomy.Plane `toml:"plane" json:"plane"`

	SecondaryJoints []Joint `toml:"secondary_joints" json:"secondaryJoints"`

	// WatchedPatterns restricts the compensation detector to the patterns
	// relevant to this exercise. Empty means all configured patterns.
	WatchedPatterns []string `toml:"watched_patterns" json:"watchedPatterns"`

	Phases []Phase `toml:"phases" json:"phases"`

	TargetReps int `toml:"target_reps" json:"targetReps"`
	TargetSets int `toml:"target_sets" json:"targetSets"`

	// MinExcursionDegrees is the primary-angle travel that counts as a rep.
	MinExcursionDegrees float64 `toml:"min_excursion_degrees" json:"minExcursionDegrees"`
}

// Validate applies the configuration-error contract: any unknown identifier
// or out-of-range value is fatal before the session starts.
func (e *Exercise) Validate() error {
	if e.ID == "" {
		return errors.New("exercise: id must be set")
	}
	if !KnownJoint(e.PrimaryJoint) {
		return fmt.Errorf("exercise %s: unknown primary joint %q", e.ID, e.PrimaryJoint)
	}
	if !anatomy.KnownPlane(e.Plane) {
		return fmt.Errorf("exercise %s: unknown plane %q", e.ID, e.Plane)
	}
	if e.Side != anatomy.SideLeft && e.Side != anatomy.SideRight {
		return fmt.Errorf("exercise %s: side must be left or right, got %q", e.ID, e.Side)
	}
	switch e.Movement {
	case MovementFlexion, MovementExtension, MovementAbduction, MovementSquat, MovementRaise:
	default:
		return fmt.Errorf("exercise %s: unknown movement %q", e.ID, e.Movement)
	}
	if e.Difficulty < 1 || e.Difficulty > 5 {
		return fmt.Errorf("exercise %s: difficulty %d outside [1, 5]", e.ID, e.Difficulty)
	}
	for _, j := range e.SecondaryJoints {
		if !KnownJoint(j) {
			return fmt.Errorf("exercise %s: unknown secondary joint %q", e.ID, j)
		}
		if j == e.PrimaryJoint {
			return fmt.Errorf("exercise %s: %q cannot be both primary and secondary", e.ID, j)
		}
	}
	for i, p := range e.Phases {
		switch p.View {
		case pose.ViewFrontal, pose.ViewSagittal, pose.ViewPosterior:
		default:
			return fmt.Errorf("exercise %s: phase %d has unknown view %q", e.ID, i, p.View)
		}
	}
	if e.TargetReps < 0 || e.TargetSets < 0 {
		return fmt.Errorf("exercise %s: negative rep/set targets", e.ID)
	}
	if e.MinExcursionDegrees < 0 {
		return fmt.Errorf("exercise %s: negative excursion threshold", e.ID)
	}
	return nil
}

// ShoulderAbduction returns the reference prescription used by tests and the
// sample configuration: shoulder abduction measured in the coronal plane
// with trunk and elbow watched for compensation.
func ShoulderAbduction(side anatomy.Side) Exercise {
	return Exercise{
		ID:                  "shoulder-abduction",
		Name:                "Standing Shoulder Abduction",
		Category:            CategoryRehabilitation,
		Difficulty:          2,
		BodyRegion:          "shoulder",
		PrimaryJoint:        JointShoulder,
		Side:                side,
		Movement:            MovementAbduction,
		Plane:               anatomy.PlaneCoronal,
		SecondaryJoints:     []Joint{JointTrunk, JointElbow},
		Phases:              []Phase{{Name: "raise", View: pose.ViewFrontal}},
		TargetReps:          10,
		TargetSets:          3,
		MinExcursionDegrees: 45,
	}
}
