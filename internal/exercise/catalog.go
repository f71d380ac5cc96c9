package exercise

import (
	"kinemetry/internal/anatomy"
	"kinemetry/internal/pose"
)

// ShoulderFlexion returns the forward-raise prescription measured in the
// sagittal plane.
func ShoulderFlexion(side anatomy.Side) Exercise {
	return Exercise{
		ID:                  "shoulder-flexion",
		Name:                "Standing Shoulder Flexion",
		Category:            CategoryRehabilitation,
		Difficulty:          2,
		BodyRegion:          "shoulder",
		PrimaryJoint:        JointShoulder,
		Side:                side,
		Movement:            MovementRaise,
		Plane:               anatomy.PlaneSagittal,
		SecondaryJoints:     []Joint{JointTrunk, JointElbow},
		Phases:              []Phase{{Name: "raise", View: pose.ViewSagittal}},
		TargetReps:          10,
		TargetSets:          3,
		MinExcursionDegrees: 45,
	}
}

// ElbowFlexion returns the seated curl prescription.
func ElbowFlexion(side anatomy.Side) Exercise {
	return Exercise{
		ID:                  "elbow-flexion",
		Name:                "Elbow Flexion Curl",
		Category:            CategoryStrength,
		Difficulty:          1,
		BodyRegion:          "arm",
		PrimaryJoint:        JointElbow,
		Side:                side,
		Movement:            MovementFlexion,
		Plane:               anatomy.PlaneSagittal,
		SecondaryJoints:     []Joint{JointShoulder, JointTrunk},
		Phases:              []Phase{{Name: "curl", View: pose.ViewSagittal}},
		TargetReps:          12,
		TargetSets:          3,
		MinExcursionDegrees: 60,
	}
}

// SitToStand returns the functional squat prescription used for lower-limb
// assessment.
func SitToStand(side anatomy.Side) Exercise {
	return Exercise{
		ID:                  "sit-to-stand",
		Name:                "Sit to Stand",
		Category:            CategoryFunctional,
		Difficulty:          3,
		BodyRegion:          "lower-limb",
		PrimaryJoint:        JointKnee,
		Side:                side,
		Movement:            MovementSquat,
		Plane:               anatomy.PlaneSagittal,
		SecondaryJoints:     []Joint{JointHip, JointTrunk},
		Phases:              []Phase{{Name: "rise", View: pose.ViewSagittal}},
		TargetReps:          8,
		TargetSets:          2,
		MinExcursionDegrees: 50,
	}
}

// HipAbduction returns the standing hip abduction prescription.
func HipAbduction(side anatomy.Side) Exercise {
	return Exercise{
		ID:                  "hip-abduction",
		Name:                "Standing Hip Abduction",
		Category:            CategoryRehabilitation,
		Difficulty:          2,
		BodyRegion:          "hip",
		PrimaryJoint:        JointHip,
		Side:                side,
		Movement:            MovementAbduction,
		Plane:               anatomy.PlaneCoronal,
		SecondaryJoints:     []Joint{JointTrunk, JointKnee},
		Phases:              []Phase{{Name: "raise", View: pose.ViewFrontal}},
		TargetReps:          10,
		TargetSets:          3,
		MinExcursionDegrees: 25,
	}
}

// Catalog returns every built-in prescription for the requested side.
func Catalog(side anatomy.Side) []Exercise {
	return []Exercise{
		ShoulderAbduction(side),
		ShoulderFlexion(side),
		ElbowFlexion(side),
		SitToStand(side),
		HipAbduction(side),
	}
}

// Lookup resolves a built-in prescription by template ID.
func Lookup(id string, side anatomy.Side) (Exercise, bool) {
	for _, ex := range Catalog(side) {
		if ex.ID == id {
			return ex, true
		}
	}
	return Exercise{}, false
}
