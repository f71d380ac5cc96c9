package feedback

import (
	"kinemetry/internal/compensation"
	"kinemetry/internal/exercise"
)

// relevance links each primary joint to the localized compensation
// kinds that directly substitute for its range of motion. Global
// postural patterns (trunk lean/rotation, posterior pelvic tilt) are
// deliberately unlinked: they degrade every exercise, so they earn no
// extra relevance over localized kinds of equal severity.
var relevance = map[exercise.Joint][]compensation.Kind{
	exercise.JointShoulder: {
		compensation.ShoulderHiking,
		compensation.ShoulderCompensation,
		compensation.ElbowFlexionComp,
		compensation.IncompleteExtension,
	},
	exercise.JointElbow: {
		compensation.ShoulderCompensation,
		compensation.WristDeviation,
		compensation.IncompleteExtension,
	},
	exercise.JointWrist: {
		compensation.WristDeviation,
		compensation.ElbowFlexionComp,
	},
	exercise.JointHip: {
		compensation.KneeValgus,
		compensation.InsufficientDepth,
	},
	exercise.JointKnee: {
		compensation.KneeValgus,
		compensation.HeelLift,
		compensation.InsufficientDepth,
	},
	exercise.JointAnkle: {
		compensation.HeelLift,
		compensation.KneeValgus,
	},
	exercise.JointTrunk: {
		compensation.TrunkLean,
		compensation.TrunkRotation,
		compensation.PosteriorPelvicTilt,
	},
}

// Relevant reports whether the pattern is causally linked to the joint.
func Relevant(joint exercise.Joint, kind compensation.Kind) bool {
	for _, k := range relevance[joint] {
		if k == kind {
			return true
		}
	}
	return false
}

// cues are the user-facing corrections per pattern kind. Presentation
// collaborators own timing; the text here is the clinical instruction.
var cues = map[compensation.Kind]string{
	compensation.TrunkLean:            "Keep your trunk upright; avoid leaning to the side.",
	compensation.TrunkRotation:        "Keep your shoulders square over your hips.",
	compensation.ShoulderHiking:       "Relax your shoulder down away from your ear.",
	compensation.ElbowFlexionComp:     "Keep your elbow straight during the raise.",
	compensation.KneeValgus:           "Keep your knee tracking over your toes.",
	compensation.HeelLift:             "Keep your heels flat on the floor.",
	compensation.PosteriorPelvicTilt:  "Keep your pelvis neutral; avoid tucking your tailbone.",
	compensation.InsufficientDepth:    "Sink deeper until your thighs are parallel.",
	compensation.ShoulderCompensation: "Keep your other arm relaxed at your side.",
	compensation.IncompleteExtension:  "Fully straighten your arm at the top.",
	compensation.WristDeviation:       "Keep your wrist in line with your forearm.",
}

// Cue returns the correction text for a pattern kind.
func Cue(kind compensation.Kind) string { return cues[kind] }
