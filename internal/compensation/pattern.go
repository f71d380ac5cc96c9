package compensation

import (
	"time"

	"kinemetry/internal/exercise"
)

// Kind identifies one detectable compensation pattern.
type Kind string

const (
	TrunkLean            Kind = "trunk_lean"
	TrunkRotation        Kind = "trunk_rotation"
	ShoulderHiking       Kind = "shoulder_hiking"
	ElbowFlexionComp     Kind = "elbow_flexion_compensation"
	KneeValgus           Kind = "knee_valgus"
	HeelLift             Kind = "heel_lift"
	PosteriorPelvicTilt  Kind = "posterior_pelvic_tilt"
	InsufficientDepth    Kind = "insufficient_depth"
	ShoulderCompensation Kind = "shoulder_compensation"
	IncompleteExtension  Kind = "incomplete_extension"
	WristDeviation       Kind = "wrist_deviation"
)

// AllKinds lists every supported pattern in a stable order.
var AllKinds = []Kind{
	TrunkLean,
	TrunkRotation,
	ShoulderHiking,
	ElbowFlexionComp,
	KneeValgus,
	HeelLift,
	PosteriorPelvicTilt,
	InsufficientDepth,
	ShoulderCompensation,
	IncompleteExtension,
	WristDeviation,
}

// KnownKind reports whether the identifier names a supported pattern.
func KnownKind(k Kind) bool {
	switch k {
	case TrunkLean, TrunkRotation, ShoulderHiking, ElbowFlexionComp,
		KneeValgus, HeelLift, PosteriorPelvicTilt, InsufficientDepth,
		ShoulderCompensation, IncompleteExtension, WristDeviation:
		return true
	}
	return false
}

// Tier names which threshold the metric currently exceeds.
type Tier string

const (
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

// Severity grades a flagged pattern. The tier decides the band
// (warning maps to minimal/mild, critical to moderate/severe); the
// magnitude only decides position within the band, never promotes
// across it.
type Severity string

const (
	SeverityMinimal  Severity = "minimal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// severityRank orders severities for comparisons in reports and tests.
var severityRank = map[Severity]int{
	SeverityMinimal:  0,
	SeverityMild:     1,
	SeverityModerate: 2,
	SeveritySevere:   3,
}

// AtLeast reports whether s is as severe as min or more.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// implicated maps each pattern to the joints it invalidates.
var implicated = map[Kind][]exercise.Joint{
	TrunkLean:            {exercise.JointTrunk},
	TrunkRotation:        {exercise.JointTrunk},
	ShoulderHiking:       {exercise.JointShoulder},
	ElbowFlexionComp:     {exercise.JointElbow},
	KneeValgus:           {exercise.JointKnee},
	HeelLift:             {exercise.JointAnkle},
	PosteriorPelvicTilt:  {exercise.JointHip, exercise.JointTrunk},
	InsufficientDepth:    {exercise.JointKnee, exercise.JointHip},
	ShoulderCompensation: {exercise.JointShoulder},
	IncompleteExtension:  {exercise.JointElbow},
	WristDeviation:       {exercise.JointWrist},
}

// Implicated returns the joints a pattern of this kind calls into question.
func Implicated(k Kind) []exercise.Joint {
	joints := implicated[k]
	out := make([]exercise.Joint, len(joints))
	copy(out, joints)
	return out
}

// Pattern is one currently flagged compensation. Magnitude and
// severity track the latest tick; PeakMagnitude tracks the worst
// excursion since the pattern was flagged. DetectedAt is the first
// tick of the sustained violation, not the tick the persistence window
// elapsed on.
type Pattern struct {
	Kind          Kind
	Tier          Tier
	Severity      Severity
	Magnitude     float64
	PeakMagnitude float64
	Joints        []exercise.Joint
	DetectedAt    time.Time
}
