package pose

// Landmark identifies a tracked body point. The vocabulary follows the
// MediaPipe/BlazePose naming both detector tiers emit, reduced to the
// landmarks the measurement pipeline actually consumes.
type Landmark string

const (
	Nose           Landmark = "nose"
	LeftEar        Landmark = "left_ear"
	RightEar       Landmark = "right_ear"
	LeftShoulder   Landmark = "left_shoulder"
	RightShoulder  Landmark = "right_shoulder"
	LeftElbow      Landmark = "left_elbow"
	RightElbow     Landmark = "right_elbow"
	LeftWrist      Landmark = "left_wrist"
	RightWrist     Landmark = "right_wrist"
	LeftIndex      Landmark = "left_index"
	RightIndex     Landmark = "right_index"
	LeftHip        Landmark = "left_hip"
	RightHip       Landmark = "right_hip"
	LeftKnee       Landmark = "left_knee"
	RightKnee      Landmark = "right_knee"
	LeftAnkle      Landmark = "left_ankle"
	RightAnkle     Landmark = "right_ankle"
	LeftHeel       Landmark = "left_heel"
	RightHeel      Landmark = "right_heel"
	LeftFootIndex  Landmark = "left_foot_index"
	RightFootIndex Landmark = "right_foot_index"
)

// CoreLandmarks is the minimum set a frame must carry (at usable confidence)
// for the session to consider the full body visible.
var CoreLandmarks = []Landmark{
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
}

// AllLandmarks lists every landmark the pipeline understands, in a stable
// order for wire validation and detector capability checks.
var AllLandmarks = []Landmark{
	Nose, LeftEar, RightEar,
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftIndex, RightIndex,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
	LeftHeel, RightHeel,
	LeftFootIndex, RightFootIndex,
}

// Known reports whether the label belongs to the pipeline vocabulary.
func Known(l Landmark) bool {
	for _, known := range AllLandmarks {
		if l == known {
			return true
		}
	}
	return false
}
