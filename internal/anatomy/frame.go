package anatomy

import (
	"fmt"
	"strings"

	"kinemetry/internal/geom"
	"kinemetry/internal/pose"
)

// Kind names a reference frame variant.
type Kind string

const (
	KindGlobal   Kind = "global"
	KindThorax   Kind = "thorax"
	KindScapular Kind = "scapular"
	KindHumeral  Kind = "humeral"
)

// Side selects which humerus a humeral frame is built for.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ReferenceFrame is an orthonormal axis triple plus an origin, tagged with
// its kind and whether it was built from true depth data.
//
// Axis convention: X lateral (toward the subject's left), Y superior,
// Z = X x Y (anterior for a subject in the standard capture orientation).
type ReferenceFrame struct {
	Kind     Kind
	Origin   geom.Vec
	X, Y, Z  geom.Vec
	HasDepth bool
}

// Valid reports whether the axes are mutually orthogonal unit vectors within
// tolerance. Builders check this before returning any frame.
func (f ReferenceFrame) Valid() bool {
	return geom.IsOrthonormal(f.X, f.Y, f.Z)
}

// LowConfidenceError reports that required landmarks were below the
// configured confidence minimum. Callers must treat it as "no measurement
// this tick", never as a zero frame.
type LowConfidenceError struct {
	Kind       Kind
	Landmarks  []pose.Landmark
	Confidence float64
	Minimum    float64
}

func (e *LowConfidenceError) Error() string {
	names := make([]string, len(e.Landmarks))
	for i, l := range e.Landmarks {
		names[i] = string(l)
	}
	return fmt.Sprintf("anatomy: %s frame: landmark confidence %.2f below minimum %.2f (%s)",
		e.Kind, e.Confidence, e.Minimum, strings.Join(names, ", "))
}
