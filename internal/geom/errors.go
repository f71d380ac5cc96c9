package geom

import "fmt"

// DegenerateVectorError reports an operation that received a vector too close
// to zero length to produce a meaningful direction.
type DegenerateVectorError struct {
	Op   string
	Norm float64
}

func (e *DegenerateVectorError) Error() string {
	return fmt.Sprintf("geom: %s: degenerate vector (norm %.3g below %.3g)", e.Op, e.Norm, Epsilon)
}

// NonUnitNormalError reports a plane projection attempted with a normal whose
// length is not approximately 1.
type NonUnitNormalError struct {
	Norm float64
}

func (e *NonUnitNormalError) Error() string {
	return fmt.Sprintf("geom: plane normal has norm %.6f, want 1 within %.1g", e.Norm, UnitTolerance)
}
