package geom

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	// Epsilon is the squared-root magnitude below which a vector is treated
	// as degenerate rather than normalized.
	Epsilon = 1e-9

	// UnitTolerance is how far a "unit" vector's norm may drift from 1
	// before projection rejects it.
	UnitTolerance = 1e-6

	// OrthoTolerance bounds the pairwise dot products of an orthonormal
	// axis triple.
	OrthoTolerance = 1e-6
)

// Vec is the vector type used throughout the pipeline.
type Vec = r3.Vector

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Vec) Vec {
	return a.Add(b).Mul(0.5)
}

// Sub returns the vector from b to a.
func Sub(a, b Vec) Vec {
	return a.Sub(b)
}

// Normalize returns v scaled to unit length. Vectors with norm below Epsilon
// fail with DegenerateVectorError.
func Normalize(v Vec) (Vec, error) {
	n := v.Norm()
	if n < Epsilon {
		return Vec{}, &DegenerateVectorError{Op: "normalize", Norm: n}
	}
	return v.Mul(1 / n), nil
}

// IsUnit reports whether v has norm 1 within UnitTolerance.
func IsUnit(v Vec) bool {
	return math.Abs(v.Norm()-1) <= UnitTolerance
}

// AngleBetween returns the unsigned angle between a and b in degrees,
// in [0, 180]. The cosine is clamped to [-1, 1] so accumulated floating
// drift cannot push math.Acos out of its domain.
func AngleBetween(a, b Vec) (float64, error) {
	na := a.Norm()
	if na < Epsilon {
		return 0, &DegenerateVectorError{Op: "angle between", Norm: na}
	}
	nb := b.Norm()
	if nb < Epsilon {
		return 0, &DegenerateVectorError{Op: "angle between", Norm: nb}
	}
	cos := a.Dot(b) / (na * nb)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, nil
}

// ProjectOntoPlane removes from v its component along the plane normal.
// The normal must already be unit length; callers normalize once when the
// reference frame is built, not on every projection.
func ProjectOntoPlane(v, normal Vec) (Vec, error) {
	if !IsUnit(normal) {
		return Vec{}, &NonUnitNormalError{Norm: normal.Norm()}
	}
	return v.Sub(normal.Mul(v.Dot(normal))), nil
}

// RotateAround rotates v about the unit axis by the given angle in degrees
// using Rodrigues' formula.
func RotateAround(v, axis Vec, degrees float64) (Vec, error) {
	if !IsUnit(axis) {
		return Vec{}, &NonUnitNormalError{Norm: axis.Norm()}
	}
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return v.Mul(cos).
		Add(axis.Cross(v).Mul(sin)).
		Add(axis.Mul(axis.Dot(v) * (1 - cos))), nil
}

// Orthonormalize runs Gram-Schmidt over (primary, secondary): primary is
// normalized, secondary has its primary component removed and is normalized,
// and the third axis is their cross product. Fails if either input is
// degenerate or if secondary is (near) parallel to primary.
func Orthonormalize(primary, secondary Vec) (x, y, z Vec, err error) {
	x, err = Normalize(primary)
	if err != nil {
		return Vec{}, Vec{}, Vec{}, err
	}
	reduced := secondary.Sub(x.Mul(secondary.Dot(x)))
	y, err = Normalize(reduced)
	if err != nil {
		return Vec{}, Vec{}, Vec{}, err
	}
	// x and y are unit and orthogonal, so the cross product is unit too.
	z = x.Cross(y)
	return x, y, z, nil
}

// IsOrthonormal reports whether the axis triple is mutually orthogonal and
// unit length within tolerance.
func IsOrthonormal(x, y, z Vec) bool {
	if !IsUnit(x) || !IsUnit(y) || !IsUnit(z) {
		return false
	}
	return math.Abs(x.Dot(y)) <= OrthoTolerance &&
		math.Abs(y.Dot(z)) <= OrthoTolerance &&
		math.Abs(z.Dot(x)) <= OrthoTolerance
}
