// Package geom provides the pure 3D vector math the measurement pipeline is
// built on: midpoints, normalization, angles, and plane projection over
// r3.Vector values.
//
// Every function is deterministic and side-effect free. Degenerate inputs
// (near-zero vectors, non-unit plane normals) fail with typed errors instead
// of propagating NaN or Inf into downstream angle math; callers treat those
// failures as "no measurement this tick".
package geom
