// Package pose defines the immutable keypoint and frame types produced by an
// external pose detector and consumed read-only by every pipeline stage.
package pose
