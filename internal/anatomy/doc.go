// Package anatomy converts filtered pose frames into orthonormal anatomical
// reference frames: a global frame anchored at the body center, a thorax
// frame from shoulder and hip landmarks, the scapular-plane frame rotated a
// fixed clinical offset anterior to the coronal plane, and per-side humeral
// frames.
//
// Frames are recomputed from scratch every tick and never persisted beyond
// the measurement they support. A frame that cannot satisfy the
// orthonormality invariant, or whose landmarks fall below the configured
// confidence minimum, is rejected rather than returned as a default.
package anatomy
