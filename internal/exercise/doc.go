// Package exercise models the prescription side of a session: which joint is
// the clinical target, the movement and anatomical plane it is measured in,
// which secondary joints are watched for compensation, and the expected view
// orientation per phase for multi-angle exercises.
//
// Configurations are validated when a session is constructed; a session never
// starts with an unknown joint, plane, or pattern identifier.
package exercise
