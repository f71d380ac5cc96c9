// Package feedback ranks flagged compensation patterns into the
// bounded list a presentation layer may show. Scores combine the
// kind's injury risk, the current threshold tier, recurrence across
// recent reps, and causal relevance to the exercise's primary joint.
// The cap is hard: unselected candidates are discarded for the tick,
// not queued. When nothing is flagged the ranker can instead emit a
// positive-reinforcement signal against the session baseline.
package feedback
