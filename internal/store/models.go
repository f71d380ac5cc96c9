package store

import (
	"time"
)

// SessionRow is the persisted form of one session.
type SessionRow struct {
	ID         string
	ExerciseID string
	Mode       string
	StartedAt  time.Time
	StoppedAt  *time.Time
	Reps       int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Finished reports whether the session has a recorded stop time.
func (r *SessionRow) Finished() bool { return r.StoppedAt != nil }

// MeasurementRow is one persisted joint angle sample.
type MeasurementRow struct {
	SessionID    string
	Timestamp    time.Time
	Joint        string
	Side         string
	Plane        string
	Role         string
	AngleDegrees float64
	Confidence   float64
	HasDepth     bool
}

// PatternRow is one persisted flagged compensation pattern.
type PatternRow struct {
	SessionID  string
	Kind       string
	Tier       string
	Severity   string
	Magnitude  float64
	Peak       float64
	Joints     []string
	DetectedAt time.Time
}

// RepRow is one persisted repetition summary.
type RepRow struct {
	SessionID   string
	Number      int
	PeakDegrees float64
	Kinds       []string
	CompletedAt time.Time
}

// FeedbackRow is one persisted ranked feedback item.
type FeedbackRow struct {
	SessionID string
	Rank      int
	Kind      string
	Score     float64
	Cue       string
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(timeLayout, value)
}
