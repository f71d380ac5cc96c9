package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"kinemetry/internal/compensation"
	"kinemetry/internal/exercise"
	"kinemetry/internal/feedback"
	"kinemetry/internal/measurement"
	"kinemetry/internal/report"
	"kinemetry/internal/session"
	"kinemetry/internal/store"
)

var reportStart = time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)

func TestSessionsListingRendersRows(t *testing.T) {
	stopped := reportStart.Add(90 * time.Second)
	rows := []store.SessionRow{{
		ID:         "0c9d1a52-aaaa-bbbb-cccc-000000000000",
		ExerciseID: "shoulder-abduction",
		Mode:       "offline",
		StartedAt:  reportStart,
		StoppedAt:  &stopped,
		Reps:       8,
	}}

	var buf bytes.Buffer
	if err := report.NewRenderer(&buf).Sessions(rows); err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"0c9d1a52", "shoulder-abduction", "1m30s", "8"} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("non-TTY output should carry no ANSI codes")
	}
}

func TestSessionsListingEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := report.NewRenderer(&buf).Sessions(nil); err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions recorded.") {
		t.Fatalf("unexpected empty listing: %q", buf.String())
	}
}

func TestSessionReportRendersAllSections(t *testing.T) {
	stopped := reportStart.Add(2 * time.Minute)
	row := &store.SessionRow{
		ID:         "11112222-3333-4444-5555-666677778888",
		ExerciseID: "shoulder-abduction",
		Mode:       "offline",
		StartedAt:  reportStart,
		StoppedAt:  &stopped,
		Reps:       2,
	}
	patterns := []store.PatternRow{{
		Kind:       "trunk_lean",
		Tier:       "warning",
		Severity:   "mild",
		Magnitude:  12,
		Peak:       12.4,
		Joints:     []string{"trunk"},
		DetectedAt: reportStart.Add(400 * time.Millisecond),
	}}
	reps := []store.RepRow{
		{Number: 1, PeakDegrees: 88.4, Kinds: []string{"trunk_lean"}, CompletedAt: reportStart.Add(time.Minute)},
		{Number: 2, PeakDegrees: 91.0, Kinds: nil, CompletedAt: reportStart.Add(2 * time.Minute)},
	}
	items := []store.FeedbackRow{{Rank: 1, Kind: "trunk_lean", Score: 4.0, Cue: "Keep your torso upright"}}

	var buf bytes.Buffer
	if err := report.NewRenderer(&buf).Session(row, patterns, reps, items); err != nil {
		t.Fatalf("Session: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Session 11112222",
		"Trunk Lean",
		"mild",
		"12.0\u00b0",
		"88.4\u00b0",
		"clean",
		"Keep your torso upright",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryRendersRhythmAndReinforcement(t *testing.T) {
	sum := &session.Summary{
		SessionID:  "99990000-aaaa-bbbb-cccc-ddddeeeeffff",
		ExerciseID: "shoulder-abduction",
		StartedAt:  reportStart,
		StoppedAt:  reportStart.Add(time.Minute),
		Reps:       3,
		Patterns: []compensation.Pattern{{
			Kind:          compensation.ShoulderHiking,
			Tier:          compensation.TierCritical,
			Severity:      compensation.SeverityModerate,
			Magnitude:     13,
			PeakMagnitude: 14.2,
			Joints:        []exercise.Joint{exercise.JointShoulder},
			DetectedAt:    reportStart.Add(5 * time.Second),
		}},
		Feedback: feedback.Result{
			Items: []feedback.Item{{
				Pattern: compensation.Pattern{Kind: compensation.ShoulderHiking},
				Score:   5.5,
				Cue:     "Relax your shoulder away from your ear",
			}},
			Reinforcement: &feedback.Reinforcement{
				Cue:             "Great progress, your range is improving",
				BaselineDegrees: 80,
				RecentDegrees:   88,
			},
		},
		Rhythm: &measurement.RhythmResult{
			Ratio:         2.1,
			TargetRatio:   2.0,
			WithinTarget:  true,
			PeakElevation: 150,
		},
	}

	var buf bytes.Buffer
	if err := report.NewRenderer(&buf).Summary(sum); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Shoulder Hiking",
		"moderate",
		"within target",
		"Relax your shoulder away from your ear",
		"Great progress",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
