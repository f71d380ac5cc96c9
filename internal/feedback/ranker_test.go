package feedback_test

import (
	"errors"
	"testing"
	"time"

	"kinemetry/internal/compensation"
	"kinemetry/internal/exercise"
	"kinemetry/internal/feedback"
	"kinemetry/internal/services"
)

var detectBase = time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)

func pattern(kind compensation.Kind, tier compensation.Tier, order int) compensation.Pattern {
	sev := compensation.SeverityMild
	if tier == compensation.TierCritical {
		sev = compensation.SeverityModerate
	}
	return compensation.Pattern{
		Kind:       kind,
		Tier:       tier,
		Severity:   sev,
		Joints:     compensation.Implicated(kind),
		DetectedAt: detectBase.Add(time.Duration(order) * time.Second),
	}
}

func newRanker(t *testing.T, primary exercise.Joint) *feedback.Ranker {
	t.Helper()
	r, err := feedback.NewRanker(primary, feedback.DefaultConfig())
	if err != nil {
		t.Fatalf("NewRanker: %v", err)
	}
	return r
}

func TestNewRankerConfigErrors(t *testing.T) {
	if _, err := feedback.NewRanker("spine", feedback.DefaultConfig()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("unknown joint: got %v", err)
	}

	bad := feedback.DefaultConfig()
	bad.InjuryRisk["hip_shimmy"] = 1
	if _, err := feedback.NewRanker(exercise.JointShoulder, bad); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("unknown risk kind: got %v", err)
	}

	bad = feedback.DefaultConfig()
	bad.CriticalWeight = bad.WarningWeight - 1
	if _, err := feedback.NewRanker(exercise.JointShoulder, bad); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("inverted tier weights: got %v", err)
	}

	bad = feedback.DefaultConfig()
	bad.TopNLive = 0
	if _, err := feedback.NewRanker(exercise.JointShoulder, bad); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("zero top-N: got %v", err)
	}
}

func TestRelevanceBonusOrdering(t *testing.T) {
	// With a shoulder primary, a shoulder-linked pattern outranks the
	// unlinked trunk lean at equal tier even with a lower injury risk.
	r := newRanker(t, exercise.JointShoulder)
	res := r.Rank([]compensation.Pattern{
		pattern(compensation.TrunkLean, compensation.TierWarning, 0),
		pattern(compensation.ShoulderCompensation, compensation.TierWarning, 1),
	}, feedback.ModeOffline)
	if len(res.Items) != 2 {
		t.Fatalf("got %d items", len(res.Items))
	}
	if res.Items[0].Pattern.Kind != compensation.ShoulderCompensation {
		t.Fatalf("first = %s, want shoulder_compensation", res.Items[0].Pattern.Kind)
	}

	// With a knee primary, knee valgus must rank first.
	r = newRanker(t, exercise.JointKnee)
	res = r.Rank([]compensation.Pattern{
		pattern(compensation.TrunkLean, compensation.TierWarning, 0),
		pattern(compensation.KneeValgus, compensation.TierCritical, 1),
	}, feedback.ModeOffline)
	if res.Items[0].Pattern.Kind != compensation.KneeValgus {
		t.Fatalf("first = %s, want knee_valgus", res.Items[0].Pattern.Kind)
	}
}

func TestTieBreakByEarliestDetection(t *testing.T) {
	r := newRanker(t, exercise.JointShoulder)
	// Heel lift and wrist deviation carry the same risk weight and
	// neither is shoulder-linked, so scores tie.
	res := r.Rank([]compensation.Pattern{
		pattern(compensation.HeelLift, compensation.TierWarning, 0),
		pattern(compensation.WristDeviation, compensation.TierWarning, 1),
	}, feedback.ModeOffline)
	if res.Items[0].Score != res.Items[1].Score {
		t.Fatalf("expected tied scores, got %.1f vs %.1f", res.Items[0].Score, res.Items[1].Score)
	}
	if res.Items[0].Pattern.Kind != compensation.HeelLift {
		t.Fatalf("tie broken to %s, want earliest-detected heel_lift", res.Items[0].Pattern.Kind)
	}
}

func TestTopNCaps(t *testing.T) {
	flagged := []compensation.Pattern{
		pattern(compensation.KneeValgus, compensation.TierCritical, 0),
		pattern(compensation.TrunkLean, compensation.TierWarning, 1),
		pattern(compensation.ShoulderHiking, compensation.TierWarning, 2),
		pattern(compensation.HeelLift, compensation.TierWarning, 3),
	}

	r := newRanker(t, exercise.JointShoulder)
	if got := len(r.Rank(flagged, feedback.ModeOffline).Items); got != 3 {
		t.Fatalf("offline cap: got %d items, want 3", got)
	}
	if got := len(r.Rank(flagged, feedback.ModeLive).Items); got != 1 {
		t.Fatalf("live cap: got %d items, want 1", got)
	}
}

func TestFrequencyBonusNeedsRecurrence(t *testing.T) {
	r := newRanker(t, exercise.JointShoulder)
	single := []compensation.Pattern{pattern(compensation.TrunkLean, compensation.TierWarning, 0)}

	before := r.Rank(single, feedback.ModeOffline).Items[0].Score

	// Two reps are below the minimum sample; no bonus yet.
	r.RecordRep(80, []compensation.Kind{compensation.TrunkLean})
	r.RecordRep(82, []compensation.Kind{compensation.TrunkLean})
	if got := r.Rank(single, feedback.ModeOffline).Items[0].Score; got != before {
		t.Fatalf("bonus applied on %d reps: %.1f vs %.1f", 2, got, before)
	}

	r.RecordRep(81, []compensation.Kind{compensation.TrunkLean})
	after := r.Rank(single, feedback.ModeOffline).Items[0].Score
	if after <= before {
		t.Fatalf("recurrent pattern score %.1f not above baseline %.1f", after, before)
	}
}

func TestReinforcementTracksBaselineTrend(t *testing.T) {
	r := newRanker(t, exercise.JointShoulder)

	if res := r.Rank(nil, feedback.ModeOffline); res.Reinforcement != nil {
		t.Fatal("reinforcement before any reps")
	}

	r.RecordRep(100, nil)
	if res := r.Rank(nil, feedback.ModeOffline); res.Reinforcement != nil {
		t.Fatal("reinforcement on a single rep")
	}

	r.RecordRep(108, nil)
	r.RecordRep(110, nil)
	res := r.Rank(nil, feedback.ModeOffline)
	if res.Reinforcement == nil {
		t.Fatal("expected reinforcement for improving trend")
	}
	if res.Reinforcement.BaselineDegrees != 100 {
		t.Fatalf("baseline = %.1f, want 100", res.Reinforcement.BaselineDegrees)
	}
	if res.Reinforcement.RecentDegrees <= 100 {
		t.Fatalf("recent mean = %.1f, want above baseline", res.Reinforcement.RecentDegrees)
	}
	if len(res.Items) != 0 {
		t.Fatalf("reinforcement result carried items: %v", res.Items)
	}

	// A declining trend stays silent.
	decliner := newRanker(t, exercise.JointShoulder)
	decliner.RecordRep(100, nil)
	decliner.RecordRep(95, nil)
	decliner.RecordRep(92, nil)
	if res := decliner.Rank(nil, feedback.ModeOffline); res.Reinforcement != nil {
		t.Fatal("reinforcement on declining trend")
	}
}
