package daemon

import (
	"kinemetry/internal/compensation"
	"kinemetry/internal/feedback"
	"kinemetry/internal/session"
)

// Outbound websocket messages. Every message carries a type tag so
// clients can dispatch without sniffing fields.

type startedMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Exercise  string `json:"exercise"`
	Mode      string `json:"mode"`
}

type patternPayload struct {
	Kind      string  `json:"kind"`
	Tier      string  `json:"tier"`
	Severity  string  `json:"severity"`
	Magnitude float64 `json:"magnitude_degrees"`
}

type feedbackPayload struct {
	Cue      string  `json:"cue"`
	Pattern  string  `json:"pattern"`
	Severity string  `json:"severity"`
	Score    float64 `json:"score"`
}

type tickPayload struct {
	Type        string  `json:"type"`
	SessionID   string  `json:"session_id"`
	TimestampMs int64   `json:"timestamp_ms"`
	Skipped     bool    `json:"skipped,omitempty"`
	Status      string  `json:"status,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	State       string  `json:"state"`
	Event       string  `json:"event,omitempty"`
	Reps        int     `json:"reps"`
	Primary     string  `json:"primary_joint,omitempty"`
	AngleDeg    float64 `json:"angle_degrees,omitempty"`

	Flagged  []patternPayload  `json:"flagged,omitempty"`
	Feedback []feedbackPayload `json:"feedback,omitempty"`
}

type summaryPayload struct {
	Type          string            `json:"type"`
	SessionID     string            `json:"session_id"`
	Exercise      string            `json:"exercise"`
	Reps          int               `json:"reps"`
	Patterns      []patternPayload  `json:"patterns,omitempty"`
	Feedback      []feedbackPayload `json:"feedback,omitempty"`
	Reinforcement string            `json:"reinforcement,omitempty"`

	RhythmRatio  float64 `json:"rhythm_ratio,omitempty"`
	RhythmInBand bool    `json:"rhythm_within_target,omitempty"`
}

func patternPayloads(patterns []compensation.Pattern) []patternPayload {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]patternPayload, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, patternPayload{
			Kind:      string(p.Kind),
			Tier:      string(p.Tier),
			Severity:  string(p.Severity),
			Magnitude: p.Magnitude,
		})
	}
	return out
}

func feedbackPayloads(items []feedback.Item) []feedbackPayload {
	if len(items) == 0 {
		return nil
	}
	out := make([]feedbackPayload, 0, len(items))
	for _, item := range items {
		out = append(out, feedbackPayload{
			Cue:      item.Cue,
			Pattern:  string(item.Pattern.Kind),
			Severity: string(item.Pattern.Severity),
			Score:    item.Score,
		})
	}
	return out
}

func tickMessage(res *session.TickResult) tickPayload {
	msg := tickPayload{
		Type:        "tick",
		SessionID:   res.SessionID,
		TimestampMs: res.Timestamp.UnixMilli(),
		Skipped:     res.Skipped,
		Status:      string(res.Status),
		Reason:      res.Reason,
		State:       string(res.State),
		Event:       string(res.Event),
		Reps:        res.Reps,
		Flagged:     patternPayloads(res.Flagged),
	}
	if res.Measurements != nil && res.Measurements.Primary != nil {
		msg.Primary = string(res.Measurements.Primary.Joint)
		msg.AngleDeg = res.Measurements.Primary.AngleDegrees
	}
	if res.Feedback != nil {
		msg.Feedback = feedbackPayloads(res.Feedback.Items)
	}
	return msg
}

func summaryMessage(summary *session.Summary) summaryPayload {
	msg := summaryPayload{
		Type:      "summary",
		SessionID: summary.SessionID,
		Exercise:  summary.ExerciseID,
		Reps:      summary.Reps,
		Patterns:  patternPayloads(summary.Patterns),
		Feedback:  feedbackPayloads(summary.Feedback.Items),
	}
	if summary.Feedback.Reinforcement != nil {
		msg.Reinforcement = summary.Feedback.Reinforcement.Cue
	}
	if summary.Rhythm != nil {
		msg.RhythmRatio = summary.Rhythm.Ratio
		msg.RhythmInBand = summary.Rhythm.WithinTarget
	}
	return msg
}
