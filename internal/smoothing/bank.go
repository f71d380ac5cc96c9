package smoothing

import (
	"time"

	"kinemetry/internal/geom"
	"kinemetry/internal/pose"
)

// SignalKey identifies one tracked signal within a session.
type SignalKey struct {
	Joint  string
	Signal string
}

// Bank owns every filter for a single session. Banks are not safe for
// concurrent use; each session drives its own bank from its tick loop.
type Bank struct {
	params  Params
	scalars map[SignalKey]*Filter
	vectors map[pose.Landmark]*VecFilter
}

// NewBank builds an empty filter bank with one shared tuning.
func NewBank(params Params) *Bank {
	return &Bank{
		params:  params.orDefaults(),
		scalars: make(map[SignalKey]*Filter),
		vectors: make(map[pose.Landmark]*VecFilter),
	}
}

// Scalar smooths the named signal, creating its filter state on first use.
func (b *Bank) Scalar(key SignalKey, value float64, ts time.Time) float64 {
	f, ok := b.scalars[key]
	if !ok {
		f = NewFilter(b.params)
		b.scalars[key] = f
	}
	return f.Sample(value, ts)
}

// Keypoint smooths one landmark position.
func (b *Bank) Keypoint(l pose.Landmark, v geom.Vec, ts time.Time) geom.Vec {
	f, ok := b.vectors[l]
	if !ok {
		f = NewVecFilter(b.params)
		b.vectors[l] = f
	}
	return f.Sample(v, ts)
}

// SmoothFrame returns a derived frame whose keypoint positions have been
// filtered. Confidences, view, and timestamp pass through untouched; the
// input frame is never mutated.
func (b *Bank) SmoothFrame(f *pose.Frame) *pose.Frame {
	out := &pose.Frame{
		Timestamp:  f.Timestamp,
		Keypoints:  make(map[pose.Landmark]pose.Keypoint, len(f.Keypoints)),
		Confidence: f.Confidence,
		View:       f.View,
		HasDepth:   f.HasDepth,
	}
	for l, kp := range f.Keypoints {
		out.Keypoints[l] = pose.Keypoint{
			Landmark:   l,
			Position:   b.Keypoint(l, kp.Position, f.Timestamp),
			Confidence: kp.Confidence,
		}
	}
	return out
}

// Reset drops every filter in the bank. Called on session stop and between
// users so no smoothing history crosses sessions.
func (b *Bank) Reset() {
	b.scalars = make(map[SignalKey]*Filter)
	b.vectors = make(map[pose.Landmark]*VecFilter)
}
