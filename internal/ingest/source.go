package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kinemetry/internal/geom"
	"kinemetry/internal/pose"
)

// Source produces pose frames in capture order. Next returns io.EOF once the
// source is exhausted; live sources block until a frame arrives or the
// context is cancelled. Landmarks advertises the landmark vocabulary the
// upstream detector emits, so consumers can reject prescriptions the
// detector cannot serve.
type Source interface {
	Next(ctx context.Context) (*pose.Frame, error)
	Landmarks() []pose.Landmark
	Stats() Stats
	Close() error
}

var (
	_ Source = (*FileSource)(nil)
	_ Source = (*SocketSource)(nil)
)

// Stats counts what a source has seen. Malformed records are skipped, not
// fatal: one garbled line in a recording should not void a session.
type Stats struct {
	Decoded   int
	Malformed int
}

// wireKeypoint is the JSON shape of one landmark sample.
type wireKeypoint struct {
	Landmark   string  `json:"landmark"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Confidence float64 `json:"confidence"`
}

// wireFrame is the JSON shape both sources accept: one frame per JSONL line
// or WebSocket text message.
type wireFrame struct {
	TimestampMs int64          `json:"timestamp_ms"`
	Confidence  float64        `json:"confidence"`
	View        string         `json:"view"`
	HasDepth    bool           `json:"has_depth"`
	Keypoints   []wireKeypoint `json:"keypoints"`
}

// EncodeFrame renders a frame in the wire format both sources accept, one
// JSON object per frame with millisecond timestamps. Used by recording
// tooling and tests.
func EncodeFrame(f *pose.Frame) ([]byte, error) {
	w := wireFrame{
		TimestampMs: f.Timestamp.UnixMilli(),
		Confidence:  f.Confidence,
		View:        string(f.View),
		HasDepth:    f.HasDepth,
		Keypoints:   make([]wireKeypoint, 0, len(f.Keypoints)),
	}
	for _, l := range pose.AllLandmarks {
		kp, ok := f.Keypoints[l]
		if !ok {
			continue
		}
		w.Keypoints = append(w.Keypoints, wireKeypoint{
			Landmark:   string(l),
			X:          kp.Position.X,
			Y:          kp.Position.Y,
			Z:          kp.Position.Z,
			Confidence: kp.Confidence,
		})
	}
	return json.Marshal(w)
}

func decodeFrame(data []byte) (*pose.Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if w.TimestampMs <= 0 {
		return nil, fmt.Errorf("frame missing timestamp_ms")
	}
	if len(w.Keypoints) == 0 {
		return nil, fmt.Errorf("frame has no keypoints")
	}
	if w.Confidence < 0 || w.Confidence > 1 {
		return nil, fmt.Errorf("frame confidence %.2f outside [0, 1]", w.Confidence)
	}

	view := pose.ViewOrientation(w.View)
	switch view {
	case pose.ViewFrontal, pose.ViewSagittal, pose.ViewPosterior:
	case "":
		view = pose.ViewUnknown
	default:
		return nil, fmt.Errorf("unknown view %q", w.View)
	}

	keypoints := make(map[pose.Landmark]pose.Keypoint, len(w.Keypoints))
	for _, kp := range w.Keypoints {
		l := pose.Landmark(kp.Landmark)
		if !pose.Known(l) {
			return nil, fmt.Errorf("unknown landmark %q", kp.Landmark)
		}
		if kp.Confidence < 0 || kp.Confidence > 1 {
			return nil, fmt.Errorf("landmark %s confidence %.2f outside [0, 1]", kp.Landmark, kp.Confidence)
		}
		keypoints[l] = pose.Keypoint{
			Landmark:   l,
			Position:   geom.Vec{X: kp.X, Y: kp.Y, Z: kp.Z},
			Confidence: kp.Confidence,
		}
	}

	return &pose.Frame{
		Timestamp:  time.UnixMilli(w.TimestampMs).UTC(),
		Keypoints:  keypoints,
		Confidence: w.Confidence,
		View:       view,
		HasDepth:   w.HasDepth,
	}, nil
}
