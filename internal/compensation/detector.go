package compensation

import (
	"fmt"
	"sort"
	"time"

	"kinemetry/internal/exercise"
	"kinemetry/internal/measurement"
	"kinemetry/internal/pose"
	"kinemetry/internal/services"
)

type trackState int

const (
	trackIdle trackState = iota
	trackCandidate
	trackFlagged
)

// track is the per-kind dwell state. A candidate opens on the first
// tick past warning and either collapses back to idle or graduates to
// flagged once the persistence window elapses; a flagged track starts
// its cool-down clock the first tick it drops below warning.
type track struct {
	state      trackState
	aboveSince time.Time
	belowSince time.Time
	detectedAt time.Time

	magnitude float64
	peak      float64
	tier      Tier
	severity  Severity
}

// Detector evaluates every watched pattern once per tick. It holds
// only per-pattern dwell state and is owned by exactly one session.
type Detector struct {
	cfg     Config
	ex      exercise.Exercise
	watched []Kind
	tracks  map[Kind]*track

	// depthPeak is the running deepest knee flexion of the current
	// squat rep, used by the insufficient-depth metric.
	depthPeak float64
}

// NewDetector validates the watch list against the threshold table.
// An exercise watching a pattern with no configured thresholds must
// not start; clinical values are never defaulted here.
func NewDetector(ex exercise.Exercise, cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var watched []Kind
	if len(ex.WatchedPatterns) == 0 {
		for _, kind := range AllKinds {
			if _, ok := cfg.Thresholds[kind]; ok {
				watched = append(watched, kind)
			}
		}
	} else {
		for _, name := range ex.WatchedPatterns {
			kind := Kind(name)
			if !KnownKind(kind) {
				return nil, services.Wrap(services.ErrConfiguration, "compensation", "new detector",
					fmt.Sprintf("exercise %s watches unknown pattern %q", ex.ID, name), nil)
			}
			if _, ok := cfg.Thresholds[kind]; !ok {
				return nil, services.Wrap(services.ErrConfiguration, "compensation", "new detector",
					fmt.Sprintf("exercise %s watches %s but no thresholds are configured", ex.ID, kind), nil)
			}
			watched = append(watched, kind)
		}
	}
	tracks := make(map[Kind]*track, len(watched))
	for _, kind := range watched {
		tracks[kind] = &track{}
	}
	return &Detector{cfg: cfg, ex: ex, watched: watched, tracks: tracks}, nil
}

// Watched returns the patterns this detector evaluates, in stable order.
func (d *Detector) Watched() []Kind {
	out := make([]Kind, len(d.watched))
	copy(out, d.watched)
	return out
}

// Observe evaluates one tick and returns the currently flagged
// patterns. A metric that cannot be measured this tick leaves its
// pattern's dwell state untouched; only a measured value below
// warning counts toward recovery.
func (d *Detector) Observe(f *pose.Frame, tick *measurement.Tick) []Pattern {
	ts := f.Timestamp
	for _, kind := range d.watched {
		value, ok := d.metric(kind, f, tick)
		if !ok {
			continue
		}
		d.update(kind, value, ts)
	}
	return d.Flagged()
}

func (d *Detector) update(kind Kind, value float64, ts time.Time) {
	thr := d.cfg.Thresholds[kind]
	tr := d.tracks[kind]
	above := value >= thr.WarningDegrees

	switch tr.state {
	case trackIdle:
		if above {
			tr.state = trackCandidate
			tr.aboveSince = ts
		}
	case trackCandidate:
		if !above {
			tr.state = trackIdle
			return
		}
		if ts.Sub(tr.aboveSince) >= thr.Persistence {
			tr.state = trackFlagged
			tr.detectedAt = tr.aboveSince
			tr.peak = 0
			tr.belowSince = time.Time{}
		}
	case trackFlagged:
		if above {
			tr.belowSince = time.Time{}
		} else {
			if tr.belowSince.IsZero() {
				tr.belowSince = ts
			}
			if ts.Sub(tr.belowSince) >= thr.Cooldown {
				*tr = track{}
				return
			}
		}
	}

	// Sub-warning ticks during cool-down keep the last graded severity.
	if tr.state != trackFlagged || !above {
		return
	}
	tr.magnitude = value
	if value > tr.peak {
		tr.peak = value
	}
	tr.tier, tr.severity = grade(value, thr)
}

// grade derives tier and severity. The tier alone picks the severity
// band; the magnitude's position within the band picks the grade.
func grade(value float64, thr Threshold) (Tier, Severity) {
	span := thr.CriticalDegrees - thr.WarningDegrees
	if value >= thr.CriticalDegrees {
		if value >= thr.CriticalDegrees+span {
			return TierCritical, SeveritySevere
		}
		return TierCritical, SeverityModerate
	}
	if value >= thr.WarningDegrees+span/2 {
		return TierWarning, SeverityMild
	}
	return TierWarning, SeverityMinimal
}

// Flagged returns the flagged patterns ordered by detection time,
// then by kind declaration order for deterministic ties.
func (d *Detector) Flagged() []Pattern {
	var out []Pattern
	for _, kind := range d.watched {
		tr := d.tracks[kind]
		if tr.state != trackFlagged {
			continue
		}
		out = append(out, Pattern{
			Kind:          kind,
			Tier:          tr.tier,
			Severity:      tr.severity,
			Magnitude:     tr.magnitude,
			PeakMagnitude: tr.peak,
			Joints:        Implicated(kind),
			DetectedAt:    tr.detectedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DetectedAt.Before(out[j].DetectedAt)
	})
	return out
}

// Reset clears all dwell state, for reuse across sets within one
// session. Cross-session reuse is not supported; sessions own their
// detectors.
func (d *Detector) Reset() {
	for _, tr := range d.tracks {
		*tr = track{}
	}
	d.depthPeak = 0
}
