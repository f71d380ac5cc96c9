package feedback

import (
	"sort"

	"kinemetry/internal/compensation"
	"kinemetry/internal/exercise"
	"kinemetry/internal/services"
)

// Mode selects the top-N cap: live sessions surface one cue at a
// time, offline review up to three.
type Mode string

const (
	ModeLive    Mode = "live"
	ModeOffline Mode = "offline"
)

// Item is one ranked, user-facing feedback entry.
type Item struct {
	Pattern compensation.Pattern
	Score   float64
	Cue     string
}

// Reinforcement is the optional positive signal emitted when nothing
// is flagged and the primary angle trend beats the session baseline.
type Reinforcement struct {
	Cue             string
	BaselineDegrees float64
	RecentDegrees   float64
}

// Result is one tick's externally visible feedback.
type Result struct {
	Items         []Item
	Reinforcement *Reinforcement
}

// Ranker scores flagged patterns for one session. It accumulates
// per-rep history (which patterns recurred, peak primary angle) to
// drive the frequency bonus and the reinforcement trend.
type Ranker struct {
	cfg     Config
	primary exercise.Joint

	repKinds []map[compensation.Kind]bool
	repPeaks []float64
	baseline float64
	hasBase  bool
}

// NewRanker validates the weight table against the primary joint.
func NewRanker(primary exercise.Joint, cfg Config) (*Ranker, error) {
	if !exercise.KnownJoint(primary) {
		return nil, services.Wrap(services.ErrConfiguration, "feedback", "new ranker",
			"unknown primary joint "+string(primary), nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{cfg: cfg, primary: primary}, nil
}

// RecordRep logs one completed rep: its peak primary angle and the
// pattern kinds flagged at any point during it. The first rep's peak
// becomes the session baseline for the reinforcement trend.
func (r *Ranker) RecordRep(peakDegrees float64, kinds []compensation.Kind) {
	if !r.hasBase {
		r.baseline = peakDegrees
		r.hasBase = true
	}
	set := make(map[compensation.Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	r.repKinds = append(r.repKinds, set)
	r.repPeaks = append(r.repPeaks, peakDegrees)
}

// Rank scores the flagged patterns and returns at most the mode's
// top-N, ties broken by earliest detection. With nothing flagged it
// returns an empty list, plus a reinforcement signal when the recent
// rep peaks clear the session baseline by the configured margin.
func (r *Ranker) Rank(flagged []compensation.Pattern, mode Mode) Result {
	if len(flagged) == 0 {
		return Result{Reinforcement: r.reinforcement()}
	}

	items := make([]Item, 0, len(flagged))
	for _, p := range flagged {
		items = append(items, Item{
			Pattern: p,
			Score:   r.score(p),
			Cue:     Cue(p.Kind),
		})
	}
	// Detector output arrives ordered by detection time; a stable sort
	// on score keeps that as the tie-break.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if n := r.cfg.limit(mode); len(items) > n {
		items = items[:n]
	}
	return Result{Items: items}
}

func (r *Ranker) score(p compensation.Pattern) float64 {
	score := r.cfg.InjuryRisk[p.Kind]
	if p.Tier == compensation.TierCritical {
		score += r.cfg.CriticalWeight
	} else {
		score += r.cfg.WarningWeight
	}
	if r.recurrent(p.Kind) {
		score += r.cfg.FrequencyBonus
	}
	if Relevant(r.primary, p.Kind) {
		score += r.cfg.RelevanceBonus
	}
	return score
}

// recurrent reports whether the kind appeared in at least the
// configured fraction of the recent-rep window.
func (r *Ranker) recurrent(kind compensation.Kind) bool {
	window := r.repKinds
	if len(window) > r.cfg.RecentRepWindow {
		window = window[len(window)-r.cfg.RecentRepWindow:]
	}
	if len(window) < r.cfg.MinRepsForBonus {
		return false
	}
	hits := 0
	for _, set := range window {
		if set[kind] {
			hits++
		}
	}
	return float64(hits) >= r.cfg.FrequencyFraction*float64(len(window))
}

// reinforcement compares the mean of the recent rep peaks against the
// session baseline.
func (r *Ranker) reinforcement() *Reinforcement {
	if !r.hasBase || len(r.repPeaks) < 2 {
		return nil
	}
	recent := r.repPeaks
	if len(recent) > r.cfg.RecentRepWindow {
		recent = recent[len(recent)-r.cfg.RecentRepWindow:]
	}
	var sum float64
	for _, p := range recent {
		sum += p
	}
	mean := sum / float64(len(recent))
	if mean < r.baseline+r.cfg.ImprovementMarginDegrees {
		return nil
	}
	return &Reinforcement{
		Cue:             "Range of motion is improving, keep it up.",
		BaselineDegrees: r.baseline,
		RecentDegrees:   mean,
	}
}
