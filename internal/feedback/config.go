package feedback

import (
	"fmt"

	"kinemetry/internal/compensation"
	"kinemetry/internal/services"
)

// Config holds the research-tunable prioritization weights. Like the
// detector thresholds these are clinical values: a malformed table
// fails session construction rather than falling back to defaults.
type Config struct {
	// InjuryRisk weights each pattern kind by the harm of letting it
	// continue uncorrected.
	InjuryRisk map[compensation.Kind]float64 `toml:"injury_risk" json:"injuryRisk"`

	// TierWeight scores the currently exceeded threshold tier.
	WarningWeight  float64 `toml:"warning_weight" json:"warningWeight"`
	CriticalWeight float64 `toml:"critical_weight" json:"criticalWeight"`

	// FrequencyBonus is added when a pattern recurred in at least
	// FrequencyFraction of the recent-rep window.
	FrequencyBonus    float64 `toml:"frequency_bonus" json:"frequencyBonus"`
	FrequencyFraction float64 `toml:"frequency_fraction" json:"frequencyFraction"`
	RecentRepWindow   int     `toml:"recent_rep_window" json:"recentRepWindow"`
	MinRepsForBonus   int     `toml:"min_reps_for_bonus" json:"minRepsForBonus"`

	// RelevanceBonus is added when the relationship table links the
	// pattern to the session's primary joint.
	RelevanceBonus float64 `toml:"relevance_bonus" json:"relevanceBonus"`

	// Top-N caps per mode.
	TopNOffline int `toml:"top_n_offline" json:"topNOffline"`
	TopNLive    int `toml:"top_n_live" json:"topNLive"`

	// ImprovementMarginDegrees is how far recent rep peaks must exceed
	// the session baseline before reinforcement fires.
	ImprovementMarginDegrees float64 `toml:"improvement_margin_degrees" json:"improvementMarginDegrees"`
}

// DefaultConfig seeds the weights used in the PhysioAssist tuning
// notes: ligament-loading patterns (valgus, pelvic tilt) carry the
// highest risk, range-shortfall patterns the lowest.
func DefaultConfig() Config {
	return Config{
		InjuryRisk: map[compensation.Kind]float64{
			compensation.TrunkLean:            1.5,
			compensation.TrunkRotation:        1.5,
			compensation.ShoulderHiking:       2.0,
			compensation.ElbowFlexionComp:     1.0,
			compensation.KneeValgus:           3.0,
			compensation.HeelLift:             1.0,
			compensation.PosteriorPelvicTilt:  2.5,
			compensation.InsufficientDepth:    0.5,
			compensation.ShoulderCompensation: 1.0,
			compensation.IncompleteExtension:  0.5,
			compensation.WristDeviation:       1.0,
		},
		WarningWeight:            1.0,
		CriticalWeight:           2.5,
		FrequencyBonus:           1.0,
		FrequencyFraction:        0.8,
		RecentRepWindow:          5,
		MinRepsForBonus:          3,
		RelevanceBonus:           1.5,
		TopNOffline:              3,
		TopNLive:                 1,
		ImprovementMarginDegrees: 3,
	}
}

// Validate rejects malformed weight tables at session construction.
func (c Config) Validate() error {
	fail := func(msg string) error {
		return services.Wrap(services.ErrConfiguration, "feedback", "validate config", msg, nil)
	}
	for kind, w := range c.InjuryRisk {
		if !compensation.KnownKind(kind) {
			return fail(fmt.Sprintf("injury risk for unknown pattern kind %q", kind))
		}
		if w < 0 {
			return fail(fmt.Sprintf("negative injury risk for %s", kind))
		}
	}
	if c.WarningWeight < 0 || c.CriticalWeight < c.WarningWeight {
		return fail("tier weights must satisfy 0 <= warning <= critical")
	}
	if c.FrequencyBonus < 0 || c.RelevanceBonus < 0 {
		return fail("bonuses must be non-negative")
	}
	if c.FrequencyFraction <= 0 || c.FrequencyFraction > 1 {
		return fail(fmt.Sprintf("frequency fraction %.2f outside (0, 1]", c.FrequencyFraction))
	}
	if c.RecentRepWindow < 1 || c.MinRepsForBonus < 1 {
		return fail("rep windows must be at least 1")
	}
	if c.TopNOffline < 1 || c.TopNLive < 1 {
		return fail("top-N caps must be at least 1")
	}
	if c.ImprovementMarginDegrees < 0 {
		return fail("improvement margin must be non-negative")
	}
	return nil
}

// limit returns the top-N cap for the mode.
func (c Config) limit(mode Mode) int {
	if mode == ModeLive {
		return c.TopNLive
	}
	return c.TopNOffline
}
