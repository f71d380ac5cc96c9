package compensation

import (
	"fmt"
	"time"

	"kinemetry/internal/services"
)

// Threshold is the research-tunable detection surface for one pattern
// kind. All angular metrics are in degrees. Warning opens a candidate,
// critical promotes severity; Persistence is the minimum sustained
// violation before a candidate is flagged, Cooldown the time below
// warning before a flagged pattern clears.
type Threshold struct {
	WarningDegrees  float64       `toml:"warning_degrees" json:"warningDegrees"`
	CriticalDegrees float64       `toml:"critical_degrees" json:"criticalDegrees"`
	Persistence     time.Duration `toml:"persistence" json:"persistence"`
	Cooldown        time.Duration `toml:"cooldown" json:"cooldown"`
}

func (t Threshold) validate(kind Kind) error {
	if t.WarningDegrees <= 0 {
		return fmt.Errorf("pattern %s: warning threshold %.1f must be positive", kind, t.WarningDegrees)
	}
	if t.CriticalDegrees <= t.WarningDegrees {
		return fmt.Errorf("pattern %s: critical threshold %.1f must exceed warning %.1f",
			kind, t.CriticalDegrees, t.WarningDegrees)
	}
	if t.Persistence <= 0 {
		return fmt.Errorf("pattern %s: persistence window must be positive", kind)
	}
	if t.Cooldown <= 0 {
		return fmt.Errorf("pattern %s: cooldown must be positive", kind)
	}
	return nil
}

// Config carries everything the detector needs beyond the exercise
// prescription. Thresholds must cover every watched pattern; missing
// or malformed entries are configuration errors at session start,
// never silently defaulted.
type Config struct {
	MinLandmarkConfidence float64            `toml:"min_landmark_confidence" json:"minLandmarkConfidence"`
	Thresholds            map[Kind]Threshold `toml:"thresholds" json:"thresholds"`
}

// DefaultConfig returns the clinically sourced starting thresholds.
// Trunk and pelvis drifts build slowly and get the long windows;
// hiking and valgus are fast events caught with short ones. Values
// follow the PhysioAssist tuning notes (trunk lean tolerance ~8 deg,
// valgus intervention at ~8 deg frontal-plane deviation).
func DefaultConfig() Config {
	return Config{
		MinLandmarkConfidence: 0.5,
		Thresholds: map[Kind]Threshold{
			TrunkLean:            {WarningDegrees: 8, CriticalDegrees: 15, Persistence: 400 * time.Millisecond, Cooldown: 500 * time.Millisecond},
			TrunkRotation:        {WarningDegrees: 10, CriticalDegrees: 20, Persistence: 400 * time.Millisecond, Cooldown: 500 * time.Millisecond},
			ShoulderHiking:       {WarningDegrees: 6, CriticalDegrees: 12, Persistence: 150 * time.Millisecond, Cooldown: 500 * time.Millisecond},
			ElbowFlexionComp:     {WarningDegrees: 15, CriticalDegrees: 30, Persistence: 250 * time.Millisecond, Cooldown: 500 * time.Millisecond},
			KneeValgus:           {WarningDegrees: 8, CriticalDegrees: 15, Persistence: 150 * time.Millisecond, Cooldown: 500 * time.Millisecond},
			HeelLift:             {WarningDegrees: 5, CriticalDegrees: 12, Persistence: 200 * time.Millisecond, Cooldown: 500 * time.Millisecond},
			PosteriorPelvicTilt:  {WarningDegrees: 8, CriticalDegrees: 15, Persistence: 400 * time.Millisecond, Cooldown: 500 * time.Millisecond},
			InsufficientDepth:    {WarningDegrees: 15, CriticalDegrees: 35, Persistence: 500 * time.Millisecond, Cooldown: 500 * time.Millisecond},
			ShoulderCompensation: {WarningDegrees: 20, CriticalDegrees: 40, Persistence: 300 * time.Millisecond, Cooldown: 500 * time.Millisecond},
			IncompleteExtension:  {WarningDegrees: 10, CriticalDegrees: 25, Persistence: 500 * time.Millisecond, Cooldown: 500 * time.Millisecond},
			WristDeviation:       {WarningDegrees: 25, CriticalDegrees: 40, Persistence: 250 * time.Millisecond, Cooldown: 500 * time.Millisecond},
		},
	}
}

// Validate rejects malformed clinical thresholds before a session runs.
func (c Config) Validate() error {
	if c.MinLandmarkConfidence < 0 || c.MinLandmarkConfidence > 1 {
		return services.Wrap(services.ErrConfiguration, "compensation", "validate config",
			fmt.Sprintf("min landmark confidence %.2f outside [0, 1]", c.MinLandmarkConfidence), nil)
	}
	for kind, thr := range c.Thresholds {
		if !KnownKind(kind) {
			return services.Wrap(services.ErrConfiguration, "compensation", "validate config",
				fmt.Sprintf("unknown pattern kind %q", kind), nil)
		}
		if err := thr.validate(kind); err != nil {
			return services.Wrap(services.ErrConfiguration, "compensation", "validate config", "", err)
		}
	}
	return nil
}
