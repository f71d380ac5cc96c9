package config

import (
	"kinemetry/internal/compensation"
	"kinemetry/internal/feedback"
	"kinemetry/internal/measurement"
	"kinemetry/internal/smoothing"
)

const (
	defaultDataDir        = "~/.local/share/kinemetry"
	defaultLogDir         = "~/.local/share/kinemetry/logs"
	defaultStorePath      = "~/.local/share/kinemetry/kinemetry.db"
	defaultBusyTimeoutMs  = 5000
	defaultDaemonBind     = "127.0.0.1:7371"
	defaultLockPath       = "~/.local/share/kinemetry/kinemetryd.lock"
	defaultSessionMode    = "offline"
	defaultLiveIntervalMs = 500
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"

	defaultScapularOffsetDegrees = 35
	defaultMinLandmarkConfidence = 0.5
)

// Default returns a Config populated with repository defaults. The clinical
// tables start from the package-level defaults of the detection and feedback
// stages so there is a single source of truth for threshold values.
func Default() Config {
	detection := compensation.DefaultConfig()
	patterns := make(map[string]PatternThreshold, len(detection.Thresholds))
	for kind, t := range detection.Thresholds {
		patterns[string(kind)] = PatternThreshold{
			WarningDegrees:  t.WarningDegrees,
			CriticalDegrees: t.CriticalDegrees,
			PersistenceMs:   int(t.Persistence.Milliseconds()),
			CooldownMs:      int(t.Cooldown.Milliseconds()),
		}
	}

	ranking := feedback.DefaultConfig()
	risk := make(map[string]float64, len(ranking.InjuryRisk))
	for kind, w := range ranking.InjuryRisk {
		risk[string(kind)] = w
	}

	filter := smoothing.DefaultParams()
	rhythm := measurement.DefaultRhythmConfig()

	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Store: Store{
			Path:          defaultStorePath,
			BusyTimeoutMs: defaultBusyTimeoutMs,
		},
		Daemon: Daemon{
			Bind:     defaultDaemonBind,
			LockPath: defaultLockPath,
		},
		Session: Session{
			Mode:           defaultSessionMode,
			LiveIntervalMs: defaultLiveIntervalMs,
		},
		Smoothing: Smoothing{
			MinCutoff:   filter.MinCutoff,
			Beta:        filter.Beta,
			DerivCutoff: filter.DerivCutoff,
		},
		Anatomy: Anatomy{
			ScapularOffsetDegrees: defaultScapularOffsetDegrees,
			MinLandmarkConfidence: defaultMinLandmarkConfidence,
		},
		Detection: Detection{
			MinLandmarkConfidence: detection.MinLandmarkConfidence,
			Patterns:              patterns,
		},
		Feedback: Feedback{
			InjuryRisk:               risk,
			WarningWeight:            ranking.WarningWeight,
			CriticalWeight:           ranking.CriticalWeight,
			FrequencyBonus:           ranking.FrequencyBonus,
			FrequencyFraction:        ranking.FrequencyFraction,
			RecentRepWindow:          ranking.RecentRepWindow,
			MinRepsForBonus:          ranking.MinRepsForBonus,
			RelevanceBonus:           ranking.RelevanceBonus,
			TopNOffline:              ranking.TopNOffline,
			TopNLive:                 ranking.TopNLive,
			ImprovementMarginDegrees: ranking.ImprovementMarginDegrees,
		},
		Rhythm: Rhythm{
			TargetRatio:         rhythm.TargetRatio,
			Tolerance:           rhythm.Tolerance,
			MinElevationDegrees: rhythm.MinElevationDegrees,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
