package session

import "kinemetry/internal/config"

// OptionsFromConfig assembles pipeline options from a loaded
// configuration file. Tracker thresholds stay zero so New can fill
// them from the exercise prescription.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Mode:             cfg.Mode(),
		LiveTickInterval: cfg.LiveInterval(),
		Smoothing:        cfg.SmoothingParams(),
		Builder:          cfg.BuilderConfig(),
		Detector:         cfg.DetectorConfig(),
		Feedback:         cfg.FeedbackConfig(),
		Rhythm:           cfg.RhythmConfig(),
	}
}
