package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Clinical tables are checked
// by the packages that consume them so the rules live in one place.
func (c *Config) Validate() error {
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateSmoothing(); err != nil {
		return err
	}
	if err := c.validateAnatomy(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateFeedback(); err != nil {
		return err
	}
	if err := c.validateRhythm(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSession() error {
	switch c.Session.Mode {
	case "offline", "live":
	default:
		return fmt.Errorf("session.mode must be offline or live, got %q", c.Session.Mode)
	}
	if c.Session.LiveIntervalMs <= 0 {
		return errors.New("session.live_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validateSmoothing() error {
	if c.Smoothing.MinCutoff <= 0 {
		return errors.New("smoothing.min_cutoff must be positive (Hz)")
	}
	if c.Smoothing.Beta <= 0 {
		return errors.New("smoothing.beta must be positive (zero disables the adaptive cutoff)")
	}
	if c.Smoothing.DerivCutoff <= 0 {
		return errors.New("smoothing.deriv_cutoff must be positive (Hz)")
	}
	return nil
}

func (c *Config) validateAnatomy() error {
	if c.Anatomy.ScapularOffsetDegrees < 30 || c.Anatomy.ScapularOffsetDegrees > 40 {
		return fmt.Errorf("anatomy.scapular_offset_degrees %.1f outside clinical range [30, 40]", c.Anatomy.ScapularOffsetDegrees)
	}
	if c.Anatomy.MinLandmarkConfidence < 0 || c.Anatomy.MinLandmarkConfidence > 1 {
		return errors.New("anatomy.min_landmark_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateDetection() error {
	if len(c.Detection.Patterns) == 0 {
		return errors.New("detection.patterns must define at least one threshold")
	}
	if err := c.DetectorConfig().Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	return nil
}

func (c *Config) validateFeedback() error {
	if err := c.FeedbackConfig().Validate(); err != nil {
		return fmt.Errorf("feedback: %w", err)
	}
	return nil
}

func (c *Config) validateRhythm() error {
	if c.Rhythm.TargetRatio <= 0 {
		return errors.New("rhythm.target_ratio must be positive")
	}
	if c.Rhythm.Tolerance < 0 || c.Rhythm.Tolerance >= c.Rhythm.TargetRatio {
		return errors.New("rhythm.tolerance must be non-negative and below the target ratio")
	}
	if c.Rhythm.MinElevationDegrees < 0 || c.Rhythm.MinElevationDegrees > 180 {
		return errors.New("rhythm.min_elevation_degrees must be between 0 and 180")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
