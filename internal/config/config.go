package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/compensation"
	"kinemetry/internal/feedback"
	"kinemetry/internal/measurement"
	"kinemetry/internal/smoothing"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Store contains configuration for the SQLite session store.
type Store struct {
	Path          string `toml:"path"`
	BusyTimeoutMs int    `toml:"busy_timeout_ms"`
}

// Daemon contains configuration for kinemetryd.
type Daemon struct {
	Bind     string `toml:"bind"`
	LockPath string `toml:"lock_path"`
}

// Session contains per-session pipeline timing.
type Session struct {
	Mode           string `toml:"mode"`
	LiveIntervalMs int    `toml:"live_interval_ms"`
}

// Smoothing contains One-Euro filter tuning shared by all tracked signals.
type Smoothing struct {
	MinCutoff   float64 `toml:"min_cutoff"`
	Beta        float64 `toml:"beta"`
	DerivCutoff float64 `toml:"deriv_cutoff"`
}

// Anatomy contains reference-frame construction settings.
type Anatomy struct {
	ScapularOffsetDegrees float64 `toml:"scapular_offset_degrees"`
	MinLandmarkConfidence float64 `toml:"min_landmark_confidence"`
}

// PatternThreshold is the TOML shape of one compensation threshold entry.
// Durations are integer milliseconds.
type PatternThreshold struct {
	WarningDegrees  float64 `toml:"warning_degrees"`
	CriticalDegrees float64 `toml:"critical_degrees"`
	PersistenceMs   int     `toml:"persistence_ms"`
	CooldownMs      int     `toml:"cooldown_ms"`
}

// Detection contains the compensation detector tuning.
type Detection struct {
	MinLandmarkConfidence float64                     `toml:"min_landmark_confidence"`
	Patterns              map[string]PatternThreshold `toml:"patterns"`
}

// Feedback contains the prioritization weights.
type Feedback struct {
	InjuryRisk               map[string]float64 `toml:"injury_risk"`
	WarningWeight            float64            `toml:"warning_weight"`
	CriticalWeight           float64            `toml:"critical_weight"`
	FrequencyBonus           float64            `toml:"frequency_bonus"`
	FrequencyFraction        float64            `toml:"frequency_fraction"`
	RecentRepWindow          int                `toml:"recent_rep_window"`
	MinRepsForBonus          int                `toml:"min_reps_for_bonus"`
	RelevanceBonus           float64            `toml:"relevance_bonus"`
	TopNOffline              int                `toml:"top_n_offline"`
	TopNLive                 int                `toml:"top_n_live"`
	ImprovementMarginDegrees float64            `toml:"improvement_margin_degrees"`
}

// Rhythm contains the scapulohumeral rhythm target.
type Rhythm struct {
	TargetRatio         float64 `toml:"target_ratio"`
	Tolerance           float64 `toml:"tolerance"`
	MinElevationDegrees float64 `toml:"min_elevation_degrees"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for kinemetry.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Store: SQLite database location and busy handling
//   - Daemon: kinemetryd bind address and lock file
//   - Session: default mode and live feedback throttle
//   - Smoothing: One-Euro filter tuning
//   - Anatomy: reference-frame construction settings
//   - Detection: per-pattern compensation thresholds
//   - Feedback: prioritization weights and caps
//   - Rhythm: scapulohumeral rhythm target and band
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Store     Store     `toml:"store"`
	Daemon    Daemon    `toml:"daemon"`
	Session   Session   `toml:"session"`
	Smoothing Smoothing `toml:"smoothing"`
	Anatomy   Anatomy   `toml:"anatomy"`
	Detection Detection `toml:"detection"`
	Feedback  Feedback  `toml:"feedback"`
	Rhythm    Rhythm    `toml:"rhythm"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kinemetry/config.toml")
}

// Load locates, parses, and validates a configuration file. Resolution
// order: explicit path, the KINEMETRY_CONFIG environment variable, the
// default location, then a project-local kinemetry.toml. The returned
// config has all path fields expanded and normalized. A missing file is not
// an error: defaults apply and exists reports false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("KINEMETRY_CONFIG"))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/kinemetry/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kinemetry.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs to run.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, filepath.Dir(c.Store.Path), filepath.Dir(c.Daemon.LockPath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SmoothingParams converts the TOML section into filter tuning.
func (c *Config) SmoothingParams() smoothing.Params {
	return smoothing.Params{
		MinCutoff:   c.Smoothing.MinCutoff,
		Beta:        c.Smoothing.Beta,
		DerivCutoff: c.Smoothing.DerivCutoff,
	}
}

// BuilderConfig converts the anatomy section into builder configuration.
func (c *Config) BuilderConfig() anatomy.BuilderConfig {
	return anatomy.BuilderConfig{
		MinLandmarkConfidence: c.Anatomy.MinLandmarkConfidence,
		ScapularOffsetDegrees: c.Anatomy.ScapularOffsetDegrees,
	}
}

// DetectorConfig converts the detection section into the compensation
// detector's threshold table.
func (c *Config) DetectorConfig() compensation.Config {
	thresholds := make(map[compensation.Kind]compensation.Threshold, len(c.Detection.Patterns))
	for name, t := range c.Detection.Patterns {
		thresholds[compensation.Kind(name)] = compensation.Threshold{
			WarningDegrees:  t.WarningDegrees,
			CriticalDegrees: t.CriticalDegrees,
			Persistence:     time.Duration(t.PersistenceMs) * time.Millisecond,
			Cooldown:        time.Duration(t.CooldownMs) * time.Millisecond,
		}
	}
	return compensation.Config{
		MinLandmarkConfidence: c.Detection.MinLandmarkConfidence,
		Thresholds:            thresholds,
	}
}

// FeedbackConfig converts the feedback section into ranking weights.
func (c *Config) FeedbackConfig() feedback.Config {
	risk := make(map[compensation.Kind]float64, len(c.Feedback.InjuryRisk))
	for name, w := range c.Feedback.InjuryRisk {
		risk[compensation.Kind(name)] = w
	}
	return feedback.Config{
		InjuryRisk:               risk,
		WarningWeight:            c.Feedback.WarningWeight,
		CriticalWeight:           c.Feedback.CriticalWeight,
		FrequencyBonus:           c.Feedback.FrequencyBonus,
		FrequencyFraction:        c.Feedback.FrequencyFraction,
		RecentRepWindow:          c.Feedback.RecentRepWindow,
		MinRepsForBonus:          c.Feedback.MinRepsForBonus,
		RelevanceBonus:           c.Feedback.RelevanceBonus,
		TopNOffline:              c.Feedback.TopNOffline,
		TopNLive:                 c.Feedback.TopNLive,
		ImprovementMarginDegrees: c.Feedback.ImprovementMarginDegrees,
	}
}

// RhythmConfig converts the rhythm section into analyzer configuration.
func (c *Config) RhythmConfig() measurement.RhythmConfig {
	return measurement.RhythmConfig{
		TargetRatio:         c.Rhythm.TargetRatio,
		Tolerance:           c.Rhythm.Tolerance,
		MinElevationDegrees: c.Rhythm.MinElevationDegrees,
	}
}

// Mode returns the configured default feedback mode.
func (c *Config) Mode() feedback.Mode {
	return feedback.Mode(c.Session.Mode)
}

// LiveInterval returns the live feedback throttle as a duration.
func (c *Config) LiveInterval() time.Duration {
	return time.Duration(c.Session.LiveIntervalMs) * time.Millisecond
}

// BusyTimeout returns the store busy timeout as a duration.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.Store.BusyTimeoutMs) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
