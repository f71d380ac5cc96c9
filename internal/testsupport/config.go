package testsupport

import (
	"path/filepath"
	"testing"

	"kinemetry/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It starts from repository defaults and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Store.Path = filepath.Join(base, "data", "kinemetry.db")
	cfg.Daemon.Bind = "127.0.0.1:0"
	cfg.Daemon.LockPath = filepath.Join(base, "kinemetryd.lock")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithMode sets the default session mode on the test config.
func WithMode(mode string) ConfigOption {
	return func(c *config.Config) {
		c.Session.Mode = mode
	}
}

// WithLiveIntervalMs overrides the live feedback throttle.
func WithLiveIntervalMs(ms int) ConfigOption {
	return func(c *config.Config) {
		c.Session.LiveIntervalMs = ms
	}
}
