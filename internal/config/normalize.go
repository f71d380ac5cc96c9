package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSession()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = defaultStorePath
	}
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	if c.Store.BusyTimeoutMs <= 0 {
		c.Store.BusyTimeoutMs = defaultBusyTimeoutMs
	}
	c.Daemon.Bind = strings.TrimSpace(c.Daemon.Bind)
	if c.Daemon.Bind == "" {
		c.Daemon.Bind = defaultDaemonBind
	}
	if strings.TrimSpace(c.Daemon.LockPath) == "" {
		c.Daemon.LockPath = defaultLockPath
	}
	if c.Daemon.LockPath, err = expandPath(c.Daemon.LockPath); err != nil {
		return fmt.Errorf("daemon.lock_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSession() {
	c.Session.Mode = strings.ToLower(strings.TrimSpace(c.Session.Mode))
	if c.Session.Mode == "" {
		c.Session.Mode = defaultSessionMode
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
