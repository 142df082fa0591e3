// Package config provides configuration management for the Reelcut Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8795
	DefaultLogLevel = "info"
	DefaultDataDir  = ".reelcut"

	// Environment variable names
	EnvPort     = "REELCUT_PORT"
	EnvLogLevel = "REELCUT_LOG_LEVEL"
	EnvDataDir  = "REELCUT_DATA_DIR"
	EnvHeadless = "REELCUT_HEADLESS"
	EnvWatchDir = "REELCUT_WATCH_DIR"

	// Probe environment variable names
	EnvFFprobePath   = "REELCUT_FFPROBE_PATH"
	EnvProbeTimeout  = "REELCUT_PROBE_TIMEOUT_S"
	EnvProbeParallel = "REELCUT_PROBE_PARALLEL"

	// Database filename
	DBFilename = "reelcut.db"

	// Probe defaults
	DefaultProbeTimeout  = 30 // seconds
	DefaultProbeParallel = 4
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	Headless() bool
	WatchDir() string
	FFprobePath() string
	ProbeTimeout() time.Duration
	ProbeParallel() int
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port          int
	logLevel      string
	dataDir       string
	headless      bool
	watchDir      string
	ffprobePath   string
	probeTimeout  time.Duration
	probeParallel int
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:          DefaultPort,
		logLevel:      DefaultLogLevel,
		dataDir:       defaultDataDir(),
		probeTimeout:  DefaultProbeTimeout * time.Second,
		probeParallel: DefaultProbeParallel,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h == "1" || h == "true" {
		cfg.headless = true
	}

	cfg.watchDir = os.Getenv(EnvWatchDir)
	cfg.ffprobePath = os.Getenv(EnvFFprobePath)

	if pt := os.Getenv(EnvProbeTimeout); pt != "" {
		seconds, err := strconv.Atoi(pt)
		if err != nil || seconds < 1 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvProbeTimeout)
		}
		cfg.probeTimeout = time.Duration(seconds) * time.Second
	}

	if pp := os.Getenv(EnvProbeParallel); pp != "" {
		n, err := strconv.Atoi(pp)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvProbeParallel)
		}
		cfg.probeParallel = n
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// Headless reports whether the agent runs without a system tray
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// WatchDir returns the recordings directory watched for new captures,
// or "" when watching is disabled
func (c *EnvConfig) WatchDir() string {
	return c.watchDir
}

// FFprobePath returns an explicit ffprobe binary path, or "" to use PATH
func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

// ProbeTimeout returns the per-recording probe timeout
func (c *EnvConfig) ProbeTimeout() time.Duration {
	return c.probeTimeout
}

// ProbeParallel returns how many recordings may be probed concurrently
func (c *EnvConfig) ProbeParallel() int {
	return c.probeParallel
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
