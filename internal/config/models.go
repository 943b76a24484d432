package config

import (
	"fmt"
	"time"
)

// CurrentVersion is the config file format version
const CurrentVersion = 1

// Config holds the defaults a provisioning run starts from
type Config struct {
	Version        int           `yaml:"version"`
	Address        string        `yaml:"address,omitempty"`   // empty means the device default
	WelcomeTimeout time.Duration `yaml:"welcome_timeout"`     // bound on the welcome page fetch
	RequestTimeout time.Duration `yaml:"request_timeout"`     // bound on later exchanges, 0 = none
	StrictStatus   bool          `yaml:"strict_status"`       // fail on non-2xx answers
	CheckAddress   bool          `yaml:"check_address"`       // print the local address before the run
	LogLevel       string        `yaml:"log_level,omitempty"` // debug, info, warn, error
	ScanTimeout    time.Duration `yaml:"scan_timeout"`        // mDNS browse duration
	// The admin password is never stored
}

// Default returns the built-in defaults
func Default() *Config {
	return &Config{
		Version:        CurrentVersion,
		WelcomeTimeout: 5 * time.Second,
		RequestTimeout: 0,
		ScanTimeout:    5 * time.Second,
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	if c.WelcomeTimeout <= 0 {
		return fmt.Errorf("welcome_timeout must be positive, got %s", c.WelcomeTimeout)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	if c.ScanTimeout < 0 {
		return fmt.Errorf("scan_timeout must not be negative, got %s", c.ScanTimeout)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
