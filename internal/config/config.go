// Package config provides configuration management for bgpscope.
// It defines configuration structures and default values for a lookup run.
package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// AppName is used for XDG directory names and the config file name
const AppName = "bgpscope"

// Browser kinds understood by the session factory
const (
	BrowserHTTP   = "http"
	BrowserChrome = "chrome"
)

// LogConfig holds logging settings
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error
	File       string `mapstructure:"file" yaml:"file"`               // Optional log file with rotation
	Format     string `mapstructure:"format" yaml:"format"`           // json or text
	MaxSize    int64  `mapstructure:"max_size" yaml:"max_size"`       // MB before rotation
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"` // Rotated files kept
}

// CrawlConfig holds the configuration of one lookup run
type CrawlConfig struct {
	// Lookup target
	Company      string `mapstructure:"company" yaml:"company"`             // Organization searched on the service
	OutputPrefix string `mapstructure:"output_prefix" yaml:"output_prefix"` // Writes <prefix>.ips.txt and <prefix>.domains.txt
	BaseURL      string `mapstructure:"base_url" yaml:"base_url"`           // Origin of the routing registry service

	// Page fetching
	Browser           string        `mapstructure:"browser" yaml:"browser"`                       // "http" or "chrome"
	ChromePath        string        `mapstructure:"chrome_path" yaml:"chrome_path"`               // Chrome binary, empty for autodetect
	Headless          bool          `mapstructure:"headless" yaml:"headless"`                     // Run Chrome without a window
	RequestDelay      time.Duration `mapstructure:"request_delay" yaml:"request_delay"`           // Delay between page fetches
	RequestTimeout    time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`       // Per-page fetch timeout
	ValidationTimeout time.Duration `mapstructure:"validation_timeout" yaml:"validation_timeout"` // Max wait for the browser check
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`           // Re-check interval while validating
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`                 // User-Agent header
	RespectRobots     bool          `mapstructure:"respect_robots" yaml:"respect_robots"`         // Honor robots.txt Crawl-delay

	// Scope selection
	AssumeYes bool `mapstructure:"assume_yes" yaml:"assume_yes"` // Accept every candidate without prompting

	// Outputs
	DatabasePath   string `mapstructure:"database_path" yaml:"database_path"`     // Run history, empty disables it
	DiagnosticsDir string `mapstructure:"diagnostics_dir" yaml:"diagnostics_dir"` // debug.html / debug.png location
	ReportPath     string `mapstructure:"report_path" yaml:"report_path"`         // Optional markdown report

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *CrawlConfig {
	return &CrawlConfig{
		BaseURL:           "https://bgp.he.net",
		Browser:           BrowserHTTP,
		Headless:          true,
		RequestDelay:      1 * time.Second,
		RequestTimeout:    30 * time.Second,
		ValidationTimeout: 2 * time.Minute,
		PollInterval:      5 * time.Second,
		UserAgent:         "bgpscope/1.0",
		RespectRobots:     true,
		DatabasePath:      DefaultDatabasePath(),
		DiagnosticsDir:    ".",
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSize:    100,
			MaxBackups: 5,
		},
	}
}

// DefaultDatabasePath returns the run history location under the XDG data home
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, AppName, "history.db")
}

// ConfigDir returns the XDG config directory searched for bgpscope.yml
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid
func (c *CrawlConfig) Validate() error {
	if c.Company == "" {
		return ErrNoCompany
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.ValidationTimeout <= 0 {
		return ErrInvalidValidationTimeout
	}

	switch c.Browser {
	case BrowserHTTP, BrowserChrome:
	default:
		return ErrUnknownBrowser
	}

	// The service throttles aggressively; keep a floor between fetches
	if c.RequestDelay < 100*time.Millisecond {
		c.RequestDelay = 100 * time.Millisecond
	}

	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}

	if c.DiagnosticsDir == "" {
		return ErrEmptyDiagnosticsDir
	}

	return nil
}
