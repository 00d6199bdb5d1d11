package config

import "errors"

var (
	// ErrNoCompany is returned when no company name is provided
	ErrNoCompany = errors.New("company is required")
	// ErrInvalidBaseURL is returned when base_url is not an absolute http(s) URL
	ErrInvalidBaseURL = errors.New("base_url must be an absolute http or https URL")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidValidationTimeout is returned when validation timeout is not greater than 0
	ErrInvalidValidationTimeout = errors.New("validation_timeout must be greater than 0")
	// ErrUnknownBrowser is returned when browser is neither "http" nor "chrome"
	ErrUnknownBrowser = errors.New("browser must be 'http' or 'chrome'")
	// ErrEmptyDiagnosticsDir is returned when diagnostics_dir is empty
	ErrEmptyDiagnosticsDir = errors.New("diagnostics_dir cannot be empty")
)
