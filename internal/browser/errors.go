package browser

import "errors"

var (
	// ErrSnapshotUnsupported is returned by sessions that cannot render pages
	ErrSnapshotUnsupported = errors.New("visual snapshot not supported by this session")
	// ErrNoPage is returned when the session is inspected before any Fetch
	ErrNoPage = errors.New("no page loaded")
	// ErrElementNotFound is returned when no element has the requested id
	ErrElementNotFound = errors.New("element not found")
	// ErrUnexpectedStatus is returned when the service answers with an HTTP error
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrValidationTimeout is returned when a wait condition is not met in time
	ErrValidationTimeout = errors.New("timed out waiting for page")
)
