package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedReference is returned when a net-block URL has fewer than two path segments
	ErrMalformedReference = errors.New("reference does not end in address/prefix segments")
	// ErrDNSTableMissing is returned when a net-block page has no DNS table body
	ErrDNSTableMissing = errors.New("dns table not found")
	// ErrMalformedDNSRow is returned when a DNS table row lacks the PTR cell
	ErrMalformedDNSRow = errors.New("dns table row has too few cells")
	// ErrQueryLimit is returned when a fetched page is the quota notice
	ErrQueryLimit = errors.New("query limit page returned")
)

// PageError wraps a failure raised while fetching or extracting one page
type PageError struct {
	URL  string
	Kind PageKind
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s page %s: %v", e.Kind, e.URL, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }
