package crawler

import "strings"

// QueryLimitSentinel appears in the page once the query quota is exhausted
const QueryLimitSentinel = "You have reached your query limit"

// FailureKind classifies a failure raised while processing a page
type FailureKind int

const (
	// FailureUnknown is fatal: capture diagnostics and stop
	FailureUnknown FailureKind = iota
	// FailureRateLimited is terminal: stop and keep the results
	FailureRateLimited
)

func (k FailureKind) String() string {
	if k == FailureRateLimited {
		return "rate_limited"
	}
	return "unknown"
}

// ClassifyFailure decides how a page failure ends the crawl from the content
// of the page that was current when it happened. Nothing is retried.
func ClassifyFailure(pageContent string) FailureKind {
	if strings.Contains(pageContent, QueryLimitSentinel) {
		return FailureRateLimited
	}
	return FailureUnknown
}
