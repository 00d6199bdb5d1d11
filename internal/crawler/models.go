package crawler

import "time"

// PageKind is the shape of a lookup page, inferred from its URL
type PageKind int

const (
	KindUnknown PageKind = iota
	KindASN
	KindNetBlock
)

func (k PageKind) String() string {
	switch k {
	case KindASN:
		return "asn"
	case KindNetBlock:
		return "netblock"
	default:
		return "unknown"
	}
}

// ParsePageKind is the inverse of PageKind.String
func ParsePageKind(s string) PageKind {
	switch s {
	case "asn":
		return KindASN
	case "netblock":
		return KindNetBlock
	default:
		return KindUnknown
	}
}

// TerminationReason tells the caller why Crawl returned
type TerminationReason int

const (
	// Exhausted means the frontier emptied normally
	Exhausted TerminationReason = iota
	// RateLimited means the service reported the query quota was used up
	RateLimited
	// Fatal means an unexpected failure; results are valid but incomplete
	// and a diagnostic snapshot was attempted
	Fatal
	// Cancelled means the context was cancelled between or during fetches
	Cancelled
)

func (r TerminationReason) String() string {
	switch r {
	case Exhausted:
		return "exhausted"
	case RateLimited:
		return "rate_limited"
	case Fatal:
		return "fatal"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of one crawl
type Outcome struct {
	Results          *ResultSet
	Reason           TerminationReason
	PagesProcessed   int
	Cause            error    // Failure that ended the crawl, nil when Exhausted
	Pending          []string // References left unconsumed
	DiagnosticsSaved bool
}

// Visit outcomes recorded for each page
const (
	VisitProcessed   = "processed"
	VisitSkipped     = "skipped"
	VisitRateLimited = "rate_limited"
	VisitFailed      = "failed"
)

// Visit describes one pass of the crawl loop over a page reference
type Visit struct {
	Seq         int
	URL         string
	Kind        PageKind
	Outcome     string
	Message     string
	ContentHash string
	VisitedAt   time.Time
}
