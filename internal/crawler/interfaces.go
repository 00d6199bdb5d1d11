package crawler

import "context"

// Browser is the page-fetching session driven by the crawl loop.
// It is used sequentially and must stay open for the whole crawl;
// the crawler neither creates nor closes it.
type Browser interface {
	// Fetch navigates to url and blocks until the page is loaded
	Fetch(ctx context.Context, url string) error
	// PageSource returns the HTML of the current page
	PageSource(ctx context.Context) (string, error)
	// CaptureSnapshot returns a PNG of the current page state
	CaptureSnapshot(ctx context.Context) ([]byte, error)
}

// DiagnosticsSink persists the state of the page that caused a fatal stop
type DiagnosticsSink interface {
	SaveDiagnostics(pageSource string, snapshot []byte) error
}

// VisitRecorder receives one Visit per loop iteration
type VisitRecorder interface {
	RecordVisit(v Visit) error
}
