// Package crawler implements the frontier-driven crawl of registry lookup
// pages. Starting from seed references, it classifies each page as an ASN
// page or a net-block page, extracts address ranges, DNS names and further
// references, and stops when the frontier empties, the query quota runs
// out, or an unexpected failure occurs.
package crawler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/masahif/bgpscope/internal/config"
)

// Crawler runs the crawl loop over a single Browser session
type Crawler struct {
	session     Browser
	asn         *ASNExtractor
	rateLimiter *RateLimiter
	diagnostics DiagnosticsSink
	recorder    VisitRecorder
}

// NewCrawler creates a crawler for the service at cfg.BaseURL.
// The session must outlive every call to Crawl.
func NewCrawler(cfg *config.CrawlConfig, session Browser) (*Crawler, error) {
	if session == nil {
		return nil, errors.New("crawler: nil browser session")
	}

	asn, err := NewASNExtractor(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Crawler{
		session:     session,
		asn:         asn,
		rateLimiter: NewRateLimiter(cfg.RequestDelay),
	}, nil
}

// SetDiagnostics sets where the page state is saved on a fatal stop
func (c *Crawler) SetDiagnostics(sink DiagnosticsSink) {
	c.diagnostics = sink
}

// SetVisitRecorder sets the receiver of per-page visit records
func (c *Crawler) SetVisitRecorder(recorder VisitRecorder) {
	c.recorder = recorder
}

// RateLimiter exposes the limiter so callers can apply host-specific delays
func (c *Crawler) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// Crawl processes seeds and every reference discovered from them, one page
// at a time. The current reference is removed from the frontier only after
// it was handled; a rate-limit or fatal stop leaves it pending. Results
// gathered before the stop are always returned.
func (c *Crawler) Crawl(ctx context.Context, seeds []string) *Outcome {
	frontier := NewFrontier(seeds...)
	out := &Outcome{
		Results: NewResultSet(),
		Reason:  Exhausted,
	}

	slog.Info("Starting crawl", "seed_urls", frontier.Len())
	start := time.Now()
	seq := 0

	for frontier.Len() > 0 {
		if ctx.Err() != nil {
			out.Reason = Cancelled
			out.Cause = ctx.Err()
			break
		}

		ref, _ := frontier.Peek()
		kind := Classify(ref)
		seq++

		visit, err := c.processPage(ctx, ref, kind, frontier, out.Results)
		visit.Seq = seq
		if err != nil {
			if ctx.Err() != nil {
				out.Reason = Cancelled
				out.Cause = ctx.Err()
				break
			}
			c.handleFailure(ctx, &visit, err, out)
			c.record(visit)
			break
		}

		c.record(visit)
		out.PagesProcessed++
		frontier.Pop()
		slog.Info("Parsed page", "count", out.PagesProcessed, "url", ref, "kind", kind.String(), "pending", frontier.Len())
	}

	out.Pending = frontier.Pending()
	slog.Info("Crawl finished",
		"reason", out.Reason.String(),
		"pages", out.PagesProcessed,
		"address_ranges", len(out.Results.AddressRanges),
		"domain_names", len(out.Results.DomainNames),
		"pending", len(out.Pending),
		"duration", time.Since(start))

	return out
}

// processPage fetches ref, extracts it according to kind and commits each
// extracted item. A page carrying the query-limit notice commits nothing.
func (c *Crawler) processPage(ctx context.Context, ref string, kind PageKind, frontier *Frontier, results *ResultSet) (Visit, error) {
	visit := Visit{URL: ref, Kind: kind, VisitedAt: time.Now().UTC()}

	if err := c.rateLimiter.Wait(ctx, ref); err != nil {
		return visit, err
	}
	if err := c.session.Fetch(ctx, ref); err != nil {
		return visit, err
	}

	if kind == KindUnknown {
		slog.Warn("Unknown link type, cannot parse", "url", ref)
		visit.Outcome = VisitSkipped
		visit.Message = "unknown page shape"
		return visit, nil
	}

	source, err := c.session.PageSource(ctx)
	if err != nil {
		return visit, err
	}
	if ClassifyFailure(source) == FailureRateLimited {
		return visit, ErrQueryLimit
	}

	switch kind {
	case KindASN:
		page, err := c.asn.Extract(source)
		if err != nil {
			return visit, err
		}

		added := 0
		for _, link := range page.NetBlocks {
			results.AddAddressRange(link.AddressRange)
			if frontier.Push(link.URL) {
				added++
			}
		}
		visit.ContentHash = page.ContentHash
		slog.Debug("Extracted ASN page", "url", ref, "net_links", len(page.NetBlocks), "enqueued", added)

	case KindNetBlock:
		// the range and rows read before a failure are committed first
		page, err := ExtractNetBlock(ref, source)
		if page != nil {
			results.AddAddressRange(page.AddressRange)
			for _, name := range page.DomainNames() {
				if results.AddDomainName(name) {
					slog.Debug("Discovered new DNS name", "name", name, "url", ref)
				}
			}
		}
		if err != nil {
			return visit, err
		}

		if page.NoRecords {
			visit.Message = "no dns records"
		}
	}

	visit.Outcome = VisitProcessed
	return visit, nil
}

// handleFailure applies the failure policy to the page that raised err
func (c *Crawler) handleFailure(ctx context.Context, visit *Visit, err error, out *Outcome) {
	pageErr := &PageError{URL: visit.URL, Kind: visit.Kind, Err: err}
	out.Cause = pageErr
	visit.Message = err.Error()

	source, srcErr := c.session.PageSource(ctx)
	if srcErr != nil {
		slog.Warn("Failed to read current page source", "url", visit.URL, "error", srcErr)
	}

	if ClassifyFailure(source) == FailureRateLimited {
		slog.Warn("Query limit reached, stopping with partial results", "url", visit.URL, "processed", out.PagesProcessed)
		out.Reason = RateLimited
		visit.Outcome = VisitRateLimited
		return
	}

	slog.Error("Unexpected failure while processing page", "url", visit.URL, "kind", visit.Kind.String(), "error", err)
	out.Reason = Fatal
	visit.Outcome = VisitFailed
	out.DiagnosticsSaved = c.saveDiagnostics(ctx, source)
}

// saveDiagnostics stores the raw page and, when the session can render, a snapshot
func (c *Crawler) saveDiagnostics(ctx context.Context, source string) bool {
	if c.diagnostics == nil {
		return false
	}

	snapshot, err := c.session.CaptureSnapshot(ctx)
	if err != nil {
		slog.Warn("Visual snapshot unavailable", "error", err)
		snapshot = nil
	}

	if err := c.diagnostics.SaveDiagnostics(source, snapshot); err != nil {
		slog.Error("Failed to save diagnostics", "error", err)
		return false
	}
	return true
}

func (c *Crawler) record(visit Visit) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordVisit(visit); err != nil {
		slog.Error("Failed to record visit", "url", visit.URL, "error", err)
	}
}
