package crawler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"reflect"
	"testing"

	"github.com/masahif/bgpscope/internal/config"
)

func init() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError + 1,
	}))
	slog.SetDefault(logger)
}

// fakeBrowser serves canned pages. A failing fetch still makes its page current.
type fakeBrowser struct {
	pages       map[string]string
	fetchErrs   map[string]error
	snapshot    []byte
	snapshotErr error

	current string
	fetched []string
}

func (b *fakeBrowser) Fetch(ctx context.Context, url string) error {
	b.fetched = append(b.fetched, url)
	b.current = b.pages[url]
	return b.fetchErrs[url]
}

func (b *fakeBrowser) PageSource(ctx context.Context) (string, error) {
	return b.current, nil
}

func (b *fakeBrowser) CaptureSnapshot(ctx context.Context) ([]byte, error) {
	return b.snapshot, b.snapshotErr
}

type fakeSink struct {
	calls    int
	source   string
	snapshot []byte
}

func (s *fakeSink) SaveDiagnostics(pageSource string, snapshot []byte) error {
	s.calls++
	s.source = pageSource
	s.snapshot = snapshot
	return nil
}

type fakeRecorder struct {
	visits []Visit
}

func (r *fakeRecorder) RecordVisit(v Visit) error {
	r.visits = append(r.visits, v)
	return nil
}

const (
	asn1234 = testBaseURL + "/AS1234"
	asn5678 = testBaseURL + "/AS5678"
	net0    = testBaseURL + "/net/10.0.0.0/24"
	net1    = testBaseURL + "/net/10.0.1.0/24"
)

func asnHTML(hrefs ...string) string {
	s := "<html><body><table><tbody>"
	for _, h := range hrefs {
		s += `<tr><td><a href="` + h + `">` + h + `</a></td></tr>`
	}
	return s + "</tbody></table></body></html>"
}

func dnsRow(ip, ptr, a string) string {
	cell := func(name string) string {
		if name == "" {
			return "<td></td>"
		}
		return `<td><a href="/dns/` + name + `">` + name + `</a></td>`
	}
	return "<tr><td>" + ip + "</td>" + cell(ptr) + cell(a) + "</tr>"
}

const noDNS = "<html><body><div id=\"dns\">No DNS Records Found</div></body></html>"

func newTestCrawler(t *testing.T, b *fakeBrowser) *Crawler {
	t.Helper()
	c, err := NewCrawler(&config.CrawlConfig{BaseURL: testBaseURL}, b)
	if err != nil {
		t.Fatalf("NewCrawler failed: %v", err)
	}
	return c
}

func TestNewCrawlerRequiresSession(t *testing.T) {
	if _, err := NewCrawler(&config.CrawlConfig{BaseURL: testBaseURL}, nil); err == nil {
		t.Errorf("Expected error for nil session")
	}
}

func TestCrawlASNToNetBlocks(t *testing.T) {
	b := &fakeBrowser{pages: map[string]string{
		asn1234: asnHTML("/net/10.0.0.0/24", "/net/10.0.1.0/24"),
		net0:    dnsPage(dnsRow("10.0.0.1", "", "host.example.com")),
		net1:    noDNS,
	}}
	c := newTestCrawler(t, b)
	rec := &fakeRecorder{}
	c.SetVisitRecorder(rec)

	out := c.Crawl(context.Background(), []string{asn1234})

	if out.Reason != Exhausted {
		t.Fatalf("Reason = %v, want exhausted (cause %v)", out.Reason, out.Cause)
	}
	if out.PagesProcessed != 3 {
		t.Errorf("PagesProcessed = %d, want 3", out.PagesProcessed)
	}
	if want := []string{"10.0.0.0/24", "10.0.1.0/24"}; !reflect.DeepEqual(out.Results.AddressRanges, want) {
		t.Errorf("AddressRanges = %v, want %v", out.Results.AddressRanges, want)
	}
	if want := []string{"host.example.com"}; !reflect.DeepEqual(out.Results.DomainNames, want) {
		t.Errorf("DomainNames = %v, want %v", out.Results.DomainNames, want)
	}
	if want := []string{asn1234, net0, net1}; !reflect.DeepEqual(b.fetched, want) {
		t.Errorf("Fetch order = %v, want %v", b.fetched, want)
	}
	if len(out.Pending) != 0 {
		t.Errorf("Pending = %v, want none", out.Pending)
	}

	if len(rec.visits) != 3 {
		t.Fatalf("Expected 3 recorded visits, got %d", len(rec.visits))
	}
	for i, v := range rec.visits {
		if v.Seq != i+1 || v.Outcome != VisitProcessed {
			t.Errorf("visit %d = %+v", i, v)
		}
	}
	if rec.visits[2].Message != "no dns records" {
		t.Errorf("Expected no-records message on %s, got %q", net1, rec.visits[2].Message)
	}
}

func TestProcessASNPageGrowsFrontier(t *testing.T) {
	// 4 /net/ anchors: one repeats within the page, one is already pending
	b := &fakeBrowser{pages: map[string]string{
		asn1234: asnHTML("/net/10.0.0.0/24", "/net/10.0.1.0/24", "/net/10.0.0.0/24", "/net/10.0.2.0/24"),
	}}
	c := newTestCrawler(t, b)

	frontier := NewFrontier(asn1234, net1)
	results := NewResultSet()

	visit, err := c.processPage(context.Background(), asn1234, KindASN, frontier, results)
	if err != nil {
		t.Fatalf("processPage failed: %v", err)
	}
	if visit.Outcome != VisitProcessed {
		t.Errorf("Outcome = %q", visit.Outcome)
	}

	want := []string{asn1234, net1, net0, testBaseURL + "/net/10.0.2.0/24"}
	if !reflect.DeepEqual(frontier.Pending(), want) {
		t.Errorf("Pending() = %v, want %v", frontier.Pending(), want)
	}
	if want := []string{"10.0.0.0/24", "10.0.1.0/24", "10.0.2.0/24"}; !reflect.DeepEqual(results.AddressRanges, want) {
		t.Errorf("AddressRanges = %v, want %v", results.AddressRanges, want)
	}
}

func TestCrawlDedupAcrossPages(t *testing.T) {
	b := &fakeBrowser{pages: map[string]string{
		asn1234: asnHTML("/net/10.0.0.0/24"),
		asn5678: asnHTML("/net/10.0.0.0/24", "/net/10.0.1.0/24"),
		net0:    dnsPage(dnsRow("10.0.0.1", "shared.example.com", "")),
		net1:    dnsPage(dnsRow("10.0.1.1", "", "shared.example.com") + dnsRow("10.0.1.2", "other.example.com", "")),
	}}
	c := newTestCrawler(t, b)

	out := c.Crawl(context.Background(), []string{asn1234, asn5678, asn1234})

	if out.Reason != Exhausted {
		t.Fatalf("Reason = %v (cause %v)", out.Reason, out.Cause)
	}
	if out.PagesProcessed != 4 {
		t.Errorf("PagesProcessed = %d, want 4", out.PagesProcessed)
	}
	if want := []string{"10.0.0.0/24", "10.0.1.0/24"}; !reflect.DeepEqual(out.Results.AddressRanges, want) {
		t.Errorf("AddressRanges = %v, want %v", out.Results.AddressRanges, want)
	}
	if want := []string{"shared.example.com", "other.example.com"}; !reflect.DeepEqual(out.Results.DomainNames, want) {
		t.Errorf("DomainNames = %v, want %v", out.Results.DomainNames, want)
	}
}

func TestCrawlUnknownPageIsSkipped(t *testing.T) {
	unknown := testBaseURL + "/dns/example.com"
	b := &fakeBrowser{pages: map[string]string{unknown: "<html></html>"}}
	c := newTestCrawler(t, b)
	rec := &fakeRecorder{}
	c.SetVisitRecorder(rec)

	out := c.Crawl(context.Background(), []string{unknown})

	if out.Reason != Exhausted || out.PagesProcessed != 1 {
		t.Errorf("Outcome = %v/%d, want exhausted/1", out.Reason, out.PagesProcessed)
	}
	if len(rec.visits) != 1 || rec.visits[0].Outcome != VisitSkipped || rec.visits[0].Kind != KindUnknown {
		t.Errorf("visits = %+v", rec.visits)
	}
}

func TestCrawlStopsOnQueryLimit(t *testing.T) {
	quota := `<html><body>You have reached your query limit` +
		`<div id="dns"><table><tbody>` + dnsRow("10.0.1.1", "", "late.example.com") + `</tbody></table></div></body></html>`

	b := &fakeBrowser{pages: map[string]string{
		asn1234: asnHTML("/net/10.0.0.0/24", "/net/10.0.1.0/24"),
		net0:    dnsPage(dnsRow("10.0.0.1", "", "early.example.com")),
		net1:    quota,
	}}
	c := newTestCrawler(t, b)
	sink := &fakeSink{}
	c.SetDiagnostics(sink)
	rec := &fakeRecorder{}
	c.SetVisitRecorder(rec)

	out := c.Crawl(context.Background(), []string{asn1234})

	if out.Reason != RateLimited {
		t.Fatalf("Reason = %v, want rate_limited (cause %v)", out.Reason, out.Cause)
	}
	if !errors.Is(out.Cause, ErrQueryLimit) {
		t.Errorf("Cause = %v, want ErrQueryLimit", out.Cause)
	}
	if out.PagesProcessed != 2 {
		t.Errorf("PagesProcessed = %d, want 2", out.PagesProcessed)
	}
	// the limited page contributes nothing, its own range came from the ASN page
	if want := []string{"early.example.com"}; !reflect.DeepEqual(out.Results.DomainNames, want) {
		t.Errorf("DomainNames = %v, want %v", out.Results.DomainNames, want)
	}
	if want := []string{net1}; !reflect.DeepEqual(out.Pending, want) {
		t.Errorf("Pending = %v, want %v", out.Pending, want)
	}
	if sink.calls != 0 || out.DiagnosticsSaved {
		t.Errorf("Diagnostics must not be saved on a rate-limit stop")
	}
	if last := rec.visits[len(rec.visits)-1]; last.Outcome != VisitRateLimited {
		t.Errorf("last visit outcome = %q", last.Outcome)
	}
}

func TestCrawlQueryLimitOnFetchError(t *testing.T) {
	fetchErr := errors.New("status 429")
	b := &fakeBrowser{
		pages:     map[string]string{asn1234: "<p>You have reached your query limit</p>"},
		fetchErrs: map[string]error{asn1234: fetchErr},
	}
	c := newTestCrawler(t, b)

	out := c.Crawl(context.Background(), []string{asn1234})

	if out.Reason != RateLimited {
		t.Fatalf("Reason = %v, want rate_limited", out.Reason)
	}
	var pageErr *PageError
	if !errors.As(out.Cause, &pageErr) || pageErr.URL != asn1234 || !errors.Is(out.Cause, fetchErr) {
		t.Errorf("Cause = %v", out.Cause)
	}
	if out.PagesProcessed != 0 || len(out.Results.AddressRanges) != 0 {
		t.Errorf("Expected empty results, got %+v", out)
	}
}

func TestCrawlFatalSavesDiagnostics(t *testing.T) {
	broken := "<html><body><div id=\"prefixes\">maintenance</div></body></html>"
	b := &fakeBrowser{
		pages: map[string]string{
			asn1234: asnHTML("/net/10.0.0.0/24", "/net/10.0.1.0/24"),
			net0:    broken,
			net1:    noDNS,
		},
		snapshot: []byte("png"),
	}
	c := newTestCrawler(t, b)
	sink := &fakeSink{}
	c.SetDiagnostics(sink)

	out := c.Crawl(context.Background(), []string{asn1234})

	if out.Reason != Fatal {
		t.Fatalf("Reason = %v, want fatal", out.Reason)
	}
	if !errors.Is(out.Cause, ErrDNSTableMissing) {
		t.Errorf("Cause = %v, want ErrDNSTableMissing", out.Cause)
	}
	if !out.DiagnosticsSaved || sink.calls != 1 {
		t.Fatalf("Expected diagnostics to be saved once, calls = %d", sink.calls)
	}
	if sink.source != broken || string(sink.snapshot) != "png" {
		t.Errorf("Unexpected diagnostics %q / %q", sink.source, sink.snapshot)
	}
	// results from before the failure are kept
	if want := []string{"10.0.0.0/24", "10.0.1.0/24"}; !reflect.DeepEqual(out.Results.AddressRanges, want) {
		t.Errorf("AddressRanges = %v, want %v", out.Results.AddressRanges, want)
	}
	if want := []string{net0, net1}; !reflect.DeepEqual(out.Pending, want) {
		t.Errorf("Pending = %v, want %v", out.Pending, want)
	}
}

func TestCrawlFatalWithoutSnapshot(t *testing.T) {
	b := &fakeBrowser{
		pages:       map[string]string{net0: "<html></html>"},
		snapshotErr: errors.New("not rendered"),
	}
	c := newTestCrawler(t, b)
	sink := &fakeSink{}
	c.SetDiagnostics(sink)

	out := c.Crawl(context.Background(), []string{net0})

	if out.Reason != Fatal || !out.DiagnosticsSaved {
		t.Fatalf("Outcome = %v, saved %v", out.Reason, out.DiagnosticsSaved)
	}
	if sink.snapshot != nil || sink.source != "<html></html>" {
		t.Errorf("Expected page source without snapshot, got %q / %v", sink.source, sink.snapshot)
	}
	// the failing page's own range is recorded before its table is read
	if want := []string{"10.0.0.0/24"}; !reflect.DeepEqual(out.Results.AddressRanges, want) {
		t.Errorf("AddressRanges = %v, want %v", out.Results.AddressRanges, want)
	}
	if out.PagesProcessed != 0 {
		t.Errorf("PagesProcessed = %d, want 0", out.PagesProcessed)
	}
}

func TestCrawlFatalKeepsRowsBeforeMalformedRow(t *testing.T) {
	b := &fakeBrowser{pages: map[string]string{
		net0: dnsPage(dnsRow("10.0.0.1", "", "early.example.com") + "<tr><td>10.0.0.2</td></tr>"),
	}}
	c := newTestCrawler(t, b)

	out := c.Crawl(context.Background(), []string{net0})

	if out.Reason != Fatal || !errors.Is(out.Cause, ErrMalformedDNSRow) {
		t.Fatalf("Outcome = %v (cause %v), want fatal malformed row", out.Reason, out.Cause)
	}
	if want := []string{"10.0.0.0/24"}; !reflect.DeepEqual(out.Results.AddressRanges, want) {
		t.Errorf("AddressRanges = %v, want %v", out.Results.AddressRanges, want)
	}
	if want := []string{"early.example.com"}; !reflect.DeepEqual(out.Results.DomainNames, want) {
		t.Errorf("DomainNames = %v, want %v", out.Results.DomainNames, want)
	}
	if want := []string{net0}; !reflect.DeepEqual(out.Pending, want) {
		t.Errorf("Pending = %v, want %v", out.Pending, want)
	}
}

func TestCrawlFirstIterationThenQueryLimit(t *testing.T) {
	// AS1234 yields two net blocks, the next fetch hits the quota
	b := &fakeBrowser{pages: map[string]string{
		asn1234: asnHTML("/net/10.0.0.0/24", "/net/10.0.1.0/24"),
		net0:    "<p>You have reached your query limit</p>",
	}}
	c := newTestCrawler(t, b)

	out := c.Crawl(context.Background(), []string{asn1234})

	if out.Reason != RateLimited {
		t.Fatalf("Reason = %v, want rate_limited (cause %v)", out.Reason, out.Cause)
	}
	if out.PagesProcessed != 1 {
		t.Errorf("PagesProcessed = %d, want 1", out.PagesProcessed)
	}
	if want := []string{net0, net1}; !reflect.DeepEqual(out.Pending, want) {
		t.Errorf("Pending = %v, want %v", out.Pending, want)
	}
	if want := []string{"10.0.0.0/24", "10.0.1.0/24"}; !reflect.DeepEqual(out.Results.AddressRanges, want) {
		t.Errorf("AddressRanges = %v, want %v", out.Results.AddressRanges, want)
	}
	if len(out.Results.DomainNames) != 0 {
		t.Errorf("DomainNames = %v, want none", out.Results.DomainNames)
	}
}

func TestCrawlCancelled(t *testing.T) {
	b := &fakeBrowser{pages: map[string]string{asn1234: asnHTML()}}
	c := newTestCrawler(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := c.Crawl(ctx, []string{asn1234})

	if out.Reason != Cancelled {
		t.Fatalf("Reason = %v, want cancelled", out.Reason)
	}
	if len(b.fetched) != 0 {
		t.Errorf("Nothing should be fetched after cancellation, got %v", b.fetched)
	}
	if want := []string{asn1234}; !reflect.DeepEqual(out.Pending, want) {
		t.Errorf("Pending = %v, want %v", out.Pending, want)
	}
}

func TestCrawlEmptySeeds(t *testing.T) {
	c := newTestCrawler(t, &fakeBrowser{})

	out := c.Crawl(context.Background(), nil)

	if out.Reason != Exhausted || out.PagesProcessed != 0 {
		t.Errorf("Outcome = %+v", out)
	}
	if out.Results == nil || len(out.Results.AddressRanges) != 0 {
		t.Errorf("Expected empty result set")
	}
}
