package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTTPSession is a Session backed by plain HTTP requests
type HTTPSession struct {
	client  *HTTPClient
	current *HTTPResponse
	url     string
}

// NewHTTPSession wraps client in a Session
func NewHTTPSession(client *HTTPClient) *HTTPSession {
	return &HTTPSession{client: client}
}

// Fetch loads url. The response becomes the current page even when the
// service answered with an error status, so its content can be inspected.
// A transport failure leaves no current page.
func (s *HTTPSession) Fetch(ctx context.Context, url string) error {
	s.url = url
	resp, err := s.client.Get(ctx, url)
	if err != nil {
		s.current = nil
		return err
	}

	s.current = resp
	slog.Debug("Fetched page", "url", url, "status", resp.StatusCode, "ttfb", resp.Metrics.TTFB, "download_time", resp.Metrics.DownloadTime)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}
	return nil
}

// Refresh fetches the current URL again
func (s *HTTPSession) Refresh(ctx context.Context) error {
	if s.url == "" {
		return ErrNoPage
	}
	return s.Fetch(ctx, s.url)
}

// PageSource returns the body of the current page
func (s *HTTPSession) PageSource(ctx context.Context) (string, error) {
	if s.current == nil {
		return "", ErrNoPage
	}
	return s.current.Body, nil
}

// ElementOuterHTML returns the outer HTML of the element with the given id
func (s *HTTPSession) ElementOuterHTML(ctx context.Context, id string) (string, error) {
	if s.current == nil {
		return "", ErrNoPage
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.current.Body))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	sel := doc.Find("[id]").FilterFunction(func(_ int, el *goquery.Selection) bool {
		v, _ := el.Attr("id")
		return v == id
	}).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}
	return goquery.OuterHtml(sel)
}

// CaptureSnapshot always fails: nothing is rendered
func (s *HTTPSession) CaptureSnapshot(ctx context.Context) ([]byte, error) {
	return nil, ErrSnapshotUnsupported
}

// Close releases idle connections
func (s *HTTPSession) Close() error {
	s.client.Close()
	return nil
}

var _ Session = (*HTTPSession)(nil)
