package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptrace"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
)

// maxBodySize caps how much of a response is read
const maxBodySize = 10 * 1024 * 1024

// HTTPClient performs GET requests with a persistent cookie jar, so a
// browser check passed once stays valid for the rest of the session.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// HTTPMetrics contains timing of a single request
type HTTPMetrics struct {
	TTFB         time.Duration // Time to First Byte
	DownloadTime time.Duration // Total download time
}

// HTTPResponse contains the decoded response and metrics
type HTTPResponse struct {
	StatusCode  int
	Body        string // Decoded to UTF-8 using the declared or sniffed charset
	ContentType string
	FinalURL    string // After following redirects
	Metrics     HTTPMetrics
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(userAgent string, timeout time.Duration) *HTTPClient {
	// cookiejar.New never returns a non-nil error
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// Get fetches url and returns its body decoded to UTF-8. HTTP error statuses
// are returned as a response, not as an error.
func (h *HTTPClient) Get(ctx context.Context, url string) (*HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	var metrics HTTPMetrics
	var firstByte time.Time
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() { firstByte = time.Now() },
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !firstByte.IsZero() {
		metrics.TTFB = firstByte.Sub(start)
	}

	contentType := resp.Header.Get("Content-Type")
	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	metrics.DownloadTime = time.Since(start)

	return &HTTPResponse{
		StatusCode:  resp.StatusCode,
		Body:        string(body),
		ContentType: contentType,
		FinalURL:    resp.Request.URL.String(),
		Metrics:     metrics,
	}, nil
}

// Close releases idle connections
func (h *HTTPClient) Close() {
	h.client.CloseIdleConnections()
}
