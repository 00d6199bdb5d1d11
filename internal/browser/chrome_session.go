package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeOptions configures the Chrome process behind a ChromeSession
type ChromeOptions struct {
	ExecPath  string // Empty uses chromedp's lookup
	Headless  bool
	UserAgent string
	Timeout   time.Duration // Per-operation timeout
}

// ChromeSession is a Session driving one Chrome tab through chromedp
type ChromeSession struct {
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
}

// NewChromeSession starts Chrome and opens a blank tab. The process lives
// until Close is called.
func NewChromeSession(ctx context.Context, opts ChromeOptions) (*ChromeSession, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ChromeSession{
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     timeout,
	}, nil
}

// run executes actions on the tab, bounded by the session timeout and ctx
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.tabCtx, s.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Fetch navigates the tab and waits for the body to be ready
func (s *ChromeSession) Fetch(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// PageSource returns the outer HTML of the rendered document
func (s *ChromeSession) PageSource(ctx context.Context) (string, error) {
	var source string
	if err := s.run(ctx, chromedp.OuterHTML("html", &source, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return source, nil
}

// ElementOuterHTML returns the outer HTML of the element with the given id
// without waiting for it to appear.
func (s *ChromeSession) ElementOuterHTML(ctx context.Context, id string) (string, error) {
	script := fmt.Sprintf(`(() => { const el = document.getElementById(%s); return el ? el.outerHTML : null; })()`, strconv.Quote(id))

	var html *string
	err := s.run(ctx, chromedp.Evaluate(script, &html))
	if err != nil && !errors.Is(err, chromedp.ErrJSNull) {
		return "", fmt.Errorf("find element #%s: %w", id, err)
	}
	if html == nil {
		return "", fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}
	return *html, nil
}

// CaptureSnapshot returns a full-page PNG screenshot
func (s *ChromeSession) CaptureSnapshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// Quality 100 makes chromedp encode PNG
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// Close shuts the tab and the Chrome process down
func (s *ChromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}

var _ Session = (*ChromeSession)(nil)
