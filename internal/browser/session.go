package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/masahif/bgpscope/internal/config"
)

// Session is a stateful page-fetching session
type Session interface {
	Fetch(ctx context.Context, url string) error
	PageSource(ctx context.Context) (string, error)
	ElementOuterHTML(ctx context.Context, id string) (string, error)
	CaptureSnapshot(ctx context.Context) ([]byte, error)
	Close() error
}

// New opens the session kind selected by cfg.Browser
func New(ctx context.Context, cfg *config.CrawlConfig) (Session, error) {
	switch cfg.Browser {
	case config.BrowserHTTP:
		return NewHTTPSession(NewHTTPClient(cfg.UserAgent, cfg.RequestTimeout)), nil
	case config.BrowserChrome:
		return NewChromeSession(ctx, ChromeOptions{
			ExecPath:  cfg.ChromePath,
			Headless:  cfg.Headless,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.RequestTimeout,
		})
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBrowser, cfg.Browser)
	}
}

// WaitWhile polls the current page every interval while its source contains
// marker, giving up after timeout. Sessions that do not execute scripts are
// refreshed between checks.
func WaitWhile(ctx context.Context, s Session, marker string, interval, timeout time.Duration) error {
	return poll(ctx, s, interval, timeout, func(src string) bool {
		return !strings.Contains(src, marker)
	}, "marker", marker)
}

// WaitUntil loads url and polls until its source contains marker
func WaitUntil(ctx context.Context, s Session, url, marker string, interval, timeout time.Duration) error {
	if err := s.Fetch(ctx, url); err != nil {
		return err
	}
	return poll(ctx, s, interval, timeout, func(src string) bool {
		return strings.Contains(src, marker)
	}, "marker", marker)
}

func poll(ctx context.Context, s Session, interval, timeout time.Duration, done func(string) bool, logArgs ...any) error {
	deadline := time.Now().Add(timeout)
	for {
		src, err := s.PageSource(ctx)
		if err != nil {
			return err
		}
		if done(src) {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrValidationTimeout
		}

		slog.Info("Waiting for the service to validate the browser", logArgs...)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		if r, ok := s.(refresher); ok {
			if err := r.Refresh(ctx); err != nil {
				return err
			}
		}
	}
}

// refresher is implemented by sessions whose pages only change on reload
type refresher interface {
	Refresh(ctx context.Context) error
}
