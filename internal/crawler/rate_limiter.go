package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces page fetches per host
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	delays   map[string]time.Duration
	delay    time.Duration
}

// NewRateLimiter creates a limiter allowing one fetch per defaultDelay per host.
// A zero delay disables waiting.
func NewRateLimiter(defaultDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		delays:   make(map[string]time.Duration),
		delay:    defaultDelay,
	}
}

// Wait blocks until a fetch of urlStr is allowed or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return r.limiter(parsedURL.Host).Wait(ctx)
}

// SetDomainDelay overrides the delay for host; values not above the
// default delay are ignored.
func (r *RateLimiter) SetDomainDelay(host string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if delay <= r.delay {
		return
	}
	r.delays[host] = delay
	r.limiters[host] = rate.NewLimiter(rate.Every(delay), 1)
}

// Delay returns the effective delay for host
func (r *RateLimiter) Delay(host string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.delays[host]; ok {
		return d
	}
	return r.delay
}

func (r *RateLimiter) limiter(host string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(r.delay), 1)
	r.limiters[host] = l
	return l
}
