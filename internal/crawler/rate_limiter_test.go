package crawler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(100 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.Wait(ctx, "https://bgp.he.net/AS1234"); err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://bgp.he.net/net/10.0.0.0/24"); err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("Rate limiting not working, elapsed time: %v", elapsed)
	}

	// Other hosts have their own budget
	start = time.Now()
	if err := limiter.Wait(ctx, "https://example.com/"); err != nil {
		t.Fatalf("Different host request failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("Different host was rate limited, elapsed time: %v", elapsed)
	}
}

func TestRateLimiterZeroDelay(t *testing.T) {
	limiter := NewRateLimiter(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := limiter.Wait(ctx, "https://bgp.he.net/AS1234"); err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Zero delay should not wait, elapsed time: %v", elapsed)
	}
}

func TestRateLimiterDomainDelay(t *testing.T) {
	limiter := NewRateLimiter(100 * time.Millisecond)

	limiter.SetDomainDelay("bgp.he.net", 200*time.Millisecond)
	limiter.SetDomainDelay("example.com", 50*time.Millisecond)

	if d := limiter.Delay("bgp.he.net"); d != 200*time.Millisecond {
		t.Errorf("Delay(bgp.he.net) = %v, want 200ms", d)
	}
	// shorter than the default: ignored
	if d := limiter.Delay("example.com"); d != 100*time.Millisecond {
		t.Errorf("Delay(example.com) = %v, want 100ms", d)
	}

	ctx := context.Background()
	start := time.Now()
	if err := limiter.Wait(ctx, "https://bgp.he.net/AS1"); err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://bgp.he.net/AS2"); err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("Custom delay not working, elapsed time: %v", elapsed)
	}
}

func TestRateLimiterContextCancellation(t *testing.T) {
	limiter := NewRateLimiter(500 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	if err := limiter.Wait(ctx, "https://bgp.he.net/AS1"); err != nil {
		t.Fatalf("First request failed: %v", err)
	}

	cancel()
	if err := limiter.Wait(ctx, "https://bgp.he.net/AS2"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRateLimiterInvalidURL(t *testing.T) {
	limiter := NewRateLimiter(100 * time.Millisecond)

	if err := limiter.Wait(context.Background(), "http://[::1]:namedport"); err == nil {
		t.Errorf("Expected error for invalid URL, got nil")
	}
}
