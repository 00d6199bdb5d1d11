package browser

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RobotRules holds the robots.txt group that applies to our user agent
type RobotRules struct {
	Disallowed []string
	CrawlDelay time.Duration
}

// FetchRobotRules downloads robots.txt from the origin of baseURL.
// A missing robots.txt yields empty rules.
func FetchRobotRules(ctx context.Context, client *HTTPClient, baseURL, userAgent string) (*RobotRules, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	resp, err := client.Get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == 200:
		return ParseRobots(resp.Body, userAgent), nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &RobotRules{}, nil
	default:
		return nil, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, resp.StatusCode, robotsURL)
	}
}

// ParseRobots returns the rules of the group naming userAgent's product
// token, falling back to the "*" group.
func ParseRobots(content, userAgent string) *RobotRules {
	token := strings.ToLower(userAgent)
	if i := strings.IndexAny(token, "/ "); i >= 0 {
		token = token[:i]
	}

	var specific, wildcard *RobotRules
	var current []*RobotRules
	inAgents := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		directive, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		directive = strings.ToLower(strings.TrimSpace(directive))
		value = strings.TrimSpace(value)

		if directive == "user-agent" {
			if !inAgents {
				current = nil
				inAgents = true
			}
			agent := strings.ToLower(value)
			switch {
			case agent == "*":
				if wildcard == nil {
					wildcard = &RobotRules{}
				}
				current = append(current, wildcard)
			case token != "" && strings.Contains(agent, token):
				if specific == nil {
					specific = &RobotRules{}
				}
				current = append(current, specific)
			}
			continue
		}
		inAgents = false

		for _, rules := range current {
			switch directive {
			case "disallow":
				if value != "" {
					rules.Disallowed = append(rules.Disallowed, value)
				}
			case "crawl-delay":
				if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
					rules.CrawlDelay = time.Duration(secs * float64(time.Second))
				}
			}
		}
	}

	switch {
	case specific != nil:
		return specific
	case wildcard != nil:
		return wildcard
	default:
		return &RobotRules{}
	}
}

// Allows reports whether path is outside every Disallow prefix
func (r *RobotRules) Allows(path string) bool {
	for _, prefix := range r.Disallowed {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
