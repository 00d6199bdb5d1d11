// Package scope turns a company name into crawl seeds: it searches the
// registry service, lists the matching organizations and asks which of
// them belong to the assessment scope.
package scope

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/masahif/bgpscope/internal/browser"
	"github.com/masahif/bgpscope/internal/config"
)

// Markers the service shows while and after vetting a new browser session
const (
	ValidatedMarker  = "Your ISP is"
	ValidatingMarker = "Please wait while we validate your browser."
)

const (
	noResultsMarker = "did not return any results"
	searchElementID = "search"
)

// Candidate is one row of the search results
type Candidate struct {
	Href        string
	Description string
}

// Searcher runs company searches over a browser session
type Searcher struct {
	session           browser.Session
	baseURL           string
	pollInterval      time.Duration
	validationTimeout time.Duration
}

// NewSearcher creates a searcher for the service at cfg.BaseURL
func NewSearcher(session browser.Session, cfg *config.CrawlConfig) *Searcher {
	return &Searcher{
		session:           session,
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		pollInterval:      cfg.PollInterval,
		validationTimeout: cfg.ValidationTimeout,
	}
}

// WaitValidated opens the landing page and waits until the service has
// accepted the session.
func (s *Searcher) WaitValidated(ctx context.Context) error {
	slog.Info("Waiting for the service to validate the browser", "url", s.baseURL)
	if err := browser.WaitUntil(ctx, s.session, s.baseURL, ValidatedMarker, s.pollInterval, s.validationTimeout); err != nil {
		return fmt.Errorf("landing page validation: %w", err)
	}
	return nil
}

// Search looks up company and returns the result rows in page order
func (s *Searcher) Search(ctx context.Context, company string) ([]Candidate, error) {
	searchURL := s.baseURL + "/search?search%5Bsearch%5D=" + url.QueryEscape(company) + "&commit=Search"
	if err := s.session.Fetch(ctx, searchURL); err != nil {
		return nil, err
	}
	if err := browser.WaitWhile(ctx, s.session, ValidatingMarker, s.pollInterval, s.validationTimeout); err != nil {
		return nil, fmt.Errorf("search validation: %w", err)
	}

	source, err := s.session.PageSource(ctx)
	if err != nil {
		return nil, err
	}
	if strings.Contains(source, noResultsMarker) {
		return nil, ErrNoResults
	}

	table, err := s.session.ElementOuterHTML(ctx, searchElementID)
	if err != nil {
		return nil, err
	}

	candidates, err := ParseCandidates(table)
	if err != nil {
		return nil, err
	}
	slog.Info("Results found", "company", company, "rows", len(candidates))
	return candidates, nil
}

// ParseCandidates reads the rows of the first table in the search results
// fragment. Rows without a description are skipped.
func ParseCandidates(fragment string) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	tbody := doc.Find("table").First().Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, ErrSearchTableMissing
	}

	var candidates []Candidate
	rows := tbody.Find("tr")
	for i := range rows.Nodes {
		cells := rows.Eq(i).Find("td")
		if cells.Length() != 2 {
			return nil, fmt.Errorf("%w: row %d has %d cells", ErrMalformedSearchRow, i, cells.Length())
		}

		description := strings.TrimSpace(cells.Eq(1).Contents().First().Text())
		if description == "" {
			continue
		}

		href, ok := cells.Eq(0).Find("a").First().Attr("href")
		if !ok {
			return nil, fmt.Errorf("%w: row %d has no link", ErrMalformedSearchRow, i)
		}
		candidates = append(candidates, Candidate{Href: href, Description: description})
	}

	return candidates, nil
}
