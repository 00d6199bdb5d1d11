// Package parser provides HTML parsing for registry lookup pages.
// It walks the document once and collects every anchor carrying an href,
// resolved against the service origin.
package parser

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser extracts anchors from HTML
type HTMLParser struct {
	baseURL *url.URL
}

// ParseResult contains the parsed HTML data
type ParseResult struct {
	Title       string
	ContentHash string
	Anchors     []Anchor
}

// Anchor represents an <a> element that has an href attribute
type Anchor struct {
	Href string // Raw attribute value as written in the page
	URL  string // Href resolved against the base URL
	Text string
}

// NewHTMLParser creates a parser resolving links against baseURL
func NewHTMLParser(baseURL string) (*HTMLParser, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !parsedURL.IsAbs() {
		return nil, fmt.Errorf("invalid base URL: %q is not absolute", baseURL)
	}

	return &HTMLParser{baseURL: parsedURL}, nil
}

// Parse parses HTML content and extracts the title and all anchors.
// Anchors whose href cannot be parsed as a URL are dropped.
func (p *HTMLParser) Parse(htmlContent []byte) (*ParseResult, error) {
	doc, err := html.Parse(bytes.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &ParseResult{
		Anchors: []Anchor{},
	}
	p.traverse(doc, result)

	hash := sha256.Sum256(htmlContent)
	result.ContentHash = fmt.Sprintf("%x", hash)

	return result, nil
}

// AnchorsContaining returns anchors whose raw href contains substr
func (r *ParseResult) AnchorsContaining(substr string) []Anchor {
	var matched []Anchor
	for _, a := range r.Anchors {
		if strings.Contains(a.Href, substr) {
			matched = append(matched, a)
		}
	}
	return matched
}

func (p *HTMLParser) traverse(n *html.Node, result *ParseResult) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				result.Title = strings.TrimSpace(n.FirstChild.Data)
			}
		case "a":
			p.parseAnchor(n, result)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.traverse(c, result)
	}
}

func (p *HTMLParser) parseAnchor(n *html.Node, result *ParseResult) {
	href, ok := attr(n, "href")
	if !ok {
		return
	}

	absURL, err := p.resolveURL(href)
	if err != nil {
		return
	}

	result.Anchors = append(result.Anchors, Anchor{
		Href: href,
		URL:  absURL,
		Text: extractText(n),
	})
}

// resolveURL converts relative URLs to absolute URLs
func (p *HTMLParser) resolveURL(href string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return p.baseURL.ResolveReference(u).String(), nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// extractText concatenates the text nodes below n
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := extractText(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
