package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/masahif/bgpscope/internal/parser"
)

const netPathMarker = "/net/"

// NetBlockLink is a net-block page reference found on an ASN page
type NetBlockLink struct {
	URL          string
	AddressRange string
}

// ASNPage is the data extracted from one ASN page
type ASNPage struct {
	Title       string
	ContentHash string
	NetBlocks   []NetBlockLink
}

// ASNExtractor pulls net-block links out of rendered ASN pages
type ASNExtractor struct {
	parser *parser.HTMLParser
}

// NewASNExtractor resolves links against the service origin baseURL
func NewASNExtractor(baseURL string) (*ASNExtractor, error) {
	p, err := parser.NewHTMLParser(baseURL)
	if err != nil {
		return nil, err
	}
	return &ASNExtractor{parser: p}, nil
}

// Extract returns every anchor whose href contains /net/, in page order,
// with duplicates preserved. Deduplication is the caller's job.
func (e *ASNExtractor) Extract(source string) (*ASNPage, error) {
	parsed, err := e.parser.Parse([]byte(source))
	if err != nil {
		return nil, err
	}

	page := &ASNPage{
		Title:       parsed.Title,
		ContentHash: parsed.ContentHash,
	}
	for _, anchor := range parsed.AnchorsContaining(netPathMarker) {
		cidr, err := AddressRangeFromURL(anchor.URL)
		if err != nil {
			return nil, err
		}
		page.NetBlocks = append(page.NetBlocks, NetBlockLink{URL: anchor.URL, AddressRange: cidr})
	}

	return page, nil
}

// AddressRangeFromURL joins the last two path segments of a net-block URL,
// e.g. https://bgp.he.net/net/10.0.0.0/24 -> 10.0.0.0/24. No CIDR
// normalization is applied.
func AddressRangeFromURL(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedReference, err)
	}

	segments := strings.Split(u.Path, "/")
	if len(segments) < 3 {
		return "", fmt.Errorf("%w: %s", ErrMalformedReference, ref)
	}
	return strings.Join(segments[len(segments)-2:], "/"), nil
}
