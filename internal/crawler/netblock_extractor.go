package crawler

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sentinels meaning a net-block page has nothing to list
const (
	NoDNSRecordsSentinel = "No DNS Records Found"
	NoResultsSentinel    = "did not return any results"
)

const dnsTableSelector = "#dns"

// DNSRecord is one row of the DNS table. Each name is set only when its
// cell carries an anchor.
type DNSRecord struct {
	PTRName     string
	HasPTR      bool
	ARecordName string
	HasARecord  bool
}

// Name prefers the A-record link text and falls back to the PTR link text
func (r DNSRecord) Name() (string, bool) {
	switch {
	case r.HasARecord:
		return r.ARecordName, true
	case r.HasPTR:
		return r.PTRName, true
	default:
		return "", false
	}
}

// NetBlockPage is the data extracted from one net-block page
type NetBlockPage struct {
	AddressRange string
	NoRecords    bool
	Records      []DNSRecord
}

// DomainNames returns the non-empty resolved names of all rows in order
func (p *NetBlockPage) DomainNames() []string {
	var names []string
	for _, rec := range p.Records {
		if name, ok := rec.Name(); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ExtractNetBlock reads the page's own address range from ref and the DNS
// rows from the #dns table in source. Once the range is known the page is
// returned even on error, holding the range and any rows read before it.
func ExtractNetBlock(ref, source string) (*NetBlockPage, error) {
	cidr, err := AddressRangeFromURL(ref)
	if err != nil {
		return nil, err
	}

	page := &NetBlockPage{AddressRange: cidr}
	if strings.Contains(source, NoDNSRecordsSentinel) || strings.Contains(source, NoResultsSentinel) {
		page.NoRecords = true
		return page, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return page, fmt.Errorf("failed to parse HTML: %w", err)
	}

	tbody := doc.Find(dnsTableSelector).First().Find("tbody").First()
	if tbody.Length() == 0 {
		return page, ErrDNSTableMissing
	}

	rows := tbody.Find("tr")
	for i := range rows.Nodes {
		cells := rows.Eq(i).Find("td")
		if cells.Length() < 2 {
			return page, fmt.Errorf("%w: row %d has %d", ErrMalformedDNSRow, i, cells.Length())
		}

		var rec DNSRecord
		rec.PTRName, rec.HasPTR = linkText(cells.Eq(1))
		rec.ARecordName, rec.HasARecord = linkText(cells.Last())
		page.Records = append(page.Records, rec)
	}

	return page, nil
}

// linkText returns the first child text of the first anchor in cell
func linkText(cell *goquery.Selection) (string, bool) {
	a := cell.Find("a").First()
	if a.Length() == 0 {
		return "", false
	}
	return a.Contents().First().Text(), true
}
