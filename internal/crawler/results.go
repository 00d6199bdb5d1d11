package crawler

// ResultSet accumulates address ranges and domain names in discovery order.
// Membership is exact string equality; nothing is normalized.
type ResultSet struct {
	AddressRanges []string
	DomainNames   []string

	rangeIndex map[string]struct{}
	nameIndex  map[string]struct{}
}

// NewResultSet returns an empty ResultSet
func NewResultSet() *ResultSet {
	return &ResultSet{
		AddressRanges: []string{},
		DomainNames:   []string{},
		rangeIndex:    make(map[string]struct{}),
		nameIndex:     make(map[string]struct{}),
	}
}

// AddAddressRange appends cidr unless already present and reports whether it was new
func (r *ResultSet) AddAddressRange(cidr string) bool {
	if _, ok := r.rangeIndex[cidr]; ok {
		return false
	}
	r.rangeIndex[cidr] = struct{}{}
	r.AddressRanges = append(r.AddressRanges, cidr)
	return true
}

// AddDomainName appends name unless empty or already present
func (r *ResultSet) AddDomainName(name string) bool {
	if name == "" {
		return false
	}
	if _, ok := r.nameIndex[name]; ok {
		return false
	}
	r.nameIndex[name] = struct{}{}
	r.DomainNames = append(r.DomainNames, name)
	return true
}
