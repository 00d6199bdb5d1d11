package crawler

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		ref  string
		want PageKind
	}{
		{"https://bgp.he.net/AS1234", KindASN},
		{"https://bgp.he.net/AS1234#_prefixes", KindASN},
		{"https://bgp.he.net/net/10.0.0.0/24", KindNetBlock},
		{"https://bgp.he.net/net/2001:db8::/32", KindNetBlock},
		// an AS number anywhere wins over /net/
		{"https://bgp.he.net/net/AS65000/24", KindASN},
		{"https://bgp.he.net/dns/example.com", KindUnknown},
		{"https://bgp.he.net/as1234", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := Classify(tt.ref); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}
