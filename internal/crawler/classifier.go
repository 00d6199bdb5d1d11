package crawler

import (
	"regexp"
	"strings"
)

var asnPattern = regexp.MustCompile(`AS[0-9]+`)

// Classify infers the page shape from the URL text alone.
// An autonomous-system identifier anywhere in the URL wins over /net/.
func Classify(ref string) PageKind {
	switch {
	case asnPattern.MatchString(ref):
		return KindASN
	case strings.Contains(ref, "/net/"):
		return KindNetBlock
	default:
		return KindUnknown
	}
}
