package classify

import (
	"strings"
	"unicode"
)

// UnknownVendor is the key for names that carry no usable vendor identity.
// It is never read from or written to the cache.
const UnknownVendor = "unknown_vendor"

var legalSuffixes = map[string]bool{
	"inc": true, "incorporated": true,
	"llc": true, "llp": true, "lp": true,
	"ltd": true, "limited": true,
	"corp": true, "corporation": true,
	"co": true, "company": true,
	"plc": true, "gmbh": true,
}

var storeMarkers = map[string]bool{
	"store": true, "no": true, "num": true, "number": true, "location": true,
}

// NormalizeVendor reduces a transaction name to a stable cache key:
// lower-case, legal suffixes and trailing store numbers dropped, words joined
// with underscores.
func NormalizeVendor(name string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer("'", "", "’", "").Replace(name)

	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	words = trimTail(words)

	key := strings.Join(words, "_")
	if key == "" || key == "unknown" {
		return UnknownVendor
	}
	return key
}

// trimTail drops store numbers and legal suffixes from the end of words.
// A lone suffix is kept so "Co" alone still names something.
func trimTail(words []string) []string {
	for len(words) > 0 {
		last := words[len(words)-1]
		switch {
		case isDigits(last):
			words = words[:len(words)-1]
			if n := len(words); n > 0 && storeMarkers[words[n-1]] {
				words = words[:n-1]
			}
		case legalSuffixes[last] && len(words) > 1:
			words = words[:len(words)-1]
		default:
			return words
		}
	}
	return words
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
