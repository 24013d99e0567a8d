package detector

import (
	"regexp"
	"strings"
)

// DefaultMarker identifies a new listing announcement title.
const DefaultMarker = "Binance Lists"

var (
	parenthesized = regexp.MustCompile(`\((.*?)\)`)
	validSymbol   = regexp.MustCompile(`^[A-Z0-9]{1,5}$`)
)

// ExtractSymbol returns the ticker announced by title.
//
// Titles without the marker are ignored. A parenthesized group wins, e.g.
// "Binance Lists Foo Coin (FOO)" gives FOO. Without one, a remainder of at most five
// characters is the ticker itself. Longer remainders are prose and yield nothing.
func ExtractSymbol(title, marker string) (string, bool) {
	if marker == "" || !strings.Contains(title, marker) {
		return "", false
	}

	rest := strings.TrimSpace(strings.Replace(title, marker, "", 1))

	var symbol string
	if m := parenthesized.FindStringSubmatch(rest); m != nil {
		symbol = strings.TrimSpace(m[1])
	} else if len(rest) <= 5 {
		symbol = rest
	} else {
		return "", false
	}

	if !validSymbol.MatchString(symbol) {
		return "", false
	}

	return symbol, true
}
