package domain

import "regexp"

// symbolPattern is the allow-list for trading symbols: uppercase
// alphanumerics plus a small separator set, length 2-20 overall.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9._-]{1,19}$`)

// ValidSymbol reports whether symbol matches the allow-list pattern.
func ValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}
