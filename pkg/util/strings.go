package util

import "strings"

// NormalizeSymbol upper-cases and trims a ticker such as " 000001.sz ".
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
