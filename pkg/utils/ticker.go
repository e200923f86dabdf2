// Package utils provides small shared helpers for ticker symbols and
// time windows.
package utils

import "strings"

// NormalizeTicker canonicalizes user-supplied ticker input: trimmed,
// upper-cased, internal whitespace removed.
func NormalizeTicker(s string) string {
	s = strings.TrimSpace(strings.ToUpper(s))
	return strings.ReplaceAll(s, " ", "")
}

// ToYahooSymbol converts an exchange-style ticker to Yahoo Finance notation.
// Class shares use a dot on most listings but a dash on Yahoo
// (BRK.B -> BRK-B).
func ToYahooSymbol(ticker string) string {
	return strings.ReplaceAll(NormalizeTicker(ticker), ".", "-")
}

// FromYahooSymbol converts a Yahoo Finance symbol back to exchange notation.
func FromYahooSymbol(symbol string) string {
	return strings.ReplaceAll(NormalizeTicker(symbol), "-", ".")
}
