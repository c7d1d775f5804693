package livetl

import "strings"

// Normalize collapses every whitespace run in s to a single space and trims
// the result. The value is the cache and dedup key of a text unit.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// preserveWhitespace keeps the original leading and trailing whitespace
// around a translation.
func preserveWhitespace(original, translated string) string {
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	leading := original[:leadingLen]

	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	trailing := ""
	if trailingLen > 0 && trailingLen < len(original) {
		trailing = original[len(original)-trailingLen:]
	}

	return leading + strings.TrimSpace(translated) + trailing
}
