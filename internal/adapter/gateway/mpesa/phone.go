package mpesa

import "strings"

// FormatPhone sanitizes a raw phone number to the provider's canonical
// international format (e.g. "0712 345-678" -> "254712345678"):
//
//   - every non-digit is stripped
//   - a local leading zero is swapped for the country code
//   - a bare 9-digit subscriber number gets the country code prefixed
func FormatPhone(raw, countryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	switch {
	case clean == "":
		return ""
	case strings.HasPrefix(clean, "0"):
		return countryCode + clean[1:]
	case strings.HasPrefix(clean, countryCode):
		return clean
	case len(clean) == 9:
		return countryCode + clean
	}
	return clean
}
