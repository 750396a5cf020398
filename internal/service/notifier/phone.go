package notifier

import "strings"

// defaultCountryCode is prepended to bare national numbers. The shop
// operates in Greece; this is a fixed policy, not configuration.
const defaultCountryCode = "+30"

// NormalizePhone converts a stored phone number into E.164-ish form for
// the provider: spaces are stripped, a leading "+" is kept, the "00"
// international prefix becomes "+", and anything else gets the default
// country code.
func NormalizePhone(phone string) string {
	p := strings.ReplaceAll(phone, " ", "")
	switch {
	case strings.HasPrefix(p, "+"):
		return p
	case strings.HasPrefix(p, "00"):
		return "+" + strings.TrimPrefix(p, "00")
	default:
		return defaultCountryCode + p
	}
}
