package utils

import "strings"

// countryCode is the Malaysian dialing prefix expected by the chat gateway.
const countryCode = "60"

// DigitsOnly strips every non-digit rune from a free-form phone string.
func DigitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone converts a free-form phone number to canonical
// countrycode+localnumber form: "0123456789" becomes "60123456789",
// numbers already carrying the country code are left alone.
func NormalizePhone(raw string) string {
	digits := DigitsOnly(raw)
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, countryCode) {
		return digits
	}
	return countryCode + strings.TrimLeft(digits, "0")
}

// ChatID builds the chat-gateway recipient id for a phone number,
// e.g. "0123456789" -> "60123456789@c.us". Returns "" when the number
// contains no digits.
func ChatID(raw string) string {
	normalized := NormalizePhone(raw)
	if normalized == "" {
		return ""
	}
	return normalized + "@c.us"
}
