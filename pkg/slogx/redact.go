package slogx

import (
	"log/slog"
	"strings"
)

// RedactEmail masks the local part of an address, keeping the first rune and
// the domain: "jane@example.com" -> "j***@example.com".
func RedactEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}

	local := []rune(email[:at])
	return string(local[0]) + "***" + email[at:]
}

// RedactToken keeps only a short prefix of a bearer credential.
func RedactToken(token string) string {
	const keep = 6
	if len(token) <= keep {
		return "***"
	}
	return token[:keep] + "***"
}

// Email is a slog attribute carrying a redacted address.
func Email(email string) slog.Attr {
	return slog.String("email", RedactEmail(email))
}
