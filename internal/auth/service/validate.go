package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Password policy messages, in the order the rules are checked.
const (
	MsgPasswordTooShort  = "Password must be at least 8 characters long"
	MsgPasswordNoUpper   = "Password must contain at least one uppercase letter"
	MsgPasswordNoLower   = "Password must contain at least one lowercase letter"
	MsgPasswordNoDigit   = "Password must contain at least one number"
	MsgPasswordNoSpecial = "Password must contain at least one special character"
)

const (
	MinPasswordLength = 8
	MinNameLength     = 2
)

// ValidatePassword applies the password policy and returns a ValidationError
// naming the first rule that fails. A special character is anything outside
// [A-Za-z0-9_].
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ValidationError(MsgPasswordTooShort)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case r == '_':
		default:
			special = true
		}
	}

	switch {
	case !upper:
		return ValidationError(MsgPasswordNoUpper)
	case !lower:
		return ValidationError(MsgPasswordNoLower)
	case !digit:
		return ValidationError(MsgPasswordNoDigit)
	case !special:
		return ValidationError(MsgPasswordNoSpecial)
	}
	return nil
}

// ValidEmail reports whether s is a bare addr-spec with a dotted domain,
// e.g. "jane@example.com". Display names and angle brackets are rejected.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 {
		return false
	}

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}

	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || len(local) > 64 {
		return false
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" || strings.HasPrefix(l, "-") || strings.HasSuffix(l, "-") {
			return false
		}
	}
	return !strings.ContainsAny(domain, "[]")
}

// validName checks the display-name length rule on the trimmed name.
func validName(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= MinNameLength
}
