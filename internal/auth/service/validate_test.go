package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		password string
		want     string
	}{
		{"short1!", MsgPasswordTooShort},
		{"alllowercase1!", MsgPasswordNoUpper},
		{"ALLUPPER1!", MsgPasswordNoLower},
		{"NoNumber!", MsgPasswordNoDigit},
		{"NoSpecial123", MsgPasswordNoSpecial},
		{"Under_score1", MsgPasswordNoSpecial},
		{"Valid123!", ""},
		{"Spaces Ok1", ""},
		{"", MsgPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			requireKind(t, err, KindValidation, tt.want)
		})
	}
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  bool
	}{
		{"jane@example.com", true},
		{"  jane@example.com  ", true},
		{"first.last+tag@sub.example.co", true},
		{"", false},
		{"jane", false},
		{"jane@", false},
		{"@example.com", false},
		{"jane@localhost", false},
		{"jane@example..com", false},
		{"Jane <jane@example.com>", false},
		{"jane@-example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			require.Equal(t, tt.want, ValidEmail(tt.email))
		})
	}
}
