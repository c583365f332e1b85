package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. The HTTP layer maps kinds to status
// codes; nothing below it knows about HTTP.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindExpired
	KindInvalid
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindExpired:
		return "expired"
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is returned by every service method. Message is safe to show to
// the caller; Err carries the cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the Kind sentinels below, so callers can write
// errors.Is(err, service.ErrConflict).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) && t.Message == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrExpired    = &Error{Kind: KindExpired}
	ErrInvalid    = &Error{Kind: KindInvalid}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrInternal   = &Error{Kind: KindInternal}
)

func ValidationError(msg string) error { return &Error{Kind: KindValidation, Message: msg} }
func ConflictError(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }
func AuthError(msg string) error       { return &Error{Kind: KindAuth, Message: msg} }
func ExpiredError(msg string) error    { return &Error{Kind: KindExpired, Message: msg} }
func InvalidError(msg string) error    { return &Error{Kind: KindInvalid, Message: msg} }
func NotFoundError(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }

// InternalError wraps an unexpected failure. The cause is kept for logging
// and never shown to the caller.
func InternalError(op string, err error) error {
	return &Error{Kind: KindInternal, Message: op, Err: err}
}

// KindOf reports the Kind of err. Anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Messages shared by more than one operation.
const (
	MsgUserNotFound         = "User not found"
	MsgInvalidRefreshToken  = "Invalid refresh token"
	MsgInvalidResetToken    = "Invalid or expired reset token"
	MsgInvalidCredentials   = "Invalid email or password"
	MsgAccountDeactivated   = "Account is deactivated"
	MsgInvalidEmail         = "Please provide a valid email address"
	MsgNameTooShort         = "Name must be at least 2 characters long"
	MsgCurrentPasswordWrong = "Current password is incorrect"
)
