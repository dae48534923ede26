package auth

import "errors"

// Client-facing messages. Login failures share one message so callers cannot
// tell an unknown email from a wrong password.
const (
	MsgEmailInUse         = "Email already in use"
	MsgInvalidCredentials = "Invalid credentials"
	MsgMissingToken       = "Missing auth token"
	MsgInvalidToken       = "Invalid auth token"
)

// ConflictError reports a uniqueness violation, e.g. a registered email
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// AuthError reports failed authentication. Message is safe to show to clients.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// InputError reports input the auth core cannot accept
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// IsConflict reports whether err is or wraps a ConflictError
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsAuth reports whether err is or wraps an AuthError
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsInput reports whether err is or wraps an InputError
func IsInput(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}
