package services

import "errors"

// Sentinel errors translated into redirects and flash messages at the handler
// boundary.
var (
	// ErrEmailTaken means the registration email already belongs to a user.
	ErrEmailTaken = errors.New("email already taken")
	// ErrInvalidCredentials covers both an unknown email and a wrong password,
	// so a login failure never reveals which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound means no video record exists for the requested ID.
	ErrNotFound = errors.New("video not found")
	// ErrForbidden means the video exists but belongs to another user.
	ErrForbidden = errors.New("not the owner of this video")
)

// ValidationError carries a user-facing message about bad or missing input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
