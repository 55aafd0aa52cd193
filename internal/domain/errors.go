package domain

import "errors"

// Failure classes shared by every layer. Callers wrap them with fmt.Errorf("%w: ...")
// and the HTTP layer maps them to status codes with errors.Is.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("access denied")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyDecided  = errors.New("already decided")
)
