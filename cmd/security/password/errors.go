package password

import "errors"

// Public, stable errors for callers.
var (
	ErrPepperMissing = errors.New("password pepper missing")
	ErrInvalidCost   = errors.New("invalid bcrypt cost")
	ErrInvalidHash   = errors.New("invalid password hash")
)
