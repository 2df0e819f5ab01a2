package token

import "errors"

// ErrTooShort is returned when an opaque token would carry fewer than MinBytes of entropy.
var ErrTooShort = errors.New("token entropy too short")
