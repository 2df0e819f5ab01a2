// Package apperr holds the error taxonomy shared by the registry, the session store and the HTTP boundary.
//
// Callers match on the sentinel kinds with errors.Is and read the user-facing text with errors.As.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// KindValidation marks input that failed a rule (malformed or duplicate values).
	KindValidation = errors.New("validation")
	// KindNotFound marks a lookup that matched no record.
	KindNotFound = errors.New("not found")
	// KindUnauthorized marks a missing, expired or revoked session, or rejected credentials.
	KindUnauthorized = errors.New("unauthorized")
	// KindConfiguration marks a deployment that cannot run (for example a missing pepper).
	KindConfiguration = errors.New("configuration")
	// KindMethodNotAllowed marks a route hit with an unsupported method.
	KindMethodNotAllowed = errors.New("method not allowed")
)

// Error is a typed operation error.
// Message and Action are user-facing; Err carries the cause and is never exposed.
type Error struct {
	Kind    error
	Op      string
	Field   string
	Message string
	Action  string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Validation builds a KindValidation error.
func Validation(op, field, message, action string) *Error {
	return &Error{Kind: KindValidation, Op: op, Field: field, Message: message, Action: action}
}

// NotFound builds a KindNotFound error.
func NotFound(op, message, action string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message, Action: action}
}

// Unauthorized builds a KindUnauthorized error.
func Unauthorized(op, message, action string) *Error {
	return &Error{Kind: KindUnauthorized, Op: op, Message: message, Action: action}
}

// Configuration builds a KindConfiguration error wrapping cause.
func Configuration(op, message string, cause error) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Op:      op,
		Message: message,
		Action:  "Verifique a configuração do servidor.",
		Err:     cause,
	}
}

// MethodNotAllowed builds a KindMethodNotAllowed error.
func MethodNotAllowed(op string) *Error {
	return &Error{
		Kind:    KindMethodNotAllowed,
		Op:      op,
		Message: "Método não permitido para este endpoint.",
		Action:  "Verifique se o método HTTP enviado é válido para este endpoint.",
	}
}

// As extracts the typed error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, KindValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, KindNotFound) }

// IsUnauthorized reports whether err is an unauthorized error.
func IsUnauthorized(err error) bool { return errors.Is(err, KindUnauthorized) }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return errors.Is(err, KindConfiguration) }
