package identity

import (
	"errors"

	"authcore/cmd/apperr"
)

// User-facing messages. Stable: the HTTP API and clients match on them.
const (
	msgUsernameTaken    = "O apelido informado já está sendo utilizado."
	actionUsernameTaken = "Ajuste o apelido e tente novamente."
	msgEmailTaken       = "O email informado já está sendo utilizado."
	actionEmailTaken    = "Ajuste o email e tente novamente."

	msgUserNotFound    = "O apelido informado não foi encontrado no sistema."
	actionUserNotFound = "Verifique se o apelido está digitado corretamente"

	msgBadCredentials    = "Dados de autenticação não conferem."
	actionBadCredentials = "Verifique se os dados enviados estão corretos."

	actionFixInput = "Ajuste os dados enviados e tente novamente."
)

// Logical field names reported by stores on uniqueness conflicts.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
)

// ConflictError reports a uniqueness violation detected by the storage backstop.
type ConflictError struct {
	Op    string
	Field string
}

func (e ConflictError) Error() string {
	if e.Field == "" {
		return e.Op + ": conflict"
	}
	return e.Op + ": conflict: " + e.Field
}

func usernameTaken(op string) error {
	return apperr.Validation(op, FieldUsername, msgUsernameTaken, actionUsernameTaken)
}

func emailTaken(op string) error {
	return apperr.Validation(op, FieldEmail, msgEmailTaken, actionEmailTaken)
}

// conflictToValidation maps a store-level conflict to the same error the fast-path check returns.
func conflictToValidation(op string, err error) (error, bool) {
	var ce ConflictError
	if !errors.As(err, &ce) {
		return nil, false
	}
	switch ce.Field {
	case FieldEmail:
		return emailTaken(op), true
	default:
		return usernameTaken(op), true
	}
}

func userNotFound(op string) error {
	return apperr.NotFound(op, msgUserNotFound, actionUserNotFound)
}

func badCredentials(op string) error {
	return apperr.Unauthorized(op, msgBadCredentials, actionBadCredentials)
}

func invalid(op, field, msg string) error {
	return apperr.Validation(op, field, msg, actionFixInput)
}

// IsConflict reports whether err is a storage-level ConflictError.
func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}
