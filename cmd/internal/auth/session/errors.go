package session

import (
	"errors"

	"authcore/cmd/apperr"
)

var (
	// ErrSessionNotFound is returned by stores when no row has the given token.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")
)

const (
	msgNoActiveSession    = "Usuário não possui sessão ativa."
	actionNoActiveSession = "Verifique se este usuário está logado e tente novamente."
)

// notActive is the single failure for missing, expired and revoked sessions.
// Callers cannot tell the three apart.
func notActive(op string) error {
	return apperr.Unauthorized(op, msgNoActiveSession, actionNoActiveSession)
}
