package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RevokedBackdate is how far before created_at a revoked session's expiry is pinned.
// The result is earlier than every updated_at the session ever had.
const RevokedBackdate = 365 * 24 * time.Hour

// Session is one server-side login.
//
// UserID is a soft reference: nothing guarantees the user still exists.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether s is usable at now (expires_at strictly after now).
func (s Session) Active(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// State is the lifecycle position of a session as observed at a point in time.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
	StateRevoked State = "revoked"
)

// StateAt classifies s at now. A revoked session's expiry precedes its own updated_at,
// which natural expiry never produces.
func (s Session) StateAt(now time.Time) State {
	switch {
	case s.Active(now):
		return StateActive
	case s.ExpiresAt.Before(s.UpdatedAt):
		return StateRevoked
	default:
		return StateExpired
	}
}

// Mutation inspects the locked row and returns the replacement.
// changed=false means nothing is written; a non-nil error aborts without writing.
type Mutation func(cur Session) (next Session, changed bool, err error)

// Store abstracts session persistence.
type Store interface {
	// Create persists a new session row.
	Create(ctx context.Context, s Session) (Session, error)

	// Get loads a session by token without any state checks.
	Get(ctx context.Context, token string) (Session, error)

	// Apply runs fn against the row bound to token as one atomic read-modify-write.
	// Concurrent Apply calls on the same token are serialized.
	// Returns ErrSessionNotFound when no row matches.
	Apply(ctx context.Context, token string, fn Mutation) (Session, error)
}
