package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authcore/cmd/apperr"
	"authcore/cmd/security/token"

	"github.com/google/uuid"
)

// Observer receives lifecycle events: "issued", "renewed", "revoked", "rejected".
type Observer interface {
	SessionEvent(event string)
}

// Service implements the session lifecycle: issue, validate with sliding renewal, revoke.
//
// Validation and revocation run inside Store.Apply, so the state check and the write it
// leads to are one atomic step. Two concurrent lookups of the same token never both renew
// from the same stale row, and a lookup racing a revoke sees either the live row or the
// revoked one, never a mix.
type Service struct {
	cfg   Config
	store Store
	now   func() time.Time
	obs   Observer
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObserver reports lifecycle events to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.obs = o
		}
	}
}

// NewService validates cfg and builds a Service over store.
func NewService(cfg Config, store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("session: nil store")
	}
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, store: store, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// TTL returns the session lifetime.
func (s *Service) TTL() time.Duration { return s.cfg.TTL }

// clock returns now in UTC at storage precision.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Issue creates a fresh session for userID. userID is not checked against the registry.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID) (Session, error) {
	tok, err := token.NewOpaqueHex(s.cfg.TokenBytes)
	if err != nil {
		return Session{}, err
	}

	now := s.clock()
	out, err := s.store.Create(ctx, Session{
		ID:        uuid.New(),
		Token:     tok,
		UserID:    userID,
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Session{}, fmt.Errorf("session: issue: %w", err)
	}
	s.emit("issued")
	return out, nil
}

// FindValidByToken returns the active session bound to tok.
//
// When at least RenewAfter has passed since the last issue/renewal, the expiry slides to
// now+TTL in the same atomic step. Missing, expired and revoked sessions all fail with the
// same Unauthorized error.
func (s *Service) FindValidByToken(ctx context.Context, tok string) (Session, error) {
	const op = "session.FindValidByToken"

	if !plausibleToken(tok) {
		s.emit("rejected")
		return Session{}, notActive(op)
	}

	renewed := false
	out, err := s.store.Apply(ctx, tok, func(cur Session) (Session, bool, error) {
		now := s.clock()
		if !cur.Active(now) {
			return cur, false, notActive(op)
		}

		lastRenewal := cur.ExpiresAt.Add(-s.cfg.TTL)
		if now.Sub(lastRenewal) < s.cfg.RenewAfter {
			return cur, false, nil
		}

		next := cur
		next.ExpiresAt = now.Add(s.cfg.TTL)
		next.UpdatedAt = bumpedAt(now, cur.UpdatedAt)
		renewed = true
		return next, true, nil
	})
	if err != nil {
		return Session{}, s.mapErr(op, err)
	}

	if renewed {
		s.emit("renewed")
	}
	return out, nil
}

// Revoke ends the session bound to tok and returns the updated row.
// Revoking twice fails: the second call sees a non-active session.
func (s *Service) Revoke(ctx context.Context, tok string) (Session, error) {
	const op = "session.Revoke"

	if !plausibleToken(tok) {
		s.emit("rejected")
		return Session{}, notActive(op)
	}

	out, err := s.store.Apply(ctx, tok, func(cur Session) (Session, bool, error) {
		now := s.clock()
		if !cur.Active(now) {
			return cur, false, notActive(op)
		}

		next := cur
		next.ExpiresAt = cur.CreatedAt.Add(-RevokedBackdate)
		next.UpdatedAt = bumpedAt(now, cur.UpdatedAt)
		return next, true, nil
	})
	if err != nil {
		return Session{}, s.mapErr(op, err)
	}

	s.emit("revoked")
	return out, nil
}

func (s *Service) mapErr(op string, err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		s.emit("rejected")
		return notActive(op)
	}
	if apperr.IsUnauthorized(err) {
		s.emit("rejected")
	}
	return err
}

func (s *Service) emit(event string) {
	if s.obs != nil {
		s.obs.SessionEvent(event)
	}
}

// plausibleToken rejects values that cannot be a stored token without touching storage.
func plausibleToken(tok string) bool {
	return tok != "" && len(tok) <= 2*token.MinBytes
}

// bumpedAt returns the updated_at for a write at now: strictly after prev, at microsecond
// resolution to match timestamptz.
func bumpedAt(now, prev time.Time) time.Time {
	if next := prev.Add(time.Microsecond); now.Before(next) {
		return next
	}
	return now
}
