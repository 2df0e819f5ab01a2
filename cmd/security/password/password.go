package password

import (
	"context"
	"errors"
	"strings"
	"time"

	"authcore/cmd/apperr"
	"authcore/cmd/security/token"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Observer receives the wall time of each bcrypt run. op is "hash" or "verify".
type Observer interface {
	ObserveSecret(op string, d time.Duration)
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithObserver reports hash/verify durations to o.
func WithObserver(o Observer) Option {
	return func(h *Hasher) {
		if o != nil {
			h.obs = o
		}
	}
}

// Hasher derives and verifies secrets. It is safe for concurrent use.
type Hasher struct {
	pepper []byte
	cost   int
	sem    *semaphore.Weighted
	obs    Observer
}

// New validates cfg and builds a Hasher.
// A missing pepper is a configuration error (apperr.KindConfiguration wrapping ErrPepperMissing).
func New(cfg Config, opts ...Option) (*Hasher, error) {
	const op = "password.New"

	if strings.TrimSpace(cfg.Pepper) == "" {
		return nil, apperr.Configuration(op, "pepper is not configured", ErrPepperMissing)
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, apperr.Configuration(op, "bcrypt cost out of range", ErrInvalidCost)
	}

	n := cfg.MaxConcurrent
	if n <= 0 {
		n = defaultConcurrency()
	}

	h := &Hasher{
		pepper: []byte(cfg.Pepper),
		cost:   cfg.Cost,
		sem:    semaphore.NewWeighted(int64(n)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Cost returns the configured bcrypt work factor.
func (h *Hasher) Cost() int { return h.cost }

// Hash derives a storable secret from plaintext.
// Salted: hashing the same plaintext twice yields different secrets.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if h == nil || len(h.pepper) == 0 {
		return "", apperr.Configuration("password.Hash", "pepper is not configured", ErrPepperMissing)
	}
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	start := time.Now()
	out, err := bcrypt.GenerateFromPassword([]byte(h.peppered(plaintext)), h.cost)
	h.observe("hash", start)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plaintext matches secret.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported secrets.
func (h *Hasher) Verify(ctx context.Context, plaintext, secret string) (bool, error) {
	if h == nil || len(h.pepper) == 0 {
		return false, apperr.Configuration("password.Verify", "pepper is not configured", ErrPepperMissing)
	}
	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(secret), []byte(h.peppered(plaintext)))
	h.observe("verify", start)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}

func (h *Hasher) peppered(plaintext string) string {
	return token.HashHMACSHA256Base64(plaintext, h.pepper)
}

func (h *Hasher) acquire(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return h.sem.Acquire(ctx, 1)
}

func (h *Hasher) observe(op string, start time.Time) {
	if h.obs != nil {
		h.obs.ObserveSecret(op, time.Since(start))
	}
}
