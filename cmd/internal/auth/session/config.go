package session

import (
	"fmt"
	"time"

	"authcore/cmd/security/token"
)

// DefaultTTL is how long a session stays valid after issue or renewal.
const DefaultTTL = 30 * 24 * time.Hour

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// TTL is the session lifetime granted at issue and at each renewal.
	TTL time.Duration

	// RenewAfter is how long after the last issue/renewal a successful lookup slides the
	// expiry forward. Lookups inside this window do not write. Zero means TTL/2.
	RenewAfter time.Duration

	// TokenBytes is the entropy of opaque session tokens (hex-encoded on the wire).
	TokenBytes int
}

// DefaultConfig returns the production defaults: 30 days, renewed after 15, 48-byte tokens.
func DefaultConfig() Config {
	return Config{
		TTL:        DefaultTTL,
		RenewAfter: DefaultTTL / 2,
		TokenBytes: token.MinBytes,
	}
}

// Validate fills derived defaults and reports invalid values as ErrConfig.
func (c Config) Validate() (Config, error) {
	if c.TTL <= 0 {
		return Config{}, fmt.Errorf("%w: ttl must be positive", ErrConfig)
	}
	if c.RenewAfter == 0 {
		c.RenewAfter = c.TTL / 2
	}
	if c.RenewAfter < 0 || c.RenewAfter > c.TTL {
		return Config{}, fmt.Errorf("%w: renew_after must be within (0, ttl]", ErrConfig)
	}
	if c.TokenBytes == 0 {
		c.TokenBytes = token.MinBytes
	}
	if c.TokenBytes < token.MinBytes || c.TokenBytes > 48 {
		// 48 bytes hex-encode to 96 chars, the width of sessions.token.
		return Config{}, fmt.Errorf("%w: token_bytes must be %d", ErrConfig, token.MinBytes)
	}
	return c, nil
}
