package authapi

import "time"

// Config controls request handling limits.
type Config struct {
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64
	// QueryTimeout bounds the storage work of a single request.
	QueryTimeout time.Duration
}

// DefaultConfig returns safe defaults: 1 MiB bodies, 5s per request.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes: 1 << 20,
		QueryTimeout: 5 * time.Second,
	}
}

// withDefaults fills unset or invalid fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = def.QueryTimeout
	}
	return c
}
