package password

import (
	"runtime"

	"golang.org/x/crypto/bcrypt"
)

const (
	// ProductionCost is the bcrypt work factor used when the deployment runs in production mode.
	ProductionCost = 14
	// DevelopmentCost is the cheapest bcrypt work factor; used for development and tests.
	DevelopmentCost = bcrypt.MinCost
)

// Config is the single configuration surface for this package.
type Config struct {
	// Pepper is the server-wide secret mixed into every derivation. Required.
	Pepper string
	// Cost is the bcrypt work factor, within [bcrypt.MinCost..bcrypt.MaxCost].
	Cost int
	// MaxConcurrent bounds how many derivations/verifications run at once.
	MaxConcurrent int
}

// ConfigFor returns the configuration for the given deployment mode.
// The mode is an explicit flag; nothing is read from the process environment here.
func ConfigFor(production bool, pepper string) Config {
	cost := DevelopmentCost
	if production {
		cost = ProductionCost
	}
	return Config{
		Pepper:        pepper,
		Cost:          cost,
		MaxConcurrent: defaultConcurrency(),
	}
}

// defaultConcurrency keeps bcrypt work off the request goroutines' critical mass.
// Clamped to [1..8] so small containers and large hosts both stay predictable.
func defaultConcurrency() int {
	n := runtime.NumCPU()
	if n <= 0 {
		n = 1
	}
	if n > 8 {
		n = 8
	}
	return n
}
