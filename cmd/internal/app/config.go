package app

import (
	"fmt"
	"strings"
	"time"

	"authcore/cmd/apperr"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable Config reads.
const EnvPrefix = "AUTHCORE_"

// Deployment modes.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	Env string `env:"ENV" envDefault:"development"`

	HTTPAddr  string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT"` // json|pretty; empty picks by Env

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`
	MaxBodyBytes      int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`

	// Empty DatabaseURL selects the in-memory stores.
	DatabaseURL        string        `env:"DATABASE_URL"`
	DBMaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns         int32         `env:"DB_MIN_CONNS" envDefault:"0"`
	DBQueryTimeout     time.Duration `env:"DB_QUERY_TIMEOUT" envDefault:"5s"`
	DBConnectAttempts  int           `env:"DB_CONNECT_ATTEMPTS" envDefault:"3"`
	DBConnectInterval  time.Duration `env:"DB_CONNECT_INTERVAL" envDefault:"1s"`
	ReadinessRequireDB bool          `env:"READINESS_REQUIRE_DB" envDefault:"false"`
	AutoMigrate        bool          `env:"AUTO_MIGRATE" envDefault:"false"`

	// Pepper keys the HMAC step of secret derivation. Startup fails without it.
	Pepper string `env:"PEPPER"`

	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionRenewAfter time.Duration `env:"SESSION_RENEW_AFTER"` // zero means half the TTL
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	return loadConfig(nil)
}

// loadConfig parses environ, or the process environment when environ is nil.
func loadConfig(environ map[string]string) (Config, error) {
	const op = "app.LoadConfig"

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, apperr.Configuration(op, "invalid environment", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	switch cfg.Env {
	case EnvProduction, EnvDevelopment, EnvTest:
	default:
		return Config{}, apperr.Configuration(op, fmt.Sprintf("unknown %sENV %q", EnvPrefix, cfg.Env), nil)
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch cfg.LogFormat {
	case "", "json", "pretty":
	default:
		return Config{}, apperr.Configuration(op, fmt.Sprintf("unknown %sLOG_FORMAT %q", EnvPrefix, cfg.LogFormat), nil)
	}

	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	return cfg, nil
}

// Production reports whether the deployment runs in production mode.
func (c Config) Production() bool { return c.Env == EnvProduction }

// logFormat resolves the effective log format: JSON in production, pretty elsewhere.
func (c Config) logFormat() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	if c.Production() {
		return "json"
	}
	return "pretty"
}
