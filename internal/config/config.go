package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/kelseyhightower/envconfig"

	"calcsession/internal/engine"
)

// Prefix is prepended to every environment variable name, e.g. CALC_ADDR.
const Prefix = "calc"

// Config is the process configuration, bound from the environment.
type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	Environment     Environment   `envconfig:"ENVIRONMENT" default:"development"`
	Precision       uint32        `envconfig:"PRECISION" default:"100"`
	Degrees         bool          `envconfig:"DEGREES" default:"true"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	MaxSessions     int           `envconfig:"MAX_SESSIONS" default:"10000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	OTLPEnabled     bool          `envconfig:"OTLP_ENABLED" default:"false"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: ADDR must not be empty")
	case c.Precision == 0:
		return errors.New("config: PRECISION must be positive")
	case c.MaxSessions <= 0:
		return fmt.Errorf("config: MAX_SESSIONS must be positive, got %d", c.MaxSessions)
	case c.SessionTTL <= 0:
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// EngineContext is the arithmetic context sessions are evaluated under.
func (c Config) EngineContext() engine.Context {
	return engine.Context{
		Precision: c.Precision,
		Rounding:  apd.RoundHalfEven,
	}
}
