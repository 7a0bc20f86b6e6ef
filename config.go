package examauth

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every environment-level knob the auth core consumes. Parsed
// once at process start; never mutated afterwards.
type Config struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:examauth.db?cache=shared"`

	JWTSecret string        `env:"JWT_SECRET_KEY" envDefault:"development_secret_key"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	RateLimitEnabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	LoginPerMinute     int    `env:"RATE_LIMIT_LOGIN_PER_MINUTE" envDefault:"5"`
	LoginPerHour       int    `env:"RATE_LIMIT_LOGIN_PER_HOUR" envDefault:"20"`
	APIPerMinute       int    `env:"RATE_LIMIT_API_PER_MINUTE" envDefault:"100"`
	APIUnauthPerMinute int    `env:"RATE_LIMIT_API_UNAUTH_PER_MINUTE" envDefault:"50"`
	GuestPerHour       int    `env:"RATE_LIMIT_GUEST_PER_HOUR" envDefault:"3"`
	RedisURL           string `env:"REDIS_URL"`

	GuestLimit      int           `env:"GUEST_USER_LIMIT" envDefault:"200"`
	GuestTTL        time.Duration `env:"GUEST_TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"GUEST_CLEANUP_INTERVAL" envDefault:"1h"`
}

// LoadConfig parses the configuration from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Production reports whether the process runs with production hardening,
// which controls the Secure flag on the CSRF cookie.
func (c Config) Production() bool {
	return c.Env == "production"
}
