package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	Env         string `env:"ENV" envDefault:"development"`
	ExternalURL string `env:"EXTERNAL_URL" envDefault:"localhost:8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DB          DBConfig
	Auth        AuthConfig
	RateLimiter RateLimiterConfig
	Slug        SlugConfig

	CloudinaryURL      string   `env:"CLOUDINARY_URL"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://*,http://*"`
}

type DBConfig struct {
	Addr           string `env:"DB_ADDR,required,notEmpty"`
	MaxConns       int32  `env:"DB_MAX_CONNS" envDefault:"30"`
	MaxIdleTime    string `env:"DB_MAX_IDLE_TIME" envDefault:"15m"`
	MigrateOnStart bool   `env:"DB_MIGRATE_ON_START" envDefault:"false"`
}

type AuthConfig struct {
	BasicUser       string        `env:"AUTH_BASIC_USER"`
	BasicPassHash   string        `env:"AUTH_BASIC_PASS_HASH"` // bcrypt
	Secret          string        `env:"AUTH_TOKEN_SECRET,required,notEmpty"`
	RefreshSecret   string        `env:"AUTH_TOKEN_REFRESH_SECRET,required,notEmpty"`
	Issuer          string        `env:"AUTH_TOKEN_ISSUER" envDefault:"vastra"`
	AccessTokenExp  time.Duration `env:"AUTH_TOKEN_EXP" envDefault:"72h"`
	RefreshTokenExp time.Duration `env:"AUTH_REFRESH_TOKEN_EXP" envDefault:"216h"`
}

type RateLimiterConfig struct {
	Enabled              bool          `env:"RATE_LIMITER_ENABLED" envDefault:"false"`
	RequestsPerTimeFrame int           `env:"RATELIMITER_REQUESTS_COUNT" envDefault:"200"`
	TimeFrame            time.Duration `env:"RATELIMITER_WINDOW" envDefault:"5s"`
}

type SlugConfig struct {
	MaxAttempts    int    `env:"SLUG_MAX_ATTEMPTS" envDefault:"1000"`
	PersistRetries int    `env:"SLUG_PERSIST_RETRIES" envDefault:"1"`
	PolicyFile     string `env:"SLUG_POLICY_FILE"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Slug.MaxAttempts <= 0 {
		return Config{}, fmt.Errorf("parse config: SLUG_MAX_ATTEMPTS must be positive, got %d", cfg.Slug.MaxAttempts)
	}
	if cfg.Slug.PersistRetries < 0 {
		return Config{}, fmt.Errorf("parse config: SLUG_PERSIST_RETRIES must not be negative, got %d", cfg.Slug.PersistRetries)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == "production" }
