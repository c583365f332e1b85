package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Config struct {
	Env       string `env:"ENV"        envDefault:"dev"`  // dev, staging, prod
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"` // debug, info, warn, error
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json, text
	Port      int    `env:"PORT"       envDefault:"5000"`

	Issuer      string        `env:"AUTH_ISSUER"       envDefault:"taskboard-auth"`
	JWTSecret   string        `env:"AUTH_JWT_SECRET"`  // Required in prod; generated per process otherwise
	AccessTTL   time.Duration `env:"AUTH_ACCESS_TTL"   envDefault:"15m"`
	RefreshTTL  time.Duration `env:"AUTH_REFRESH_TTL"  envDefault:"168h"`
	ResetTTL    time.Duration `env:"AUTH_RESET_TTL"    envDefault:"1h"`
	BcryptCost  int           `env:"AUTH_BCRYPT_COST"  envDefault:"12"`
	HashTimeout time.Duration `env:"AUTH_HASH_TIMEOUT" envDefault:"5s"`

	StoreDriver  string `env:"AUTH_STORE"         envDefault:"memory"` // memory, sqlite
	DatabaseFile string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	SeedUsers    *bool  `env:"AUTH_SEED_USERS"`    // Default: true outside prod

	CORSOrigins []string `env:"AUTH_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:3001"`

	ResetURL   string `env:"AUTH_RESET_URL"   envDefault:"http://localhost:3000/reset-password"`
	ResetQueue string `env:"AUTH_RESET_QUEUE" envDefault:"auth.password_reset"`
	AMQPURL    string `env:"AMQP_URL"`         // Optional: reset links are logged when unset

	RedisAddr     string `env:"REDIS_ADDR"` // Optional: shared rate limiting when set
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"5m"`
}

// LoadConfig reads an optional .env file and then the environment. Values
// already set in the environment win over the file.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// ShouldSeed reports whether the development accounts are created on start.
func (c Config) ShouldSeed() bool {
	if c.SeedUsers != nil {
		return *c.SeedUsers
	}
	return !c.IsProd()
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("AUTH_STORE %q is not one of %s, %s", c.StoreDriver, StoreMemory, StoreSQLite))
	}
	if c.StoreDriver == StoreSQLite && c.DatabaseFile == "" {
		errs = append(errs, errors.New("AUTH_DATABASE_FILE is required for the sqlite store"))
	}

	switch {
	case c.JWTSecret == "" && c.IsProd():
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required in prod"))
	case c.JWTSecret != "" && len(c.JWTSecret) < jwtx.MinSecretSize:
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", jwtx.MinSecretSize))
	}

	for name, d := range map[string]time.Duration{
		"AUTH_ACCESS_TTL":       c.AccessTTL,
		"AUTH_REFRESH_TTL":      c.RefreshTTL,
		"AUTH_RESET_TTL":        c.ResetTTL,
		"AUTH_HASH_TIMEOUT":     c.HashTimeout,
		"HOUSEKEEPING_INTERVAL": c.HousekeepingInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.AccessTTL >= c.RefreshTTL {
		errs = append(errs, errors.New("AUTH_ACCESS_TTL must be shorter than AUTH_REFRESH_TTL"))
	}

	return errors.Join(errs...)
}
