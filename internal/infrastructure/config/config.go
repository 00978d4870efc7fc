package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	LogFile  string `env:"LOG_FILE"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	BcryptCost      int           `env:"BCRYPT_COST,      default=10"`
	ActivityWorkers int           `env:"ACTIVITY_WORKERS, default=4"`

	SQLite SQLiteConfig
	Mongo  MongoConfig
	Redis  RedisConfig
}

type SQLiteConfig struct {
	Path        string        `env:"DB_PATH,         default=data/grocerypos.db"`
	BusyTimeout time.Duration `env:"DB_BUSY_TIMEOUT, default=5s"`
}

// MongoConfig configures the optional activity trail. An empty URI disables it.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=grocerypos"`
}

// RedisConfig configures the optional cross-process bootstrap lock. An empty
// address selects the in-process lock.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// IsDevelopment reports whether human-friendly log output should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through lookuper, which lets tests supply a
// fixed environment.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.SQLite.Path == "" {
		return nil, fmt.Errorf("config: DB_PATH must not be empty")
	}
	if cfg.ActivityWorkers <= 0 {
		return nil, fmt.Errorf("config: ACTIVITY_WORKERS must be positive, got %d", cfg.ActivityWorkers)
	}
	return &cfg, nil
}
