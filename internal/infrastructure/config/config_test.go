package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SQLite.Path != "data/grocerypos.db" || cfg.SQLite.BusyTimeout != 5*time.Second {
		t.Fatalf("unexpected sqlite defaults: %+v", cfg.SQLite)
	}
	if cfg.BcryptCost != 10 || cfg.ActivityWorkers != 4 {
		t.Fatalf("unexpected tuning defaults: %+v", cfg)
	}
	if cfg.Mongo.URI != "" || cfg.Redis.Addr != "" {
		t.Fatalf("optional backends must be disabled by default")
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development by default")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":            "9090",
		"ENV":             "production",
		"LOG_FILE":        "/var/log/grocerypos/accounts.log",
		"DB_PATH":         "/srv/pos/pos.db",
		"DB_BUSY_TIMEOUT": "250ms",
		"BCRYPT_COST":     "12",
		"REDIS_ADDR":      "redis:6379",
		"REDIS_DB":        "2",
		"MONGO_URI":       "mongodb://mongo:27017",
	}))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}

	if cfg.Port != "9090" || cfg.IsDevelopment() {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
	if cfg.SQLite.Path != "/srv/pos/pos.db" || cfg.SQLite.BusyTimeout != 250*time.Millisecond {
		t.Fatalf("unexpected sqlite config: %+v", cfg.SQLite)
	}
	if cfg.BcryptCost != 12 || cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.Mongo.URI != "mongodb://mongo:27017" || cfg.Mongo.Database != "grocerypos" {
		t.Fatalf("unexpected mongo config: %+v", cfg.Mongo)
	}
}

func TestLoadWith_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration": {"DB_BUSY_TIMEOUT": "soon"},
		"bad cost":     {"BCRYPT_COST": "high"},
		"no workers":   {"ACTIVITY_WORKERS": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWith(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
