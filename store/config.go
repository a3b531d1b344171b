package store

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config selects and configures a store engine.
type Config struct {
	Driver string       `yaml:"driver"`
	Path   string       `yaml:"path"` // file, badger dir or sqlite database
	Prefix string       `yaml:"prefix"`
	Redis  RedisConfig  `yaml:"redis"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// LoadConfig reads a YAML store configuration and applies environment
// overrides. An empty path yields a configuration built from the environment
// alone.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path) // #nosec G304 -- operator-provided config path
		if err != nil {
			return Config{}, fmt.Errorf("store: read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("store: parse config %s: %w", path, err)
		}
	}
	return cfg.WithEnv(os.LookupEnv), nil
}

// WithEnv overlays PERSISTED_STORE_* and PERSISTED_REDIS_* variables.
func (c Config) WithEnv(lookup func(string) (string, bool)) Config {
	if lookup == nil {
		return c
	}
	if v, ok := lookup("PERSISTED_STORE_DRIVER"); ok && v != "" {
		c.Driver = v
	}
	if v, ok := lookup("PERSISTED_STORE_PATH"); ok && v != "" {
		c.Path = v
	}
	if v, ok := lookup("PERSISTED_STORE_PREFIX"); ok {
		c.Prefix = v
	}
	if v, ok := lookup("PERSISTED_REDIS_ADDR"); ok && v != "" {
		c.Redis.Addr = v
	}
	if v, ok := lookup("PERSISTED_REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := lookup("PERSISTED_REDIS_DB"); ok && v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	return c
}

// Open constructs the store described by cfg. The driver defaults to file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverFile
	}

	var (
		s   Store
		err error
	)
	switch driver {
	case DriverMemory:
		s = NewMemory()
	case DriverFile:
		path := cfg.Path
		if path == "" {
			if path, err = DefaultPath(); err != nil {
				return nil, err
			}
		}
		s, err = OpenFile(path)
	case DriverBadger:
		s, err = OpenBadger(cfg.Path)
	case DriverSQLite:
		s, err = OpenSQLite(ctx, cfg.Path, cfg.SQLite)
	case DriverRedis:
		s, err = OpenRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return Prefixed(s, cfg.Prefix), nil
}
