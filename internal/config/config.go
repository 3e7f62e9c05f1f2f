// Package config loads the beltline configuration file.
//
// The file lives at ~/.config/beltline/config.toml (or
// $XDG_CONFIG_HOME/beltline/config.toml) and holds the defaults that
// command-line flags override: the rate unit, the cache backend, and
// the server and store addresses. A missing file is not an error; all
// fields have working zero-value defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Cache backends selectable via the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the on-disk configuration.
type Config struct {
	// RateUnit overrides the catalog's rate unit ("second" or "minute").
	RateUnit string `toml:"rate_unit"`

	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none". Empty means "file".
	Backend string `toml:"backend"`

	// Dir is the file cache directory. Empty means the XDG cache dir.
	Dir string `toml:"dir"`

	// RedisAddr is the host:port of the Redis server.
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// StoreConfig configures plan persistence.
type StoreConfig struct {
	// Dir is the file store directory. Empty means the XDG data dir.
	Dir string `toml:"dir"`

	// MongoURI switches the plan store to MongoDB when set.
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache:  CacheConfig{Backend: CacheBackendFile},
		Store:  StoreConfig{MongoDatabase: "beltline"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Path returns the config file location following the XDG convention.
func Path(appName string) (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file at path, layered over Default. A missing
// file returns the defaults without error; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case "", CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return fmt.Errorf("cache.backend must be file, redis, or none, got %q", c.Cache.Backend)
	}
	switch c.RateUnit {
	case "", "second", "minute":
	default:
		return fmt.Errorf("rate_unit must be second or minute, got %q", c.RateUnit)
	}
	return nil
}
