// Package config loads the guestbook's settings.
//
// Settings are resolved once at startup, lowest to highest precedence:
// built-in defaults, an optional YAML file, then environment variables.
// The resulting Config is passed by value; nothing below main reads the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported storage drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the full application configuration.
type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Database Database `yaml:"database"`
	LogLevel string   `yaml:"log_level"`
}

// HTTP holds listener settings.
type HTTP struct {
	Port int `yaml:"port"`
}

// Database describes how to reach the storage backend.
type Database struct {
	Driver         string        `yaml:"driver"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"` // 0 = driver default
	Name           string        `yaml:"name"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Path           string        `yaml:"path"` // sqlite only
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTP: HTTP{Port: 8080},
		Database: Database{
			Driver:         DriverMySQL,
			Host:           "db",
			Name:           "guestbook",
			User:           "guest",
			Password:       "guestpass",
			Path:           "data/guestbook.db",
			ConnectTimeout: 5 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the process environment.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables. An empty variable counts as unset.
func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s value %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	if err := setInt("PORT", &cfg.HTTP.Port); err != nil {
		return err
	}
	setString("DB_DRIVER", &cfg.Database.Driver)
	setString("DB_HOST", &cfg.Database.Host)
	if err := setInt("DB_PORT", &cfg.Database.Port); err != nil {
		return err
	}
	setString("DB_NAME", &cfg.Database.Name)
	setString("DB_USER", &cfg.Database.User)
	setString("DB_PASS", &cfg.Database.Password)
	setString("DB_PATH", &cfg.Database.Path)
	if v := getenv("DB_CONNECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid DB_CONNECT_TIMEOUT value %q: %w", v, err)
		}
		cfg.Database.ConnectTimeout = d
	}
	setString("LOG_LEVEL", &cfg.LogLevel)
	return nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: http port %d out of range", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("config: database host and name are required")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("config: database path is required for sqlite")
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database port %d out of range", c.Database.Port)
	}
	if c.Database.ConnectTimeout < 0 {
		return fmt.Errorf("config: negative connect timeout %s", c.Database.ConnectTimeout)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
}
