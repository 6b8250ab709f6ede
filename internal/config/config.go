// internal/config/config.go
//
// Server configuration.
// Responsibilities:
//   - Read an optional YAML file named by CONFIG_FILE.
//   - Overlay environment variables on top (environment wins).
//   - Fill defaults for anything still unset.
//
// .env loading stays in main (godotenv) so the process environment is the
// single input here.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryDisabled as DB_PATH turns the sqlite history off.
const HistoryDisabled = "off"

// Config holds all server settings.
type Config struct {
	Port         string `yaml:"port"`
	LogLevel     string `yaml:"log_level"`
	ClientOrigin string `yaml:"client_origin"`
	DBPath       string `yaml:"db_path"`
	HistoryQueue int    `yaml:"history_queue"`

	Session SessionConfig `yaml:"session"`
	Admin   AdminConfig   `yaml:"admin"`
	Content ContentConfig `yaml:"content"`
}

// SessionConfig controls the session cookie and in-memory session lifetime.
type SessionConfig struct {
	Secret       string `yaml:"secret"`
	TTLDays      int    `yaml:"ttl_days"`
	SecureCookie bool   `yaml:"secure_cookie"`
}

// AdminConfig guards the /admin routes. An empty PasswordHash disables them.
type AdminConfig struct {
	User         string `yaml:"user"`
	PasswordHash string `yaml:"password_hash"`
}

// ContentConfig names catalog override files. Empty means embedded assets.
type ContentConfig struct {
	GlyphsFile        string `yaml:"glyphs_file"`
	TransmissionsFile string `yaml:"transmissions_file"`
	DecoysFile        string `yaml:"decoys_file"`
	GameConfigFile    string `yaml:"game_config_file"`
}

const devSecret = "dev_secret_change_me"

func (c *Config) defaults() {
	if c.Port == "" {
		c.Port = "5175"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ClientOrigin == "" {
		c.ClientOrigin = "http://localhost:5173"
	}
	if c.DBPath == "" {
		c.DBPath = "./data/firstlight.db"
	}
	if c.HistoryQueue <= 0 {
		c.HistoryQueue = 1024
	}
	if c.Session.Secret == "" {
		c.Session.Secret = devSecret
	}
	if c.Session.TTLDays <= 0 {
		c.Session.TTLDays = 30
	}
	if c.Admin.User == "" {
		c.Admin.User = "admin"
	}
}

// SessionTTL is the session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLDays) * 24 * time.Hour
}

// HistoryEnabled reports whether a history database should be opened.
func (c *Config) HistoryEnabled() bool {
	return !strings.EqualFold(c.DBPath, HistoryDisabled)
}

// AdminEnabled reports whether the admin routes are mounted.
func (c *Config) AdminEnabled() bool { return c.Admin.PasswordHash != "" }

// DevSecret reports whether the session secret is the built-in default.
func (c *Config) DevSecret() bool { return c.Session.Secret == devSecret }

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the effective config from CONFIG_FILE and the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		cfg = fc
	}
	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}
	cfg.defaults()
	return cfg, nil
}

// overlayEnv copies set environment variables over file values.
func (c *Config) overlayEnv() error {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&c.Port, "PORT")
	setStr(&c.LogLevel, "LOG_LEVEL")
	setStr(&c.ClientOrigin, "CLIENT_ORIGIN")
	setStr(&c.DBPath, "DB_PATH")
	setStr(&c.Session.Secret, "SESSION_SECRET")
	setStr(&c.Admin.User, "ADMIN_USER")
	setStr(&c.Admin.PasswordHash, "ADMIN_PASSWORD_HASH")
	setStr(&c.Content.GlyphsFile, "GLYPHS_FILE")
	setStr(&c.Content.TransmissionsFile, "TRANSMISSIONS_FILE")
	setStr(&c.Content.DecoysFile, "DECOYS_FILE")
	setStr(&c.Content.GameConfigFile, "GAME_CONFIG_FILE")

	if v := os.Getenv("SESSION_TTL_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL_DAYS: %w", err)
		}
		c.Session.TTLDays = n
	}
	if v := os.Getenv("HISTORY_QUEUE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HISTORY_QUEUE: %w", err)
		}
		c.HistoryQueue = n
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		c.Session.SecureCookie = b
	}
	return nil
}
