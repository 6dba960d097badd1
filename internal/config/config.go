package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Session   SessionConfig   `yaml:"session"`
	Units     UnitsConfig     `yaml:"units"`
	Nutrition NutritionConfig `yaml:"nutrition"`
	Web       WebConfig       `yaml:"web"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Timezone names the location calendar days are counted in.
	Timezone string `yaml:"timezone"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// SessionConfig holds the rest timer defaults for live sessions.
type SessionConfig struct {
	RestSeconds   int `yaml:"rest_seconds"`
	ExtendSeconds int `yaml:"extend_seconds"`
}

// UnitsConfig holds the units used before a user picks their own.
type UnitsConfig struct {
	Mass   string `yaml:"mass"`
	Length string `yaml:"length"`
}

type NutritionConfig struct {
	Goals metrics.NutritionGoals `yaml:"goals"`
}

type WebConfig struct {
	StaticDir string `yaml:"static_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location loads the configured timezone. Empty means time.Local.
func (s ServerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// Preferences returns the default display units.
func (u UnitsConfig) Preferences() (metrics.Preferences, error) {
	return metrics.ParsePreferences(u.Mass, u.Length)
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaults() *Config {
	return &Config{
		Tailscale: TailscaleConfig{Hostname: "liftlog", StateDir: "tsnet-state"},
		Session:   SessionConfig{RestSeconds: 90, ExtendSeconds: 30},
		Units:     UnitsConfig{Mass: "kg", Length: "cm"},
		Nutrition: NutritionConfig{Goals: metrics.DefaultNutritionGoals()},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix LIFTLOG_ and underscore-separated paths:
//
//	LIFTLOG_SERVER_HOST, LIFTLOG_SERVER_PORT, LIFTLOG_SERVER_TIMEZONE,
//	LIFTLOG_DB_HOST, LIFTLOG_DB_PORT, LIFTLOG_DB_NAME,
//	LIFTLOG_DB_USER, LIFTLOG_DB_PASSWORD, LIFTLOG_DB_SSLMODE,
//	LIFTLOG_AUTH_API_KEY,
//	LIFTLOG_TAILSCALE_ENABLED, LIFTLOG_TAILSCALE_HOSTNAME, LIFTLOG_TAILSCALE_STATE_DIR,
//	LIFTLOG_SESSION_REST_SECONDS, LIFTLOG_SESSION_EXTEND_SECONDS,
//	LIFTLOG_UNITS_MASS, LIFTLOG_UNITS_LENGTH,
//	LIFTLOG_WEB_STATIC_DIR, LIFTLOG_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	envString("LIFTLOG_SERVER_HOST", &cfg.Server.Host)
	envInt("LIFTLOG_SERVER_PORT", &cfg.Server.Port)
	envString("LIFTLOG_SERVER_TIMEZONE", &cfg.Server.Timezone)

	envString("LIFTLOG_DB_HOST", &cfg.Database.Host)
	envInt("LIFTLOG_DB_PORT", &cfg.Database.Port)
	envString("LIFTLOG_DB_NAME", &cfg.Database.Name)
	envString("LIFTLOG_DB_USER", &cfg.Database.User)
	envString("LIFTLOG_DB_PASSWORD", &cfg.Database.Password)
	envString("LIFTLOG_DB_SSLMODE", &cfg.Database.SSLMode)

	envString("LIFTLOG_AUTH_API_KEY", &cfg.Auth.APIKey)

	envBool("LIFTLOG_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled)
	envString("LIFTLOG_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	envString("LIFTLOG_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)

	envInt("LIFTLOG_SESSION_REST_SECONDS", &cfg.Session.RestSeconds)
	envInt("LIFTLOG_SESSION_EXTEND_SECONDS", &cfg.Session.ExtendSeconds)

	envString("LIFTLOG_UNITS_MASS", &cfg.Units.Mass)
	envString("LIFTLOG_UNITS_LENGTH", &cfg.Units.Length)

	envString("LIFTLOG_WEB_STATIC_DIR", &cfg.Web.StaticDir)
	envString("LIFTLOG_LOG_LEVEL", &cfg.Log.Level)
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Session.RestSeconds <= 0 {
		return fmt.Errorf("session.rest_seconds must be positive")
	}
	if c.Session.ExtendSeconds <= 0 {
		return fmt.Errorf("session.extend_seconds must be positive")
	}
	if _, err := c.Units.Preferences(); err != nil {
		return fmt.Errorf("units: %w", err)
	}
	if _, err := c.Server.Location(); err != nil {
		return fmt.Errorf("server.timezone: %w", err)
	}
	g := c.Nutrition.Goals
	if g.Calories < 0 || g.ProteinG < 0 || g.CarbsG < 0 || g.FatsG < 0 {
		return fmt.Errorf("nutrition.goals must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}
