// Package config reads the process settings from .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyPort          = "PORT"
	KeySelfContained = "SELF_CONTAINED"
	KeyDatabaseURL   = "DATABASE_URL"
	KeyDBDriver      = "DB_DRIVER"
	KeyRedisURL      = "REDIS_URL"
	KeyJWTSecret     = "JWT_SECRET"
	KeyTokenTTL      = "TOKEN_TTL"
	KeyAdminEmails   = "ADMIN_EMAILS"
	KeyStatusTTL     = "STATUS_TTL"
	KeyLogLevel      = "LOG_LEVEL"
	KeyLogFile       = "LOG_FILE"
	KeyCookieSecure  = "COOKIE_SECURE"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required unless SELF_CONTAINED is set")
	ErrMissingRedisURL    = errors.New("REDIS_URL is required unless SELF_CONTAINED is set")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required unless SELF_CONTAINED is set")
	ErrUnknownDriver      = errors.New("DB_DRIVER must be postgres or mysql")
)

type Config struct {
	Port string
	// SelfContained runs on the in-memory store, feed and blacklist.
	SelfContained bool
	DatabaseURL   string
	DBDriver      string
	RedisURL      string
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmails   []string
	StatusTTL     time.Duration
	LogLevel      string
	LogFile       string
	CookieSecure  bool
}

// LoadEnvFiles loads .env.local, falling back to .env. It reports whether
// either file was found; the environment is used as is otherwise.
func LoadEnvFiles() bool {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			return false
		}
	}
	return true
}

// NewViper returns a viper instance with every key defaulted and bound to
// the environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeySelfContained, false)
	v.SetDefault(KeyDBDriver, "postgres")
	v.SetDefault(KeyTokenTTL, 24*time.Hour)
	v.SetDefault(KeyStatusTTL, 3*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyCookieSecure, false)
	for _, key := range []string{KeyDatabaseURL, KeyRedisURL, KeyJWTSecret, KeyAdminEmails, KeyLogFile} {
		v.SetDefault(key, "")
	}
	v.AutomaticEnv()
	return v
}

func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:          v.GetString(KeyPort),
		SelfContained: v.GetBool(KeySelfContained),
		DatabaseURL:   v.GetString(KeyDatabaseURL),
		DBDriver:      strings.ToLower(v.GetString(KeyDBDriver)),
		RedisURL:      v.GetString(KeyRedisURL),
		JWTSecret:     v.GetString(KeyJWTSecret),
		TokenTTL:      v.GetDuration(KeyTokenTTL),
		AdminEmails:   splitList(v.GetString(KeyAdminEmails)),
		StatusTTL:     v.GetDuration(KeyStatusTTL),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFile:       v.GetString(KeyLogFile),
		CookieSecure:  v.GetBool(KeyCookieSecure),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyTokenTTL, c.TokenTTL)
	}
	if c.StatusTTL <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyStatusTTL, c.StatusTTL)
	}

	if c.SelfContained {
		// tokens do not outlive the process in this mode
		if c.JWTSecret == "" {
			c.JWTSecret = uuid.NewString()
		}
		return nil
	}

	switch {
	case c.DatabaseURL == "":
		return ErrMissingDatabaseURL
	case c.RedisURL == "":
		return ErrMissingRedisURL
	case c.JWTSecret == "":
		return ErrMissingJWTSecret
	}
	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.DBDriver)
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
