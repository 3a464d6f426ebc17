package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable (BLOG_TOKEN_SECRET, ...).
const EnvPrefix = "BLOG"

// base64SecretPrefix marks a token secret given in standard base64.
const base64SecretPrefix = "base64:"

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN). postgres:// URLs use Postgres, anything else SQLite.
	DatabaseURL string `mapstructure:"database_url"`

	// Server bind address (host:port)
	ServerAddr string `mapstructure:"server_addr"`

	// Maximum database connection pool size (Postgres only)
	MaxDBConnections int `mapstructure:"max_db_connections"`

	// Enable debug logging
	Debug bool `mapstructure:"debug"`

	Token TokenConfig `mapstructure:"token"`
	Auth  AuthConfig  `mapstructure:"auth"`
	Authz AuthzConfig `mapstructure:"authz"`
	CORS  CORSConfig  `mapstructure:"cors"`
	Cache CacheConfig `mapstructure:"cache"`
}

// TokenConfig controls bearer token issuance and extraction.
type TokenConfig struct {
	// Secret is the HMAC key. Values prefixed with "base64:" are decoded.
	Secret string `mapstructure:"secret"`

	// TTL is the lifetime of issued tokens.
	TTL time.Duration `mapstructure:"ttl"`

	// Header carries the token on incoming requests.
	Header string `mapstructure:"header"`

	// Scheme precedes the token in the header value. Empty means the whole value is the token.
	Scheme string `mapstructure:"scheme"`
}

// SecretBytes returns the decoded HMAC key.
func (t TokenConfig) SecretBytes() ([]byte, error) {
	if encoded, ok := strings.CutPrefix(t.Secret, base64SecretPrefix); ok {
		secret, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode token secret: %w", err)
		}
		return secret, nil
	}
	return []byte(t.Secret), nil
}

type AuthConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type AuthzConfig struct {
	// PolicyPath optionally replaces the built-in role grants with a Casbin CSV file.
	PolicyPath string `mapstructure:"policy_path"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type CacheConfig struct {
	AccountSize int           `mapstructure:"account_size"`
	AccountTTL  time.Duration `mapstructure:"account_ttl"`
}

const minSecretLength = 32

var defaults = map[string]any{
	"database_url":         "file:blog.db?cache=shared",
	"server_addr":          "localhost:8080",
	"max_db_connections":   25,
	"debug":                false,
	"token.secret":         "",
	"token.ttl":            "60m",
	"token.header":         "Authorization",
	"token.scheme":         "Bearer",
	"auth.bcrypt_cost":     12,
	"authz.policy_path":    "",
	"cors.allowed_origins": []string{"*"},
	"cache.account_size":   1024,
	"cache.account_ttl":    "5m",
}

// Load reads configuration from the global viper instance: defaults, an optional config
// file already read by the caller, then BLOG_ environment variables (highest precedence).
func Load() (*Config, error) {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AllowEmptyEnv(true)
	viper.AutomaticEnv()

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := viper.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.ServerAddr == "" {
		return fmt.Errorf("server_addr is required")
	}

	if c.Token.Secret == "" {
		return fmt.Errorf("token.secret is required (set %s_TOKEN_SECRET)", EnvPrefix)
	}
	secret, err := c.Token.SecretBytes()
	if err != nil {
		return err
	}
	if len(secret) < minSecretLength {
		return fmt.Errorf("token.secret must be at least %d bytes, got %d", minSecretLength, len(secret))
	}
	if c.Token.TTL <= 0 {
		return fmt.Errorf("token.ttl must be positive, got %s", c.Token.TTL)
	}
	if c.Token.Header == "" {
		return fmt.Errorf("token.header is required")
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.Cache.AccountSize <= 0 {
		return fmt.Errorf("cache.account_size must be positive, got %d", c.Cache.AccountSize)
	}
	if c.Cache.AccountTTL <= 0 {
		return fmt.Errorf("cache.account_ttl must be positive, got %s", c.Cache.AccountTTL)
	}
	return nil
}
