package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/user"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/quantabox/fyers-mcp-server/internal/envfile"
	"github.com/quantabox/fyers-mcp-server/internal/fyers"
	"github.com/quantabox/fyers-mcp-server/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
	LogFormatOTLP LogFormat = "otlp"
)

// TokenStorageType represents the different storage types supported for the
// access token.
type TokenStorageType string

const (
	TokenStorageTypeEnvFile TokenStorageType = "envfile"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Environment variable names for the broker app credentials.
const (
	EnvClientID    = "FYERS_CLIENT_ID"
	EnvSecretKey   = "FYERS_SECRET_KEY"
	EnvAccessToken = "FYERS_ACCESS_TOKEN"
)

// keyringService identifies this application's entry in the OS keyring.
const keyringService = "fyers-mcp-server-token"

// Default configuration values
const (
	DefaultConfigLogFormat     = LogFormatText
	DefaultConfigListenerHost  = "localhost"
	DefaultConfigListenerPort  = 8080
	DefaultConfigAuthStorage   = TokenStorageTypeEnvFile
	DefaultConfigAuthEnvFile   = ".env"
	DefaultConfigAuthTimeout   = time.Minute
	DefaultConfigBrokerBaseURL = fyers.DefaultBaseURL
)

// ListenerConfig holds the OAuth callback listener address. It must match
// the redirect URI registered with the broker app.
type ListenerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type
}

// Addr returns the host:port the callback listener binds.
func (l ListenerConfig) Addr() string {
	return net.JoinHostPort(l.Host, strconv.FormatUint(uint64(l.Port), 10))
}

// RedirectURI returns the redirect URI derived from the listener address.
func (l ListenerConfig) RedirectURI() string {
	return fmt.Sprintf("http://%s:%d/", l.Host, l.Port)
}

// AuthConfig represents the configuration for the login flow and the
// access token storage.
type AuthConfig struct {
	// Storage configuration - where the access token is persisted
	Storage TokenStorageType `json:"storage" validate:"required,oneof=envfile keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	EnvFile     string `json:"env_file,omitempty"`     // For envfile storage: path to credentials file
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier

	// Timeout bounds the wait for the browser redirect during login.
	Timeout time.Duration `json:"timeout"`
}

// NewTokenStore creates a TokenStore from the authentication configuration.
// The env file store is backed by the given credentials file.
func (a *AuthConfig) NewTokenStore(env *envfile.Store) (tokenstore.TokenStore, error) {
	switch a.Storage {
	case TokenStorageTypeEnvFile:
		return tokenstore.NewEnvFileStore(env, EnvAccessToken)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(keyringService, a.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// BrokerConfig holds broker API configuration.
type BrokerConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level     `json:"log_level"`
	LogFormat LogFormat      `json:"log_format" validate:"oneof=text json otlp"`
	Listener  ListenerConfig `json:"listener"`
	Auth      AuthConfig     `json:"auth"`
	Broker    BrokerConfig   `json:"broker"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Listener.Host == "" {
		c.Listener.Host = DefaultConfigListenerHost
	}
	if c.Listener.Port == 0 {
		c.Listener.Port = DefaultConfigListenerPort
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.Auth.Timeout == 0 {
		c.Auth.Timeout = DefaultConfigAuthTimeout
	}
	if c.Broker.BaseURL == "" {
		c.Broker.BaseURL = DefaultConfigBrokerBaseURL
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case TokenStorageTypeEnvFile:
		if c.Auth.EnvFile == "" {
			c.Auth.EnvFile = DefaultConfigAuthEnvFile
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Auth.Storage {
	case TokenStorageTypeEnvFile:
		if c.Auth.EnvFile == "" {
			return errors.New("env_file path required for envfile storage")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}

	if c.Auth.Timeout <= 0 {
		return errors.New("auth timeout must be positive")
	}

	return nil
}
