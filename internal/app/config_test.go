package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantabox/fyers-mcp-server/internal/envfile"
	"github.com/quantabox/fyers-mcp-server/internal/tokenstore"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, "localhost", cfg.Listener.Host)
	assert.Equal(t, uint16(8080), cfg.Listener.Port)
	assert.Equal(t, TokenStorageTypeEnvFile, cfg.Auth.Storage)
	assert.Equal(t, ".env", cfg.Auth.EnvFile)
	assert.Equal(t, time.Minute, cfg.Auth.Timeout)
	assert.Equal(t, DefaultConfigBrokerBaseURL, cfg.Broker.BaseURL)

	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		LogFormat: LogFormatJSON,
		Listener:  ListenerConfig{Host: "127.0.0.1", Port: 9090},
		Auth:      AuthConfig{Storage: TokenStorageTypeEnvFile, EnvFile: "/tmp/creds.env", Timeout: 5 * time.Second},
		Broker:    BrokerConfig{BaseURL: "https://sandbox.example"},
	}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, uint16(9090), cfg.Listener.Port)
	assert.Equal(t, "/tmp/creds.env", cfg.Auth.EnvFile)
	assert.Equal(t, 5*time.Second, cfg.Auth.Timeout)
	assert.Equal(t, "https://sandbox.example", cfg.Broker.BaseURL)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"bad log format", func(cfg *Config) { cfg.LogFormat = "yaml" }},
		{"bad storage", func(cfg *Config) { cfg.Auth.Storage = "vault" }},
		{"missing env file", func(cfg *Config) { cfg.Auth.EnvFile = "" }},
		{"bad base url", func(cfg *Config) { cfg.Broker.BaseURL = "not-a-url" }},
		{"zero timeout", func(cfg *Config) { cfg.Auth.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestListenerAddresses(t *testing.T) {
	l := ListenerConfig{Host: "localhost", Port: 8080}

	assert.Equal(t, "localhost:8080", l.Addr())
	assert.Equal(t, "http://localhost:8080/", l.RedirectURI())
}

func TestNewTokenStore(t *testing.T) {
	env := envfile.New(filepath.Join(t.TempDir(), ".env"))

	t.Run("envfile", func(t *testing.T) {
		cfg := AuthConfig{Storage: TokenStorageTypeEnvFile}
		store, err := cfg.NewTokenStore(env)
		require.NoError(t, err)
		assert.IsType(t, &tokenstore.EnvFileStore{}, store)
	})

	t.Run("keyring", func(t *testing.T) {
		cfg := AuthConfig{Storage: TokenStorageTypeKeyring, KeyringUser: "trader"}
		store, err := cfg.NewTokenStore(env)
		require.NoError(t, err)
		assert.IsType(t, &tokenstore.KeyringStore{}, store)
	})

	t.Run("unsupported", func(t *testing.T) {
		cfg := AuthConfig{Storage: "vault"}
		_, err := cfg.NewTokenStore(env)
		assert.Error(t, err)
	})
}
