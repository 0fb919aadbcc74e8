package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/quantabox/fyers-mcp-server/internal/auth"
	"github.com/quantabox/fyers-mcp-server/internal/envfile"
	"github.com/quantabox/fyers-mcp-server/internal/fyers"
	"github.com/quantabox/fyers-mcp-server/internal/tools"
)

// App orchestrates the lifecycle of the MCP server and the login flow
// components behind it.
type App struct {
	cfg    *Config
	server *tools.Server
}

// New creates a new App instance. The credentials file is loaded into the
// process environment here, so the broker app credentials are visible to
// every later component.
func New(cfg *Config, version string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	env := envfile.New(cfg.Auth.EnvFile)
	if err := env.Load(); err != nil {
		return nil, fmt.Errorf("loading credentials file: %w", err)
	}

	tokens, err := cfg.Auth.NewTokenStore(env)
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	// clientID is re-read per construction so an id added to the
	// credentials file after startup is picked up on the next attempt.
	cache := auth.NewCache(
		func() string { return os.Getenv(EnvClientID) },
		tokens,
		fyers.WithBaseURL(cfg.Broker.BaseURL),
	)

	authenticator := auth.NewAuthenticator(
		newSessionFactory(cfg),
		tokens,
		cache,
		auth.WithListenAddr(cfg.Listener.Addr()),
		auth.WithTimeout(cfg.Auth.Timeout),
	)

	server := tools.NewServer(version, authenticator, func(ctx context.Context) (tools.BrokerAPI, error) {
		return cache.Client(ctx)
	})

	return &App{
		cfg:    cfg,
		server: server,
	}, nil
}

// Start serves the MCP protocol on stdin/stdout and blocks until the
// context is cancelled or the host closes the stream.
func (a *App) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server",
		"transport", "stdio",
		"callback_address", a.cfg.Listener.Addr(),
	)

	if err := a.server.ServeStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}

	slog.Info("application stopped")
	return nil
}

// newSessionFactory builds OAuth sessions from the credentials currently
// in the environment. Credentials are read per attempt, not captured once.
func newSessionFactory(cfg *Config) auth.SessionFactory {
	redirectURI := cfg.Listener.RedirectURI()
	endpoint := fyers.EndpointFor(cfg.Broker.BaseURL)

	return func() (auth.TokenExchanger, error) {
		clientID := os.Getenv(EnvClientID)
		secretKey := os.Getenv(EnvSecretKey)
		if clientID == "" || secretKey == "" {
			return nil, fmt.Errorf("%s or %s not set", EnvClientID, EnvSecretKey)
		}
		return fyers.NewSession(clientID, secretKey, redirectURI, fyers.WithSessionEndpoint(endpoint))
	}
}
