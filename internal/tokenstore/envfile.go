package tokenstore

import (
	"context"
	"fmt"
	"os"

	"github.com/quantabox/fyers-mcp-server/internal/envfile"
)

// EnvFileStore keeps the access token as one KEY=VALUE line of the local
// credentials file. Writes also mirror the token into the process
// environment so the broker client can be rebuilt without re-reading the
// file.
type EnvFileStore struct {
	store *envfile.Store
	key   string
}

// Compile-time check to ensure EnvFileStore implements TokenStore
var _ TokenStore = (*EnvFileStore)(nil)

// NewEnvFileStore creates an EnvFileStore persisting the token under key
// in the given env file.
func NewEnvFileStore(store *envfile.Store, key string) (*EnvFileStore, error) {
	if store == nil {
		return nil, fmt.Errorf("env file store cannot be nil")
	}
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	return &EnvFileStore{
		store: store,
		key:   key,
	}, nil
}

// Read returns the token from the env file, falling back to the process
// environment (the file is mirrored there at startup).
func (e *EnvFileStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if token, ok := e.store.Get(e.key); ok && token != "" {
		return token, nil
	}
	if token := os.Getenv(e.key); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("no %s in %s or environment", e.key, e.store.Path())
}

// Write persists the token to the env file (update-or-append) and mirrors
// it into the process environment.
func (e *EnvFileStore) Write(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := e.store.Set(e.key, token); err != nil {
		return fmt.Errorf("persisting %s: %w", e.key, err)
	}
	return os.Setenv(e.key, token)
}
