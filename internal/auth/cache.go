package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/quantabox/fyers-mcp-server/internal/fyers"
	"github.com/quantabox/fyers-mcp-server/internal/tokenstore"
)

// Cache is the single point of lazy construction for the broker client.
// The underlying client binds the access token at construction time, so a
// fresh token requires discarding the cached handle; Invalidate is called
// by the Authenticator after every successful token refresh.
type Cache struct {
	clientID func() string
	tokens   tokenstore.TokenStore
	opts     []fyers.ClientOption

	mu     sync.Mutex
	client *fyers.Client
}

// NewCache creates a Cache. clientID is read at construction time of each
// handle rather than captured once, so credentials added to the
// environment after startup are picked up.
func NewCache(clientID func() string, tokens tokenstore.TokenStore, opts ...fyers.ClientOption) *Cache {
	return &Cache{
		clientID: clientID,
		tokens:   tokens,
		opts:     opts,
	}
}

// Client returns the shared broker client, constructing it from the
// current credentials if needed. Returns ErrClientUnavailable when the
// client id or access token is missing.
func (c *Cache) Client(ctx context.Context) (*fyers.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	clientID := c.clientID()
	if clientID == "" {
		return nil, fmt.Errorf("%w: no client id configured", ErrClientUnavailable)
	}

	token, err := c.tokens.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClientUnavailable, err)
	}

	client, err := fyers.NewClient(clientID, token, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClientUnavailable, err)
	}

	c.client = client
	return client, nil
}

// Invalidate discards the cached handle, forcing reconstruction with the
// current access token on the next Client call.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = nil
}
