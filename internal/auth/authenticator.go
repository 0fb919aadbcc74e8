// Package auth implements the browser-based login flow against the
// brokerage's authorization endpoint: a one-shot local callback listener,
// the orchestrating Authenticator, and the cached broker client handle.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/browser"

	"github.com/quantabox/fyers-mcp-server/internal/fyers"
	"github.com/quantabox/fyers-mcp-server/internal/tokenstore"
)

// StateToken is the state parameter sent with the authorization request.
// The provider echoes it on the redirect; a fixed value matches the
// registered app configuration.
const StateToken = "sample_state"

// TokenExchanger builds the provider authorization URL and trades an
// authorization code for an access token. *fyers.Session implements it.
type TokenExchanger interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*fyers.TokenResponse, error)
}

// SessionFactory creates a TokenExchanger from the current credentials.
// It is invoked per attempt so credentials loaded after startup are seen;
// it returns an error when the credential pair is incomplete.
type SessionFactory func() (TokenExchanger, error)

// Authenticator drives the end-to-end login flow: start the callback
// listener, open the authorization URL in the user's browser, wait for the
// redirect, exchange the code, persist the token, and invalidate the
// cached broker client.
type Authenticator struct {
	newSession SessionFactory
	tokens     tokenstore.TokenStore
	cache      *Cache

	listenAddr string
	timeout    time.Duration
	openURL    func(url string) error

	inProgress atomic.Bool
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithListenAddr sets the callback listener address. Must match the
// redirect URI registered with the provider.
func WithListenAddr(addr string) AuthenticatorOption {
	return func(a *Authenticator) {
		a.listenAddr = addr
	}
}

// WithTimeout bounds the wait for the browser redirect.
func WithTimeout(timeout time.Duration) AuthenticatorOption {
	return func(a *Authenticator) {
		a.timeout = timeout
	}
}

// WithOpenURL overrides how the authorization URL is opened, for tests.
func WithOpenURL(open func(url string) error) AuthenticatorOption {
	return func(a *Authenticator) {
		a.openURL = open
	}
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(newSession SessionFactory, tokens tokenstore.TokenStore, cache *Cache, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		newSession: newSession,
		tokens:     tokens,
		cache:      cache,
		listenAddr: "localhost:8080",
		timeout:    time.Minute,
		openURL:    browser.OpenURL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate runs one login attempt. On success the fresh access token
// has been persisted and the cached broker client invalidated, so the next
// tool call rebuilds it with the new token. Only one attempt may run at a
// time; a concurrent call fails with ErrInProgress instead of racing for
// the callback port.
func (a *Authenticator) Authenticate(ctx context.Context) error {
	if !a.inProgress.CompareAndSwap(false, true) {
		return ErrInProgress
	}
	defer a.inProgress.Store(false)

	session, err := a.newSession()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigMissing, err)
	}

	listener := NewCallbackListener(a.listenAddr)
	results, err := listener.Start(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListenerStartup, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = listener.Shutdown(shutdownCtx)
	}()

	// Fire and forget: if the browser cannot be opened the user can still
	// navigate to the URL manually, so the flow keeps waiting.
	authURL := session.AuthCodeURL(StateToken)
	if err := a.openURL(authURL); err != nil {
		slog.Warn("could not open browser, navigate to the authorization URL manually", "error", err)
	}

	var code string
	select {
	case result := <-results:
		if result.Err != nil {
			return result.Err
		}
		code = result.AuthCode
	case <-time.After(a.timeout):
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	token, err := session.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if token.Code != http.StatusOK || token.AccessToken == "" {
		return fmt.Errorf("%w: provider returned s=%q code=%d message=%q", ErrTokenExchange, token.S, token.Code, token.Message)
	}

	if err := a.tokens.Write(ctx, token.AccessToken); err != nil {
		return fmt.Errorf("persisting access token: %w", err)
	}
	a.cache.Invalidate()

	return nil
}
