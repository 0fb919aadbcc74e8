package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantabox/fyers-mcp-server/internal/fyers"
)

type fakeExchanger struct {
	resp    *fyers.TokenResponse
	err     error
	gotCode string
}

func (f *fakeExchanger) AuthCodeURL(state string) string {
	return "https://broker.example/authorize?state=" + state
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code string) (*fyers.TokenResponse, error) {
	f.gotCode = code
	return f.resp, f.err
}

type memTokenStore struct {
	token    string
	writeErr error
}

func (m *memTokenStore) Read(ctx context.Context) (string, error) {
	if m.token == "" {
		return "", errors.New("no token stored")
	}
	return m.token, nil
}

func (m *memTokenStore) Write(ctx context.Context, token string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.token = token
	return nil
}

func sessionFactory(exchanger TokenExchanger) SessionFactory {
	return func() (TokenExchanger, error) { return exchanger, nil }
}

// redirectTo returns an openURL stub that simulates the user completing
// the browser flow by hitting the callback listener with the given query.
func redirectTo(addr, query string) func(string) error {
	return func(string) error {
		resp, err := http.Get(fmt.Sprintf("http://%s/?%s", addr, query))
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	const addr = "127.0.0.1:18481"

	exchanger := &fakeExchanger{
		resp: &fyers.TokenResponse{Envelope: fyers.Envelope{S: "ok", Code: 200}, AccessToken: "fresh-token"},
	}
	store := &memTokenStore{token: "stale-token"}
	cache := NewCache(func() string { return "ABC-100" }, store)

	// Prime the cache so invalidation is observable.
	stale, err := cache.Client(context.Background())
	require.NoError(t, err)

	a := NewAuthenticator(sessionFactory(exchanger), store, cache,
		WithListenAddr(addr),
		WithOpenURL(redirectTo(addr, "auth_code=XYZ123")),
	)

	require.NoError(t, a.Authenticate(context.Background()))

	assert.Equal(t, "XYZ123", exchanger.gotCode)
	assert.Equal(t, "fresh-token", store.token)

	rebuilt, err := cache.Client(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, stale, rebuilt, "cache should rebuild the client after token refresh")
}

func TestAuthenticateConfigMissing(t *testing.T) {
	store := &memTokenStore{}
	a := NewAuthenticator(
		func() (TokenExchanger, error) { return nil, errors.New("FYERS_CLIENT_ID not set") },
		store,
		NewCache(func() string { return "" }, store),
	)

	err := a.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrConfigMissing)
	assert.Empty(t, store.token, "no partial state on precondition failure")
}

func TestAuthenticateDenied(t *testing.T) {
	const addr = "127.0.0.1:18482"

	store := &memTokenStore{}
	a := NewAuthenticator(sessionFactory(&fakeExchanger{}), store,
		NewCache(func() string { return "ABC-100" }, store),
		WithListenAddr(addr),
		WithOpenURL(redirectTo(addr, "foo=bar")),
	)

	err := a.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrNoAuthCode)
	assert.Empty(t, store.token)
}

func TestAuthenticateTimeout(t *testing.T) {
	store := &memTokenStore{}
	a := NewAuthenticator(sessionFactory(&fakeExchanger{}), store,
		NewCache(func() string { return "ABC-100" }, store),
		WithListenAddr("127.0.0.1:0"),
		WithTimeout(100*time.Millisecond),
		WithOpenURL(func(string) error { return nil }),
	)

	err := a.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Empty(t, store.token, "token unchanged after timeout")
}

func TestAuthenticateTokenExchangeRejected(t *testing.T) {
	const addr = "127.0.0.1:18483"

	exchanger := &fakeExchanger{
		resp: &fyers.TokenResponse{Envelope: fyers.Envelope{S: "error", Code: -413, Message: "invalid auth code"}},
	}
	store := &memTokenStore{}
	a := NewAuthenticator(sessionFactory(exchanger), store,
		NewCache(func() string { return "ABC-100" }, store),
		WithListenAddr(addr),
		WithOpenURL(redirectTo(addr, "code=XYZ123")),
	)

	err := a.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrTokenExchange)
	assert.Contains(t, err.Error(), "invalid auth code", "provider response surfaced verbatim")
	assert.Empty(t, store.token)
}

func TestAuthenticateListenerStartupFailure(t *testing.T) {
	const addr = "127.0.0.1:18484"

	// Occupy the callback port with another listener.
	blocker := NewCallbackListener(addr)
	_, err := blocker.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = blocker.Shutdown(ctx)
	})

	store := &memTokenStore{}
	a := NewAuthenticator(sessionFactory(&fakeExchanger{}), store,
		NewCache(func() string { return "ABC-100" }, store),
		WithListenAddr(addr),
	)

	err = a.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrListenerStartup)
}

func TestAuthenticateRejectsConcurrentAttempt(t *testing.T) {
	store := &memTokenStore{}
	a := NewAuthenticator(sessionFactory(&fakeExchanger{}), store,
		NewCache(func() string { return "ABC-100" }, store),
	)

	a.inProgress.Store(true)
	err := a.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrInProgress)
}

func TestAuthenticateBrowserFailureIsNotFatal(t *testing.T) {
	const addr = "127.0.0.1:18485"

	exchanger := &fakeExchanger{
		resp: &fyers.TokenResponse{Envelope: fyers.Envelope{S: "ok", Code: 200}, AccessToken: "fresh-token"},
	}
	store := &memTokenStore{}

	redirect := redirectTo(addr, "code=XYZ123")
	a := NewAuthenticator(sessionFactory(exchanger), store,
		NewCache(func() string { return "ABC-100" }, store),
		WithListenAddr(addr),
		WithOpenURL(func(url string) error {
			// Simulate a headless host: the open fails but the user still
			// completes the flow manually.
			go func() { _ = redirect(url) }()
			return errors.New("no browser available")
		}),
	)

	require.NoError(t, a.Authenticate(context.Background()))
	assert.Equal(t, "fresh-token", store.token)
}
