package auth

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startListener starts a CallbackListener on an ephemeral port and returns
// its result channel and base URL.
func startListener(t *testing.T, ctx context.Context) (*CallbackListener, <-chan Result, string) {
	t.Helper()

	listener := NewCallbackListener("127.0.0.1:0")
	results, err := listener.Start(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = listener.Shutdown(shutdownCtx)
	})

	return listener, results, "http://" + listener.Addr().String()
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestListenerCapturesCode(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"code parameter", "code=XYZ123"},
		{"auth_code parameter", "auth_code=XYZ123"},
		{"both parameters prefers auth_code", "auth_code=XYZ123&code=other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, results, baseURL := startListener(t, context.Background())

			resp := get(t, baseURL+"/?"+tt.query)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), "Authentication Successful")

			select {
			case result := <-results:
				require.NoError(t, result.Err)
				assert.Equal(t, "XYZ123", result.AuthCode)
			case <-time.After(time.Second):
				t.Fatal("no result delivered")
			}
		})
	}
}

func TestListenerRejectsRedirectWithoutCode(t *testing.T) {
	_, results, baseURL := startListener(t, context.Background())

	resp := get(t, baseURL+"/?foo=bar")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Authentication Failed")

	select {
	case result := <-results:
		assert.ErrorIs(t, result.Err, ErrNoAuthCode)
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
}

func TestListenerDeliversExactlyOnce(t *testing.T) {
	listener, results, baseURL := startListener(t, context.Background())

	get(t, baseURL+"/?code=first")

	// A straggler redirect must not produce a second result. The listener
	// may already be shutting down, so a connection error is acceptable.
	resp, err := http.Get(baseURL + "/?code=second")
	if err == nil {
		_ = resp.Body.Close()
	}

	result := <-results
	assert.Equal(t, "first", result.AuthCode)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, listener.Shutdown(shutdownCtx))

	select {
	case extra, ok := <-results:
		if ok {
			t.Fatalf("unexpected second result: %+v", extra)
		}
	default:
	}
}

func TestListenerStartupFailureOnBoundPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	listener := NewCallbackListener(ln.Addr().String())
	_, err = listener.Start(context.Background())
	assert.Error(t, err)
}

func TestListenerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	listener, _, baseURL := startListener(t, ctx)

	cancel()

	require.Eventually(t, func() bool {
		_, err := http.Get(fmt.Sprintf("%s/?code=late", baseURL))
		return err != nil
	}, 2*time.Second, 50*time.Millisecond, "listener should stop accepting after cancellation")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	require.NoError(t, listener.Shutdown(shutdownCtx))
}
