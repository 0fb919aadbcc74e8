package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one authorization redirect. Exactly one Result
// is delivered per listener lifetime.
type Result struct {
	// AuthCode is the captured authorization code on success.
	AuthCode string
	// Err is ErrNoAuthCode when the redirect carried no code.
	Err error
}

const successPage = `<html><body>
<h2>Authentication Successful!</h2>
<p>You can close this browser window.</p>
<p>Return to your AI assistant to continue.</p>
</body></html>
`

const errorPage = `<html><body>
<h2>Authentication Failed</h2>
<p>No authorization code received.</p>
</body></html>
`

// CallbackListener is a one-shot local HTTP endpoint that captures the
// authorization provider's redirect. It serves at most one meaningful
// request, delivers the outcome on its result channel, and shuts itself
// down — after the first redirect, after idleTimeout, or when the start
// context is cancelled, whichever comes first.
//
// Redirect query parameters carry the authorization code, so request
// contents are never logged.
type CallbackListener struct {
	addr        string
	idleTimeout time.Duration

	server  *http.Server
	group   *errgroup.Group
	results chan Result
	done    chan struct{}
	once    sync.Once
	boundTo net.Addr
}

// NewCallbackListener creates a listener for the given address
// (host:port). The listener self-terminates if no redirect arrives within
// a minute; the orchestrator's own deadline is the authoritative bound.
func NewCallbackListener(addr string) *CallbackListener {
	return &CallbackListener{
		addr:        addr,
		idleTimeout: time.Minute,
		results:     make(chan Result, 1),
		done:        make(chan struct{}),
	}
}

// Start binds the local port and begins serving in the background. The
// socket is bound before Start returns, so the redirect URI is live as
// soon as the browser opens; a bind failure (port already in use) is
// returned immediately and nothing is delivered on the result channel.
//
// The caller is responsible for calling Shutdown() unless the listener
// stops on its own.
func (l *CallbackListener) Start(ctx context.Context) (<-chan Result, error) {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return nil, err
	}
	l.boundTo = ln.Addr()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", l.handleRedirect)

	l.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	l.group = new(errgroup.Group)
	l.group.Go(func() error {
		err := l.server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	l.group.Go(func() error {
		select {
		case <-l.done:
		case <-time.After(l.idleTimeout):
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return l.shutdownServer(shutdownCtx)
	})

	return l.results, nil
}

// Addr returns the bound address. Valid only after a successful Start.
func (l *CallbackListener) Addr() net.Addr {
	return l.boundTo
}

// handleRedirect serves the provider redirect. Providers vary in the query
// parameter naming, so both auth_code and code are accepted.
func (l *CallbackListener) handleRedirect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("auth_code")
	if code == "" {
		code = query.Get("code")
	}

	w.Header().Set("Content-Type", "text/html")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(errorPage))
		l.deliver(Result{Err: ErrNoAuthCode})
		return
	}

	_, _ = w.Write([]byte(successPage))
	l.deliver(Result{AuthCode: code})
}

// deliver publishes the result exactly once and triggers shutdown. The
// channel is buffered, so delivery never blocks the HTTP handler.
func (l *CallbackListener) deliver(result Result) {
	l.once.Do(func() {
		l.results <- result
		close(l.done)
	})
}

// Shutdown stops the listener and waits for its goroutines to finish.
// Safe to call after the listener has already stopped on its own.
func (l *CallbackListener) Shutdown(ctx context.Context) error {
	if l.server == nil {
		return nil
	}
	// Unblock the watchdog if no request ever arrived.
	l.once.Do(func() { close(l.done) })
	if err := l.shutdownServer(ctx); err != nil {
		return err
	}
	return l.group.Wait()
}

func (l *CallbackListener) shutdownServer(ctx context.Context) error {
	if err := l.server.Shutdown(ctx); err != nil {
		_ = l.server.Close()
		return err
	}
	return nil
}
