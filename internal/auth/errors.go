package auth

import "errors"

// Failure modes of the authentication flow. The tool layer maps these to
// user-facing messages; everything else surfaces as a wrapped error.
var (
	// ErrConfigMissing indicates FYERS_CLIENT_ID or FYERS_SECRET_KEY is
	// absent from the environment.
	ErrConfigMissing = errors.New("missing broker credentials")

	// ErrInProgress indicates a concurrent Authenticate call holds the
	// callback port.
	ErrInProgress = errors.New("authentication already in progress")

	// ErrListenerStartup indicates the local callback listener could not
	// bind its port.
	ErrListenerStartup = errors.New("callback listener failed to start")

	// ErrTimeout indicates no redirect arrived within the wait budget.
	ErrTimeout = errors.New("authentication timed out")

	// ErrNoAuthCode indicates the redirect arrived without an
	// authorization code.
	ErrNoAuthCode = errors.New("no auth code received")

	// ErrTokenExchange indicates the provider rejected the authorization
	// code.
	ErrTokenExchange = errors.New("token generation failed")

	// ErrClientUnavailable indicates the broker client could not be
	// constructed from the stored credentials.
	ErrClientUnavailable = errors.New("broker client unavailable")
)
