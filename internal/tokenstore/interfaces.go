package tokenstore

import "context"

// TokenStore reads and writes the brokerage access token.
type TokenStore interface {
	// Read returns the stored access token. Returns an error if the token
	// is missing or empty.
	Read(ctx context.Context) (string, error)

	// Write persists the access token, overwriting any existing value.
	Write(ctx context.Context, token string) error
}
