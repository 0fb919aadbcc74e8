package fyers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

// Endpoint defines the OAuth2 endpoints for Fyers authentication.
//
// Fyers deviates from standard OAuth2 on the token side: the exchange is a
// JSON-encoded request authenticated by appIdHash (SHA-256 of
// "client_id:secret_key") instead of client credentials in the form body,
// so Session implements it directly rather than through oauth2.Config.
var Endpoint = EndpointFor(DefaultBaseURL)

// EndpointFor returns the OAuth2 endpoints rooted at the given API base
// URL, for non-default environments.
func EndpointFor(baseURL string) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   baseURL + "/api/v3/generate-authcode",
		TokenURL:  baseURL + "/api/v3/validate-authcode",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// Session performs the authorization-code half of the login flow: building
// the provider authorization URL and exchanging the captured code for an
// access token.
type Session struct {
	clientID    string
	secretKey   string
	redirectURI string
	endpoint    oauth2.Endpoint
	httpClient  *http.Client
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionEndpoint overrides the OAuth endpoints, mainly for tests.
func WithSessionEndpoint(endpoint oauth2.Endpoint) SessionOption {
	return func(s *Session) {
		s.endpoint = endpoint
	}
}

// WithSessionHTTPClient sets a custom HTTP client for the token exchange.
func WithSessionHTTPClient(httpClient *http.Client) SessionOption {
	return func(s *Session) {
		s.httpClient = httpClient
	}
}

// NewSession creates a Session for the given app credentials and redirect
// URI. Both credentials are required.
func NewSession(clientID, secretKey, redirectURI string, opts ...SessionOption) (*Session, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client id cannot be empty")
	}
	if secretKey == "" {
		return nil, fmt.Errorf("secret key cannot be empty")
	}
	if redirectURI == "" {
		return nil, fmt.Errorf("redirect URI cannot be empty")
	}

	s := &Session{
		clientID:    clientID,
		secretKey:   secretKey,
		redirectURI: redirectURI,
		endpoint:    Endpoint,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AuthCodeURL returns the provider authorization URL the user's browser is
// sent to. The redirect back carries the authorization code.
func (s *Session) AuthCodeURL(state string) string {
	cfg := &oauth2.Config{
		ClientID:    s.clientID,
		RedirectURL: s.redirectURI,
		Endpoint:    s.endpoint,
	}
	return cfg.AuthCodeURL(state)
}

// tokenRequest is the JSON body of the validate-authcode call.
type tokenRequest struct {
	GrantType string `json:"grant_type"`
	AppIDHash string `json:"appIdHash"`
	Code      string `json:"code"`
}

// ExchangeCode trades the authorization code for an access token. The
// returned response carries the provider's status verbatim; callers must
// check Envelope.Code before using the token.
func (s *Session) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	hash := sha256.Sum256([]byte(s.clientID + ":" + s.secretKey))

	body, err := json.Marshal(tokenRequest{
		GrantType: "authorization_code",
		AppIDHash: hex.EncodeToString(hash[:]),
		Code:      code,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	var token TokenResponse
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("token exchange: HTTP %d, undecodable body %q", resp.StatusCode, truncate(string(data), 200))
	}
	return &token, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
