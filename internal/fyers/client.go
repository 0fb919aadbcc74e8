// Package fyers is a typed client for the Fyers trading API (v3).
//
// Every call returns the endpoint's tagged response struct; the API-level
// status travels in the embedded Envelope and is left to the caller to
// interpret, so a broker-side rejection is data, not a Go error. Go errors
// are reserved for transport and decoding failures.
package fyers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultBaseURL is the Fyers API host.
const DefaultBaseURL = "https://api-t1.fyers.in"

// Client calls the Fyers trading API on behalf of one authenticated
// account. The access token is bound at construction time; a refreshed
// token requires a new Client.
type Client struct {
	baseURL     string
	clientID    string
	accessToken string
	httpClient  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API host, mainly for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the given app id and access token.
func NewClient(clientID, accessToken string, opts ...ClientOption) (*Client, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client id cannot be empty")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("access token cannot be empty")
	}

	c := &Client{
		baseURL:     DefaultBaseURL,
		clientID:    clientID,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetProfile fetches the account holder's profile.
func (c *Client) GetProfile(ctx context.Context) (*ProfileResponse, error) {
	var resp ProfileResponse
	if err := c.call(ctx, http.MethodGet, "/api/v3/profile", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Funds fetches available and utilised balances.
func (c *Client) Funds(ctx context.Context) (*FundsResponse, error) {
	var resp FundsResponse
	if err := c.call(ctx, http.MethodGet, "/api/v3/funds", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Holdings fetches the demat holdings.
func (c *Client) Holdings(ctx context.Context) (*HoldingsResponse, error) {
	var resp HoldingsResponse
	if err := c.call(ctx, http.MethodGet, "/api/v3/holdings", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Positions fetches the open net positions.
func (c *Client) Positions(ctx context.Context) (*PositionsResponse, error) {
	var resp PositionsResponse
	if err := c.call(ctx, http.MethodGet, "/api/v3/positions", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Orderbook fetches the day's orders.
func (c *Client) Orderbook(ctx context.Context) (*OrderbookResponse, error) {
	var resp OrderbookResponse
	if err := c.call(ctx, http.MethodGet, "/api/v3/orders", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Quotes fetches live quotes for the given symbols.
func (c *Client) Quotes(ctx context.Context, symbols []string) (*QuotesResponse, error) {
	query := url.Values{"symbols": {strings.Join(symbols, ",")}}
	var resp QuotesResponse
	if err := c.call(ctx, http.MethodGet, "/data/quotes?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlaceOrder submits a new order.
func (c *Client) PlaceOrder(ctx context.Context, order OrderRequest) (*OrderResponse, error) {
	var resp OrderResponse
	if err := c.call(ctx, http.MethodPost, "/api/v3/orders/sync", order, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ModifyOrder updates a pending order.
func (c *Client) ModifyOrder(ctx context.Context, modify ModifyOrderRequest) (*OrderResponse, error) {
	var resp OrderResponse
	if err := c.call(ctx, http.MethodPatch, "/api/v3/orders/sync", modify, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelOrder cancels a pending order.
func (c *Client) CancelOrder(ctx context.Context, cancel CancelOrderRequest) (*OrderResponse, error) {
	var resp OrderResponse
	if err := c.call(ctx, http.MethodDelete, "/api/v3/orders/sync", cancel, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// call performs one API request and decodes the response into out. The
// body is decoded regardless of HTTP status since the broker reports
// failures inside the envelope.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", c.clientID+":"+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: HTTP %d, undecodable body: %w", method, path, resp.StatusCode, err)
	}
	return nil
}
