// Package tools exposes the trading operations as MCP tools over stdio.
//
// Handlers are thin formatting layers: every broker call result, including
// broker-side rejections, is rendered as a status-prefixed text message.
// No fault crosses the tool boundary as a protocol error.
package tools

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quantabox/fyers-mcp-server/internal/fyers"
)

// ServerName identifies this MCP server to connecting hosts.
const ServerName = "fyers-mcp-server"

// BrokerAPI is the slice of the broker client the tool handlers consume.
// *fyers.Client implements it.
type BrokerAPI interface {
	GetProfile(ctx context.Context) (*fyers.ProfileResponse, error)
	Funds(ctx context.Context) (*fyers.FundsResponse, error)
	Holdings(ctx context.Context) (*fyers.HoldingsResponse, error)
	Positions(ctx context.Context) (*fyers.PositionsResponse, error)
	Orderbook(ctx context.Context) (*fyers.OrderbookResponse, error)
	Quotes(ctx context.Context, symbols []string) (*fyers.QuotesResponse, error)
	PlaceOrder(ctx context.Context, order fyers.OrderRequest) (*fyers.OrderResponse, error)
	ModifyOrder(ctx context.Context, modify fyers.ModifyOrderRequest) (*fyers.OrderResponse, error)
	CancelOrder(ctx context.Context, cancel fyers.CancelOrderRequest) (*fyers.OrderResponse, error)
}

// ClientSource returns the current broker client, or an error when the
// stored credentials cannot produce one.
type ClientSource func(ctx context.Context) (BrokerAPI, error)

// Authenticator runs one browser-based login attempt.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

// Server wires the trading tool handlers into an MCP server.
type Server struct {
	mcpServer *server.MCPServer
	auth      Authenticator
	broker    ClientSource
}

// NewServer creates the MCP server and registers all trading tools.
func NewServer(version string, auth Authenticator, broker ClientSource) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(false),
		),
		auth:   auth,
		broker: broker,
	}
	s.registerTools()
	return s
}

// ServeStdio handles MCP protocol communication over stdin/stdout until
// the context is cancelled or the host closes the stream.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("authenticate",
		mcp.WithDescription("Smart OAuth authentication - opens browser and captures redirect automatically"),
	), s.handleAuthenticate)

	s.mcpServer.AddTool(mcp.NewTool("check_auth_status",
		mcp.WithDescription("Check current authentication status"),
	), s.handleCheckAuthStatus)

	s.mcpServer.AddTool(mcp.NewTool("get_profile",
		mcp.WithDescription("Get user profile information"),
	), s.handleGetProfile)

	s.mcpServer.AddTool(mcp.NewTool("get_funds",
		mcp.WithDescription("Get account funds information"),
	), s.handleGetFunds)

	s.mcpServer.AddTool(mcp.NewTool("get_holdings",
		mcp.WithDescription("Get portfolio holdings"),
	), s.handleGetHoldings)

	s.mcpServer.AddTool(mcp.NewTool("get_positions",
		mcp.WithDescription("Get current trading positions"),
	), s.handleGetPositions)

	s.mcpServer.AddTool(mcp.NewTool("get_orders",
		mcp.WithDescription("Get order history"),
	), s.handleGetOrders)

	s.mcpServer.AddTool(mcp.NewTool("get_quotes",
		mcp.WithDescription("Get live quotes for symbols"),
		mcp.WithString("symbols",
			mcp.Required(),
			mcp.Description(`Comma-separated symbols (e.g., "NSE:SBIN-EQ,NSE:RELIANCE-EQ")`),
		),
	), s.handleGetQuotes)

	s.mcpServer.AddTool(mcp.NewTool("place_order",
		mcp.WithDescription("Place a new order"),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description(`Trading symbol (e.g., "NSE:SBIN-EQ")`),
		),
		mcp.WithNumber("quantity",
			mcp.Required(),
			mcp.Description("Number of shares"),
		),
		mcp.WithString("order_type",
			mcp.Required(),
			mcp.Description(`Order type ("MARKET", "LIMIT", "STOP", "STOPLIMIT")`),
		),
		mcp.WithString("side",
			mcp.Required(),
			mcp.Description(`Order side ("BUY" or "SELL")`),
		),
		mcp.WithString("product_type",
			mcp.DefaultString("MARGIN"),
			mcp.Description(`Product type ("MARGIN", "INTRADAY", "CNC", "BO", "CO")`),
		),
		mcp.WithNumber("limit_price",
			mcp.DefaultNumber(0),
			mcp.Description("Limit price (for LIMIT orders)"),
		),
		mcp.WithNumber("stop_price",
			mcp.DefaultNumber(0),
			mcp.Description("Stop price (for STOP orders)"),
		),
		mcp.WithString("validity",
			mcp.DefaultString("DAY"),
			mcp.Description(`Order validity ("DAY", "IOC", "GTD")`),
		),
	), s.handlePlaceOrder)

	s.mcpServer.AddTool(mcp.NewTool("modify_order",
		mcp.WithDescription("Modify an existing order"),
		mcp.WithString("order_id",
			mcp.Required(),
			mcp.Description("Order ID to modify"),
		),
		mcp.WithNumber("quantity",
			mcp.Description("New quantity (optional)"),
		),
		mcp.WithNumber("limit_price",
			mcp.Description("New limit price (optional)"),
		),
		mcp.WithNumber("stop_price",
			mcp.Description("New stop price (optional)"),
		),
	), s.handleModifyOrder)

	s.mcpServer.AddTool(mcp.NewTool("cancel_order",
		mcp.WithDescription("Cancel an existing order"),
		mcp.WithString("order_id",
			mcp.Required(),
			mcp.Description("Order ID to cancel"),
		),
	), s.handleCancelOrder)
}
