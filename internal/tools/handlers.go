package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/quantabox/fyers-mcp-server/internal/auth"
	"github.com/quantabox/fyers-mcp-server/internal/fyers"
)

const notAuthenticatedMsg = "❌ Not authenticated. Use 'authenticate' tool first."

// orderTypes maps tool-level order type names to broker codes.
var orderTypes = map[string]int{
	"MARKET":    fyers.OrderTypeMarket,
	"LIMIT":     fyers.OrderTypeLimit,
	"STOP":      fyers.OrderTypeStop,
	"STOPLIMIT": fyers.OrderTypeStopLimit,
}

// orderSides maps tool-level side names to broker codes.
var orderSides = map[string]int{
	"BUY":  fyers.SideBuy,
	"SELL": fyers.SideSell,
}

func (s *Server) handleAuthenticate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	err := s.auth.Authenticate(ctx)
	switch {
	case err == nil:
		return mcp.NewToolResultText("✅ Authentication successful! All trading functions are now available."), nil
	case errors.Is(err, auth.ErrConfigMissing):
		return mcp.NewToolResultText("❌ Missing FYERS_CLIENT_ID or FYERS_SECRET_KEY in environment"), nil
	case errors.Is(err, auth.ErrInProgress):
		return mcp.NewToolResultText("❌ Authentication already in progress. Complete the open browser flow first."), nil
	case errors.Is(err, auth.ErrTimeout):
		return mcp.NewToolResultText("❌ Authentication timeout. Please try again."), nil
	case errors.Is(err, auth.ErrTokenExchange):
		return mcp.NewToolResultText(fmt.Sprintf("❌ %v", err)), nil
	default:
		return mcp.NewToolResultText(fmt.Sprintf("❌ Authentication failed: %v", err)), nil
	}
}

func (s *Server) handleCheckAuthStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.broker(ctx)
	if err != nil {
		return mcp.NewToolResultText(notAuthenticatedMsg), nil
	}

	// The stored token may be stale; a profile fetch proves it still works.
	profile, err := client.GetProfile(ctx)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Auth check failed: %v", err)), nil
	}
	if !profile.OK() {
		return mcp.NewToolResultText("❌ Token expired or invalid. Use 'authenticate' tool to refresh."), nil
	}

	name := profile.Data.Name
	if name == "" {
		name = "User"
	}
	return mcp.NewToolResultText(fmt.Sprintf("✅ Authenticated as: %s", name)), nil
}

func (s *Server) handleGetProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.broker(ctx)
	if err != nil {
		return mcp.NewToolResultText(notAuthenticatedMsg), nil
	}

	profile, err := client.GetProfile(ctx)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Profile error: %v", err)), nil
	}
	if !profile.OK() {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Failed to get profile: %s", describeFailure(profile.Envelope))), nil
	}
	return mcp.NewToolResultText(formatProfile(profile.Data)), nil
}

func (s *Server) handleGetFunds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.broker(ctx)
	if err != nil {
		return mcp.NewToolResultText(notAuthenticatedMsg), nil
	}

	funds, err := client.Funds(ctx)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Funds error: %v", err)), nil
	}
	if !funds.OK() {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Failed to get funds: %s", describeFailure(funds.Envelope))), nil
	}
	return mcp.NewToolResultText(formatFunds(funds.FundLimit)), nil
}

func (s *Server) handleGetHoldings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.broker(ctx)
	if err != nil {
		return mcp.NewToolResultText(notAuthenticatedMsg), nil
	}

	holdings, err := client.Holdings(ctx)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Holdings error: %v", err)), nil
	}
	if !holdings.OK() {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Failed to get holdings: %s", describeFailure(holdings.Envelope))), nil
	}
	return mcp.NewToolResultText(formatHoldings(holdings.Holdings)), nil
}

func (s *Server) handleGetPositions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.broker(ctx)
	if err != nil {
		return mcp.NewToolResultText(notAuthenticatedMsg), nil
	}

	positions, err := client.Positions(ctx)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Positions error: %v", err)), nil
	}
	if !positions.OK() {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Failed to get positions: %s", describeFailure(positions.Envelope))), nil
	}
	return mcp.NewToolResultText(formatPositions(positions.NetPositions)), nil
}

func (s *Server) handleGetOrders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.broker(ctx)
	if err != nil {
		return mcp.NewToolResultText(notAuthenticatedMsg), nil
	}

	orders, err := client.Orderbook(ctx)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Orders error: %v", err)), nil
	}
	if !orders.OK() {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Failed to get orders: %s", describeFailure(orders.Envelope))), nil
	}
	return mcp.NewToolResultText(formatOrders(orders.OrderBook)), nil
}

func (s *Server) handleGetQuotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbolsArg, err := request.RequireString("symbols")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.broker(ctx)
	if err != nil {
		return mcp.NewToolResultText(notAuthenticatedMsg), nil
	}

	var symbols []string
	for _, symbol := range strings.Split(symbolsArg, ",") {
		if symbol = strings.TrimSpace(symbol); symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		return mcp.NewToolResultError("symbols must contain at least one symbol"), nil
	}

	quotes, err := client.Quotes(ctx, symbols)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Quotes error: %v", err)), nil
	}
	if !quotes.OK() {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Failed to get quotes: %s", describeFailure(quotes.Envelope))), nil
	}
	return mcp.NewToolResultText(formatQuotes(quotes.D)), nil
}

func (s *Server) handlePlaceOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := request.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	quantity, err := request.RequireInt("quantity")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	orderType, err := request.RequireString("order_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	side, err := request.RequireString("side")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.broker(ctx)
	if err != nil {
		return mcp.NewToolResultText(notAuthenticatedMsg), nil
	}

	typeCode, ok := orderTypes[strings.ToUpper(orderType)]
	if !ok {
		typeCode = fyers.OrderTypeLimit
	}
	sideCode, ok := orderSides[strings.ToUpper(side)]
	if !ok {
		sideCode = fyers.SideBuy
	}

	order := fyers.OrderRequest{
		Symbol:      symbol,
		Qty:         quantity,
		Type:        typeCode,
		Side:        sideCode,
		ProductType: request.GetString("product_type", "MARGIN"),
		LimitPrice:  request.GetFloat("limit_price", 0),
		StopPrice:   request.GetFloat("stop_price", 0),
		Validity:    request.GetString("validity", "DAY"),
	}

	resp, err := client.PlaceOrder(ctx, order)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Order error: %v", err)), nil
	}
	if resp.Code != fyers.CodeCreated {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Order placement failed: %s", failureMessage(resp.Envelope))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"✅ Order placed successfully!\nOrder ID: %s\nSymbol: %s\nQty: %d %s\nType: %s",
		resp.ID, symbol, quantity, strings.ToUpper(side), strings.ToUpper(orderType),
	)), nil
}

func (s *Server) handleModifyOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orderID, err := request.RequireString("order_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.broker(ctx)
	if err != nil {
		return mcp.NewToolResultText(notAuthenticatedMsg), nil
	}

	// Only fields present in the request are sent, so the broker leaves the
	// rest of the order untouched.
	modify := fyers.ModifyOrderRequest{ID: orderID}
	args := request.GetArguments()
	if _, ok := args["quantity"]; ok {
		qty := request.GetInt("quantity", 0)
		modify.Qty = &qty
	}
	if _, ok := args["limit_price"]; ok {
		price := request.GetFloat("limit_price", 0)
		modify.LimitPrice = &price
	}
	if _, ok := args["stop_price"]; ok {
		price := request.GetFloat("stop_price", 0)
		modify.StopPrice = &price
	}
	if modify.Qty == nil && modify.LimitPrice == nil && modify.StopPrice == nil {
		return mcp.NewToolResultError("at least one of quantity, limit_price or stop_price is required"), nil
	}

	resp, err := client.ModifyOrder(ctx, modify)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Modify error: %v", err)), nil
	}
	if !resp.OK() {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Order modification failed: %s", failureMessage(resp.Envelope))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("✅ Order modified successfully!\nOrder ID: %s", orderID)), nil
}

func (s *Server) handleCancelOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orderID, err := request.RequireString("order_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.broker(ctx)
	if err != nil {
		return mcp.NewToolResultText(notAuthenticatedMsg), nil
	}

	resp, err := client.CancelOrder(ctx, fyers.CancelOrderRequest{ID: orderID})
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Cancel error: %v", err)), nil
	}
	if !resp.OK() {
		return mcp.NewToolResultText(fmt.Sprintf("❌ Order cancellation failed: %s", failureMessage(resp.Envelope))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("✅ Order cancelled successfully!\nOrder ID: %s", orderID)), nil
}

// describeFailure renders a broker error envelope for diagnostics.
func describeFailure(e fyers.Envelope) string {
	return fmt.Sprintf("s=%s code=%d message=%q", e.S, e.Code, e.Message)
}

// failureMessage picks the broker's human-readable message, falling back
// to a placeholder when the envelope carries none.
func failureMessage(e fyers.Envelope) string {
	if e.Message == "" {
		return "Unknown error"
	}
	return e.Message
}
