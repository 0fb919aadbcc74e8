package fyers

// Envelope carries the status fields every Fyers API response starts with.
// Code is the API-level status (200/201 on success), independent of the
// HTTP status.
type Envelope struct {
	S       string `json:"s"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OK reports whether the response carries an API-level success code.
func (e Envelope) OK() bool {
	return e.Code == CodeOK || e.Code == CodeCreated
}

// API-level status codes.
const (
	CodeOK      = 200
	CodeCreated = 201
)

// ProfileResponse is the payload of GET /api/v3/profile.
type ProfileResponse struct {
	Envelope
	Data Profile `json:"data"`
}

// Profile describes the account holder.
type Profile struct {
	Name         string `json:"name"`
	EmailID      string `json:"email_id"`
	MobileNumber string `json:"mobile_number"`
	FyID         string `json:"fy_id"`
}

// FundsResponse is the payload of GET /api/v3/funds. The broker returns
// one FundLimit entry per segment; the first entry carries the account
// totals.
type FundsResponse struct {
	Envelope
	FundLimit []FundLimit `json:"fund_limit"`
}

// FundLimit describes available and utilised balances.
type FundLimit struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	EquityAmount    float64 `json:"equityAmount"`
	CommodityAmount float64 `json:"commodityAmount"`
	UtilisedAmount  float64 `json:"utilisedAmount"`
	TotalBalance    float64 `json:"total_balance"`
}

// HoldingsResponse is the payload of GET /api/v3/holdings.
type HoldingsResponse struct {
	Envelope
	Holdings []Holding `json:"holdings"`
}

// Holding is one demat position.
type Holding struct {
	Symbol    string  `json:"symbol"`
	Quantity  float64 `json:"quantity"`
	LTP       float64 `json:"ltp"`
	CostPrice float64 `json:"costPrice"`
}

// PositionsResponse is the payload of GET /api/v3/positions.
type PositionsResponse struct {
	Envelope
	NetPositions []Position `json:"netPositions"`
}

// Position is one open intraday/derivative position. Side is positive for
// long, negative for short.
type Position struct {
	Symbol   string  `json:"symbol"`
	Qty      float64 `json:"qty"`
	Side     int     `json:"side"`
	AvgPrice float64 `json:"avgPrice"`
	LTP      float64 `json:"ltp"`
	PL       float64 `json:"pl"`
}

// OrderbookResponse is the payload of GET /api/v3/orders.
type OrderbookResponse struct {
	Envelope
	OrderBook []Order `json:"orderBook"`
}

// Order is one entry of the day's order book. Side follows the same sign
// convention as Position; Type and Status are the broker's numeric codes.
type Order struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Side       int     `json:"side"`
	Qty        float64 `json:"qty"`
	LimitPrice float64 `json:"limitPrice"`
	Type       int     `json:"type"`
	Status     int     `json:"status"`
}

// QuotesResponse is the payload of GET /data/quotes.
type QuotesResponse struct {
	Envelope
	D []Quote `json:"d"`
}

// Quote is one symbol's quote entry. N is the symbol name, V the values.
type Quote struct {
	N string      `json:"n"`
	S string      `json:"s"`
	V QuoteValues `json:"v"`
}

// QuoteValues carries the last traded price and day change for a symbol.
type QuoteValues struct {
	LP     float64 `json:"lp"`
	CH     float64 `json:"ch"`
	CHP    float64 `json:"chp"`
	Volume int64   `json:"volume"`
}

// Order type codes accepted by the order endpoints.
const (
	OrderTypeMarket    = 1
	OrderTypeLimit     = 2
	OrderTypeStop      = 3
	OrderTypeStopLimit = 4
)

// Order side codes.
const (
	SideBuy  = 1
	SideSell = -1
)

// OrderRequest is the body of POST /api/v3/orders/sync.
type OrderRequest struct {
	Symbol       string  `json:"symbol"`
	Qty          int     `json:"qty"`
	Type         int     `json:"type"`
	Side         int     `json:"side"`
	ProductType  string  `json:"productType"`
	LimitPrice   float64 `json:"limitPrice"`
	StopPrice    float64 `json:"stopPrice"`
	Validity     string  `json:"validity"`
	DisclosedQty int     `json:"disclosedQty"`
	OfflineOrder bool    `json:"offlineOrder"`
}

// ModifyOrderRequest is the body of PATCH /api/v3/orders/sync. Optional
// fields are omitted when nil so the broker leaves them unchanged.
type ModifyOrderRequest struct {
	ID         string   `json:"id"`
	Qty        *int     `json:"qty,omitempty"`
	LimitPrice *float64 `json:"limitPrice,omitempty"`
	StopPrice  *float64 `json:"stopPrice,omitempty"`
}

// CancelOrderRequest is the body of DELETE /api/v3/orders/sync.
type CancelOrderRequest struct {
	ID string `json:"id"`
}

// OrderResponse is the payload returned by the order endpoints.
type OrderResponse struct {
	Envelope
	ID string `json:"id"`
}

// TokenResponse is the payload of POST /api/v3/validate-authcode.
type TokenResponse struct {
	Envelope
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
