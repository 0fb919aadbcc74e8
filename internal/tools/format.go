package tools

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/quantabox/fyers-mcp-server/internal/fyers"
)

// grouped renders rupee amounts and volumes with comma separators, the way
// trading UIs in this market display them.
var grouped = message.NewPrinter(language.English)

// maxOrdersShown caps the order history output to the most recent entries.
const maxOrdersShown = 10

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func formatProfile(p fyers.Profile) string {
	return fmt.Sprintf(
		"✅ Profile Information:\nName: %s\nEmail: %s\nMobile: %s\nClient ID: %s",
		valueOr(p.Name, "N/A"),
		valueOr(p.EmailID, "N/A"),
		valueOr(p.MobileNumber, "N/A"),
		valueOr(p.FyID, "N/A"),
	)
}

func formatFunds(limits []fyers.FundLimit) string {
	var totals fyers.FundLimit
	if len(limits) > 0 {
		totals = limits[0]
	}
	return "✅ Account Funds:\n" +
		grouped.Sprintf("Equity Available: ₹%.2f\n", totals.EquityAmount) +
		grouped.Sprintf("Commodity Available: ₹%.2f\n", totals.CommodityAmount) +
		grouped.Sprintf("Used Margin: ₹%.2f\n", totals.UtilisedAmount) +
		grouped.Sprintf("Total Balance: ₹%.2f", totals.TotalBalance)
}

func formatHoldings(holdings []fyers.Holding) string {
	if len(holdings) == 0 {
		return "📊 No holdings found"
	}

	var b strings.Builder
	b.WriteString("📊 Portfolio Holdings:\n")

	var totalValue, totalPnL float64
	for _, h := range holdings {
		value := h.Quantity * h.LTP
		pnl := (h.LTP - h.CostPrice) * h.Quantity
		pnlPct := 0.0
		if h.CostPrice != 0 {
			pnlPct = (h.LTP - h.CostPrice) / h.CostPrice * 100
		}
		totalValue += value
		totalPnL += pnl

		fmt.Fprintf(&b, "\n📈 %s\n", h.Symbol)
		fmt.Fprintf(&b, "Qty: %g | LTP: ₹%.2f | Avg: ₹%.2f\n", h.Quantity, h.LTP, h.CostPrice)
		grouped.Fprintf(&b, "Current Value: ₹%.2f\n", value)
		grouped.Fprintf(&b, "P&L: ₹%.2f", pnl)
		fmt.Fprintf(&b, " (%+.2f%%)\n", pnlPct)
	}

	b.WriteString("\n💰 Summary:\n")
	grouped.Fprintf(&b, "Total Value: ₹%.2f\n", totalValue)
	grouped.Fprintf(&b, "Total P&L: ₹%.2f", totalPnL)
	return b.String()
}

func formatPositions(positions []fyers.Position) string {
	if len(positions) == 0 {
		return "📊 No open positions"
	}

	var b strings.Builder
	b.WriteString("📊 Current Positions:\n")

	var totalPnL float64
	for _, p := range positions {
		direction := "LONG"
		if p.Side < 0 {
			direction = "SHORT"
		}
		totalPnL += p.PL

		fmt.Fprintf(&b, "\n📈 %s (%s)\n", p.Symbol, direction)
		fmt.Fprintf(&b, "Qty: %g | Avg: ₹%.2f | LTP: ₹%.2f\n", math.Abs(p.Qty), p.AvgPrice, p.LTP)
		grouped.Fprintf(&b, "P&L: ₹%.2f\n", p.PL)
	}

	b.WriteString("\n💰 ")
	grouped.Fprintf(&b, "Total P&L: ₹%.2f", totalPnL)
	return b.String()
}

func formatOrders(orders []fyers.Order) string {
	if len(orders) == 0 {
		return "📊 No orders found"
	}

	if len(orders) > maxOrdersShown {
		orders = orders[len(orders)-maxOrdersShown:]
	}

	var b strings.Builder
	b.WriteString("📊 Recent Orders:\n")
	for _, o := range orders {
		side := "BUY"
		if o.Side < 0 {
			side = "SELL"
		}
		fmt.Fprintf(&b, "\n📋 %s - %s\n", o.Symbol, side)
		fmt.Fprintf(&b, "Qty: %g | Price: ₹%.2f\n", o.Qty, o.LimitPrice)
		fmt.Fprintf(&b, "Type: %s | Status: %s\n", orderTypeName(o.Type), orderStatusName(o.Status))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatQuotes(quotes []fyers.Quote) string {
	if len(quotes) == 0 {
		return "📊 No quotes available"
	}

	var b strings.Builder
	b.WriteString("📊 Live Quotes:\n")
	for _, q := range quotes {
		fmt.Fprintf(&b, "\n📈 %s\n", q.N)
		fmt.Fprintf(&b, "LTP: ₹%.2f\n", q.V.LP)
		fmt.Fprintf(&b, "Change: ₹%+.2f (%+.2f%%)\n", q.V.CH, q.V.CHP)
		grouped.Fprintf(&b, "Volume: %d\n", q.V.Volume)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orderTypeName(code int) string {
	switch code {
	case fyers.OrderTypeMarket:
		return "MARKET"
	case fyers.OrderTypeLimit:
		return "LIMIT"
	case fyers.OrderTypeStop:
		return "STOP"
	case fyers.OrderTypeStopLimit:
		return "STOPLIMIT"
	default:
		return fmt.Sprintf("TYPE-%d", code)
	}
}

// Order book status codes as documented for the orders endpoint.
func orderStatusName(code int) string {
	switch code {
	case 1:
		return "CANCELLED"
	case 2:
		return "FILLED"
	case 4:
		return "TRANSIT"
	case 5:
		return "REJECTED"
	case 6:
		return "PENDING"
	default:
		return fmt.Sprintf("STATUS-%d", code)
	}
}
