package advisor

import (
	"fmt"
	"sort"
	"strings"

	"tradepilot/internal/exchange"
	"tradepilot/internal/market"
)

const systemPrompt = `You are a professional crypto quantitative trading assistant. Base your
recommendation on technical analysis and risk management.

Always answer with a single JSON object containing:
- action: "BUY", "SELL" or "HOLD"
- confidence: 0.0-1.0
- position_size: 0.0-1.0 (fraction of capital)
- leverage: integer 1-20
- stop_loss: price (optional)
- take_profit: price (optional)
- reasoning: one or two sentences`

// BuildUserPrompt renders the market snapshot and current position into the
// analysis request sent to every backend.
func BuildUserPrompt(mkt market.Context, portfolio exchange.PortfolioSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyse %s:\n\n", mkt.Symbol)
	fmt.Fprintf(&b, "Price: %.4f\n", mkt.Price)
	fmt.Fprintf(&b, "24h change: %.2f%%\n", mkt.ChangePct24h)
	fmt.Fprintf(&b, "24h high/low: %.4f / %.4f\n", mkt.High24h, mkt.Low24h)
	fmt.Fprintf(&b, "24h volume: %.2f\n", mkt.Volume24h)

	if len(mkt.Indicators) > 0 {
		b.WriteString("\nIndicators:\n")
		keys := make([]string, 0, len(mkt.Indicators))
		for k := range mkt.Indicators {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %.4f\n", k, mkt.Indicators[k])
		}
	}

	b.WriteString("\nCurrent position: ")
	if portfolio.HasPosition() {
		fmt.Fprintf(&b, "%s size=%.4f entry=%.4f uPnL=%.4f\n",
			portfolio.Side, portfolio.Size, portfolio.EntryPrice, portfolio.UnrealizedPnL)
	} else {
		b.WriteString("none\n")
	}
	fmt.Fprintf(&b, "Available balance: %.2f USDT\n", portfolio.AvailableBalance)
	b.WriteString("\nGive your trading recommendation.")
	return b.String()
}
