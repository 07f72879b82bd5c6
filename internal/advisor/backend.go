package advisor

import (
	"context"

	"tradepilot/internal/exchange"
	"tradepilot/internal/market"
)

// Backend produces a raw advisory reply for one instrument. Implementations
// are interchangeable; they hold no state beyond their connection settings
// and live for the process lifetime.
type Backend interface {
	Name() string
	ProduceSignal(ctx context.Context, mkt market.Context, portfolio exchange.PortfolioSnapshot) (string, error)
}
