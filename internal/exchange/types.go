package exchange

import "context"

// Side is the direction of an open position.
type Side string

const (
	SideFlat  Side = "flat"
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Opposite returns the flipped direction; flat stays flat.
func (s Side) Opposite() Side {
	switch s {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	default:
		return SideFlat
	}
}

// Ticker is a 24h rolling snapshot for one instrument.
type Ticker struct {
	Symbol       string
	Last         float64
	High24h      float64
	Low24h       float64
	Volume24h    float64
	ChangePct24h float64
}

// Candle is one OHLCV bar.
type Candle struct {
	OpenTime  int64
	CloseTime int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// PortfolioSnapshot is the read-only position view consumed by the decision
// core. Size is a fraction of total capital, matching signal sizing, so the
// reconciler can compare the two directly. Never mutated by the core.
type PortfolioSnapshot struct {
	Symbol           string  `json:"symbol"`
	Side             Side    `json:"side"`
	Size             float64 `json:"size"`
	EntryPrice       float64 `json:"entry_price"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	AvailableBalance float64 `json:"available_balance"`
}

// HasPosition reports whether the snapshot holds a non-zero position.
func (p PortfolioSnapshot) HasPosition() bool {
	return p.Side != SideFlat && p.Side != "" && p.Size > 0
}

// Exchange is the connectivity collaborator the decision core drives.
// Implementations own their own timeouts; the core only passes ctx through.
type Exchange interface {
	GetTicker(ctx context.Context, symbol string) (Ticker, error)
	GetOHLCV(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	GetBalance(ctx context.Context) (float64, error)
	GetPosition(ctx context.Context, symbol string) (PortfolioSnapshot, error)

	OpenPosition(ctx context.Context, symbol string, side Side, size float64, leverage int) error
	IncreasePosition(ctx context.Context, symbol string, side Side, delta float64, leverage int) error
	ClosePosition(ctx context.Context, symbol string) error
	SetStopLoss(ctx context.Context, symbol string, price float64) error
	SetTakeProfit(ctx context.Context, symbol string, price float64) error
}
