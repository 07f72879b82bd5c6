package market

import (
	"context"
	"fmt"

	"tradepilot/internal/exchange"
	"tradepilot/internal/indicator"
)

// Context is the immutable market snapshot one decision cycle runs on.
// Built fresh per cycle and discarded with it.
type Context struct {
	Symbol       string
	Price        float64
	High24h      float64
	Low24h       float64
	Volume24h    float64
	ChangePct24h float64
	Indicators   map[string]float64
}

// Builder merges ticker data with derived indicators.
type Builder struct {
	ex       exchange.Exchange
	interval string
	limit    int
	params   indicator.Params
}

func NewBuilder(ex exchange.Exchange, interval string, limit int, params indicator.Params) *Builder {
	if interval == "" {
		interval = "1h"
	}
	if limit <= 0 {
		limit = 100
	}
	return &Builder{ex: ex, interval: interval, limit: limit, params: params}
}

func (b *Builder) Build(ctx context.Context, symbol string) (Context, error) {
	ticker, err := b.ex.GetTicker(ctx, symbol)
	if err != nil {
		return Context{}, fmt.Errorf("ticker fetch failed for %s: %w", symbol, err)
	}
	candles, err := b.ex.GetOHLCV(ctx, symbol, b.interval, b.limit)
	if err != nil {
		return Context{}, fmt.Errorf("ohlcv fetch failed for %s: %w", symbol, err)
	}
	indicators, err := indicator.Compute(candles, b.params)
	if err != nil {
		return Context{}, fmt.Errorf("indicator compute failed for %s: %w", symbol, err)
	}
	return Context{
		Symbol:       symbol,
		Price:        ticker.Last,
		High24h:      ticker.High24h,
		Low24h:       ticker.Low24h,
		Volume24h:    ticker.Volume24h,
		ChangePct24h: ticker.ChangePct24h,
		Indicators:   indicators,
	}, nil
}
