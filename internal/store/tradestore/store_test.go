package tradestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tradepilot/internal/advisor"
	"tradepilot/internal/exchange"
	"tradepilot/internal/position"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListTrades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sig := advisor.Signal{Action: advisor.ActionBuy, Confidence: 0.85, PositionSize: 0.2, Leverage: 5, Source: "deepseek"}
	s.RecordTrade(ctx, "BTC/USDT", position.Action{
		Kind:     position.ActionOpen,
		Side:     exchange.SideLong,
		Size:     0.2,
		Leverage: 5,
	}, sig, nil)
	s.RecordTrade(ctx, "BTC/USDT", position.Action{
		Kind:  position.ActionSetStopLoss,
		Price: 64000,
	}, sig, errors.New("no open position"))

	trades, err := s.ListTrades(ctx, "BTC/USDT", 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	var open, stop TradeRecord
	for _, tr := range trades {
		switch tr.Kind {
		case string(position.ActionOpen):
			open = tr
		case string(position.ActionSetStopLoss):
			stop = tr
		}
	}
	assert.Equal(t, "long", open.Side)
	assert.Equal(t, 0.2, open.Size)
	assert.Equal(t, 5, open.Leverage)
	assert.Equal(t, "deepseek", open.Source)
	assert.NotEmpty(t, open.Signal)
	assert.Empty(t, open.Error)
	assert.Equal(t, 64000.0, stop.Price)
	assert.Equal(t, "no open position", stop.Error)
}

func TestListTradesFiltersBySymbol(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sig := advisor.Signal{Action: advisor.ActionSell, Source: "glm"}
	s.RecordTrade(ctx, "BTC/USDT", position.Action{Kind: position.ActionClose}, sig, nil)
	s.RecordTrade(ctx, "ETH/USDT", position.Action{Kind: position.ActionClose}, sig, nil)

	eth, err := s.ListTrades(ctx, "ETH/USDT", 10)
	require.NoError(t, err)
	require.Len(t, eth, 1)
	assert.Equal(t, "ETH/USDT", eth[0].Symbol)

	all, err := s.ListTrades(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
