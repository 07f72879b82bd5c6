package position

import (
	"context"
	"errors"
	"testing"

	"tradepilot/internal/advisor"
	"tradepilot/internal/exchange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExchange struct {
	mock.Mock
}

func (m *mockExchange) GetTicker(ctx context.Context, symbol string) (exchange.Ticker, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(exchange.Ticker), args.Error(1)
}

func (m *mockExchange) GetOHLCV(ctx context.Context, symbol, interval string, limit int) ([]exchange.Candle, error) {
	args := m.Called(ctx, symbol, interval, limit)
	return args.Get(0).([]exchange.Candle), args.Error(1)
}

func (m *mockExchange) GetBalance(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockExchange) GetPosition(ctx context.Context, symbol string) (exchange.PortfolioSnapshot, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(exchange.PortfolioSnapshot), args.Error(1)
}

func (m *mockExchange) OpenPosition(ctx context.Context, symbol string, side exchange.Side, size float64, leverage int) error {
	return m.Called(ctx, symbol, side, size, leverage).Error(0)
}

func (m *mockExchange) IncreasePosition(ctx context.Context, symbol string, side exchange.Side, delta float64, leverage int) error {
	return m.Called(ctx, symbol, side, delta, leverage).Error(0)
}

func (m *mockExchange) ClosePosition(ctx context.Context, symbol string) error {
	return m.Called(ctx, symbol).Error(0)
}

func (m *mockExchange) SetStopLoss(ctx context.Context, symbol string, price float64) error {
	return m.Called(ctx, symbol, price).Error(0)
}

func (m *mockExchange) SetTakeProfit(ctx context.Context, symbol string, price float64) error {
	return m.Called(ctx, symbol, price).Error(0)
}

type captureRecorder struct {
	records []ExecutionResult
}

func (c *captureRecorder) RecordTrade(ctx context.Context, symbol string, act Action, sig advisor.Signal, execErr error) {
	c.records = append(c.records, ExecutionResult{Action: act, Err: execErr})
}

func TestExecuteRunsActionsInOrder(t *testing.T) {
	ex := &mockExchange{}
	ex.On("ClosePosition", mock.Anything, "BTC/USDT").Return(nil)
	ex.On("OpenPosition", mock.Anything, "BTC/USDT", exchange.SideShort, 0.2, 3).Return(nil)

	e := NewExecutor(ex, nil)
	results := e.Execute(context.Background(), Plan{
		Symbol: "BTC/USDT",
		Actions: []Action{
			{Kind: ActionClose},
			{Kind: ActionOpen, Side: exchange.SideShort, Size: 0.2, Leverage: 3},
		},
	}, advisor.Signal{Action: advisor.ActionSell})

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	ex.AssertExpectations(t)
}

func TestExecuteFailureDoesNotBlockRemainingActions(t *testing.T) {
	ex := &mockExchange{}
	ex.On("OpenPosition", mock.Anything, "BTC/USDT", exchange.SideLong, 0.2, 5).
		Return(errors.New("insufficient margin"))
	ex.On("SetStopLoss", mock.Anything, "BTC/USDT", 64000.0).Return(nil)
	ex.On("SetTakeProfit", mock.Anything, "BTC/USDT", 70000.0).Return(errors.New("no open position"))

	rec := &captureRecorder{}
	e := NewExecutor(ex, rec)
	results := e.Execute(context.Background(), Plan{
		Symbol: "BTC/USDT",
		Actions: []Action{
			{Kind: ActionOpen, Side: exchange.SideLong, Size: 0.2, Leverage: 5},
			{Kind: ActionSetStopLoss, Price: 64000},
			{Kind: ActionSetTakeProfit, Price: 70000},
		},
	}, advisor.Signal{Action: advisor.ActionBuy})

	require.Len(t, results, 3)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Error(t, results[2].Err)
	assert.Len(t, rec.records, 3)
	ex.AssertExpectations(t)
}

func TestExecuteEmptyPlanIsNoOp(t *testing.T) {
	ex := &mockExchange{}
	e := NewExecutor(ex, nil)
	assert.Nil(t, e.Execute(context.Background(), Plan{Symbol: "BTC/USDT"}, advisor.Signal{}))
	ex.AssertExpectations(t)
}
