package decisionlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, Record{
		TraceID:      "t1",
		Symbol:       "BTC/USDT",
		Source:       "deepseek",
		Action:       "BUY",
		Confidence:   0.8,
		PositionSize: 0.2,
		Leverage:     5,
		Reasoning:    "breakout",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = s.Insert(ctx, Record{TraceID: "t2", Symbol: "ETH/USDT", Source: "fallback", Action: "HOLD"})
	require.NoError(t, err)

	all, err := s.ListDecisions(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// newest first
	assert.Equal(t, "ETH/USDT", all[0].Symbol)

	btc, err := s.ListDecisions(ctx, Query{Symbol: "BTC/USDT"})
	require.NoError(t, err)
	require.Len(t, btc, 1)
	assert.Equal(t, "t1", btc[0].TraceID)
	assert.Equal(t, 0.8, btc[0].Confidence)

	bySource, err := s.ListDecisions(ctx, Query{Source: "fallback"})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "HOLD", bySource[0].Action)
}

func TestListLimitAndOffset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Insert(ctx, Record{Symbol: "BTC/USDT", Action: "HOLD", Timestamp: int64(1000 + i)})
		require.NoError(t, err)
	}
	page, err := s.ListDecisions(ctx, Query{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(1003), page[0].Timestamp)
	assert.Equal(t, int64(1002), page[1].Timestamp)
}

func TestClosedStoreErrors(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())
	_, err := s.Insert(context.Background(), Record{Symbol: "BTC/USDT"})
	assert.Error(t, err)
}
