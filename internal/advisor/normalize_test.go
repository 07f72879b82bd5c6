package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReplyWellFormed(t *testing.T) {
	raw := `{"action":"BUY","confidence":0.82,"position_size":0.25,"leverage":5,"stop_loss":64200.5,"take_profit":69800,"reasoning":"breakout above resistance"}`
	sig := ParseReply(raw)
	assert.Equal(t, ActionBuy, sig.Action)
	assert.Equal(t, 0.82, sig.Confidence)
	assert.Equal(t, 0.25, sig.PositionSize)
	assert.Equal(t, 5, sig.Leverage)
	assert.Equal(t, 64200.5, sig.StopLoss)
	assert.Equal(t, 69800.0, sig.TakeProfit)
	assert.Equal(t, "breakout above resistance", sig.Reasoning)
	assert.Empty(t, sig.Err)
	assert.Empty(t, sig.RawResponse)
}

func TestParseReplyProseWrappedJSON(t *testing.T) {
	raw := "Sure, here is my assessment:\n```json\n{\"action\": \"sell\", \"confidence\": 0.7, \"position_size\": 0.1}\n```\nLet me know if you need more detail."
	sig := ParseReply(raw)
	assert.Equal(t, ActionSell, sig.Action)
	assert.Equal(t, 0.7, sig.Confidence)
	assert.Equal(t, 0.1, sig.PositionSize)
	assert.Equal(t, MinLeverage, sig.Leverage)
}

func TestParseReplyNoJSON(t *testing.T) {
	raw := "The market looks bullish but I cannot commit to a trade right now."
	sig := ParseReply(raw)
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 0.5, sig.Confidence)
	assert.Zero(t, sig.PositionSize)
	assert.Equal(t, raw, sig.RawResponse)
	assert.Empty(t, sig.Err)
}

func TestParseReplyMalformedJSON(t *testing.T) {
	raw := `here you go {"action": "BUY", "confidence": 0.9,}`
	sig := ParseReply(raw)
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 0.3, sig.Confidence)
	assert.Zero(t, sig.PositionSize)
	assert.Equal(t, raw, sig.RawResponse)
	assert.NotEmpty(t, sig.Err)
}

func TestParseReplyMissingFieldsDefault(t *testing.T) {
	sig := ParseReply(`{"reasoning":"nothing actionable"}`)
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 0.5, sig.Confidence)
	assert.Zero(t, sig.PositionSize)
	assert.Equal(t, MinLeverage, sig.Leverage)
	assert.Equal(t, "nothing actionable", sig.Reasoning)
}

func TestParseReplyNullFieldsTreatedAsMissing(t *testing.T) {
	sig := ParseReply(`{"action":"buy","confidence":null,"position_size":null,"leverage":null,"reasoning":null}`)
	assert.Equal(t, ActionBuy, sig.Action)
	assert.Equal(t, 0.5, sig.Confidence)
	assert.Zero(t, sig.PositionSize)
	assert.Equal(t, MinLeverage, sig.Leverage)
	assert.Empty(t, sig.Reasoning)
}

func TestParseReplyClampsRanges(t *testing.T) {
	sig := ParseReply(`{"action":"BUY","confidence":1.8,"position_size":-0.4,"leverage":125}`)
	assert.Equal(t, 1.0, sig.Confidence)
	assert.Equal(t, 0.0, sig.PositionSize)
	assert.Equal(t, MaxLeverage, sig.Leverage)

	sig = ParseReply(`{"action":"SELL","confidence":-1,"position_size":3,"leverage":0}`)
	assert.Equal(t, 0.0, sig.Confidence)
	assert.Equal(t, 1.0, sig.PositionSize)
	assert.Equal(t, MinLeverage, sig.Leverage)
}

func TestNormalizeActionSynonyms(t *testing.T) {
	cases := map[string]Action{
		"BUY":        ActionBuy,
		"long":       ActionBuy,
		"Open Long":  ActionBuy,
		"go-long":    ActionBuy,
		"sell":       ActionSell,
		"SHORT":      ActionSell,
		"open_short": ActionSell,
		"hold":       ActionHold,
		"wait":       ActionHold,
		"neutral":    ActionHold,
		"yolo":       ActionHold,
		"":           ActionHold,
	}
	for in, want := range cases {
		assert.Equalf(t, want, NormalizeAction(in), "input %q", in)
	}
}

func TestDefaultAndFallbackSignals(t *testing.T) {
	def := DefaultSignal()
	require.Equal(t, ActionHold, def.Action)
	assert.Equal(t, 0.3, def.Confidence)
	assert.Zero(t, def.PositionSize)
	assert.Equal(t, MinLeverage, def.Leverage)
	assert.Equal(t, "no backend available", def.Reasoning)
	assert.Equal(t, "default", def.Source)

	fb := FallbackSignal("deepseek")
	require.Equal(t, ActionHold, fb.Action)
	assert.Equal(t, 0.3, fb.Confidence)
	assert.Equal(t, "deepseek unavailable", fb.Reasoning)
	assert.Equal(t, "fallback", fb.Source)
}
