package advisor

import (
	"strings"

	"tradepilot/internal/pkg/jsonutil"

	"github.com/tidwall/gjson"
)

// ParseReply turns an opaque backend reply into a Signal. It never fails:
// prose around the JSON is tolerated, a reply with no JSON at all degrades
// to a neutral signal with confidence 0.5, and a reply whose JSON does not
// parse degrades further to confidence 0.3 with the parse error attached.
func ParseReply(raw string) Signal {
	trimmed := strings.TrimSpace(raw)

	var doc string
	switch {
	case strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") && gjson.Valid(trimmed):
		doc = trimmed
	default:
		candidate, ok := jsonutil.ExtractObject(trimmed)
		if !ok {
			// conversational reply with no JSON: keep the text, stay neutral
			return Signal{
				Action:       ActionHold,
				Confidence:   0.5,
				PositionSize: 0.0,
				Leverage:     MinLeverage,
				RawResponse:  raw,
			}
		}
		if !gjson.Valid(candidate) {
			return Signal{
				Action:       ActionHold,
				Confidence:   0.3,
				PositionSize: 0.0,
				Leverage:     MinLeverage,
				RawResponse:  raw,
				Err:          "reply contains malformed JSON",
			}
		}
		doc = candidate
	}

	parsed := gjson.Parse(doc)
	if !parsed.IsObject() {
		return Signal{
			Action:       ActionHold,
			Confidence:   0.3,
			PositionSize: 0.0,
			Leverage:     MinLeverage,
			RawResponse:  raw,
			Err:          "reply JSON is not an object",
		}
	}

	sig := Signal{
		Action:       ActionHold,
		Confidence:   0.5,
		PositionSize: 0.0,
		Leverage:     MinLeverage,
	}
	// an explicit JSON null counts as a missing field, not as a zero value
	if v := parsed.Get("action"); present(v) {
		sig.Action = NormalizeAction(v.String())
	}
	if v := parsed.Get("confidence"); present(v) {
		sig.Confidence = v.Float()
	}
	if v := parsed.Get("position_size"); present(v) {
		sig.PositionSize = v.Float()
	}
	if v := parsed.Get("leverage"); present(v) {
		sig.Leverage = int(v.Int())
	}
	if v := parsed.Get("stop_loss"); present(v) {
		sig.StopLoss = v.Float()
	}
	if v := parsed.Get("take_profit"); present(v) {
		sig.TakeProfit = v.Float()
	}
	if v := parsed.Get("reasoning"); present(v) {
		sig.Reasoning = strings.TrimSpace(v.String())
	}
	sig.Clamp()
	return sig
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// NormalizeAction folds the synonyms backends like to emit into the three
// canonical verbs. Anything unrecognised is treated as HOLD.
func NormalizeAction(a string) Action {
	replacer := strings.NewReplacer(" ", "_", "-", "_")
	a = replacer.Replace(strings.ToLower(strings.TrimSpace(a)))
	switch a {
	case "buy", "long", "open_long", "enter_long", "go_long", "buy_long":
		return ActionBuy
	case "sell", "short", "open_short", "enter_short", "go_short", "sell_short":
		return ActionSell
	case "hold", "wait", "stay", "neutral":
		return ActionHold
	default:
		return ActionHold
	}
}
