package advisor

// Action is the canonical recommendation verb.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

const (
	MinLeverage = 1
	MaxLeverage = 20
)

// Signal is the canonical recommendation record. It is produced by the
// normalizer, transformed in place by the risk policy and consumed by the
// reconciler within the same cycle; it never outlives one tick.
type Signal struct {
	Action       Action  `json:"action"`
	Confidence   float64 `json:"confidence"`
	PositionSize float64 `json:"position_size"`
	Leverage     int     `json:"leverage"`
	StopLoss     float64 `json:"stop_loss,omitempty"`
	TakeProfit   float64 `json:"take_profit,omitempty"`
	Reasoning    string  `json:"reasoning,omitempty"`
	Source       string  `json:"source"`

	// carried through from the normalizer when a reply could not be parsed
	RawResponse string `json:"raw_response,omitempty"`
	Err         string `json:"error,omitempty"`
}

// DefaultSignal is what the registry returns when no backend is available.
func DefaultSignal() Signal {
	return Signal{
		Action:       ActionHold,
		Confidence:   0.3,
		PositionSize: 0.0,
		Leverage:     MinLeverage,
		Reasoning:    "no backend available",
		Source:       "default",
	}
}

// FallbackSignal substitutes for a backend that failed to answer. Transport
// errors never propagate past the registry.
func FallbackSignal(backend string) Signal {
	return Signal{
		Action:       ActionHold,
		Confidence:   0.3,
		PositionSize: 0.0,
		Leverage:     MinLeverage,
		Reasoning:    backend + " unavailable",
		Source:       "fallback",
	}
}

// Clamp forces confidence and position size into [0,1] and leverage into
// [MinLeverage, MaxLeverage].
func (s *Signal) Clamp() {
	s.Confidence = clamp01(s.Confidence)
	s.PositionSize = clamp01(s.PositionSize)
	if s.Leverage < MinLeverage {
		s.Leverage = MinLeverage
	}
	if s.Leverage > MaxLeverage {
		s.Leverage = MaxLeverage
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
