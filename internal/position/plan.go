package position

import (
	"fmt"

	"tradepilot/internal/exchange"
)

// ActionKind enumerates the position-mutating steps a plan may contain.
type ActionKind string

const (
	ActionClose         ActionKind = "CLOSE"
	ActionOpen          ActionKind = "OPEN"
	ActionIncrease      ActionKind = "INCREASE"
	ActionSetStopLoss   ActionKind = "SET_STOP_LOSS"
	ActionSetTakeProfit ActionKind = "SET_TAKE_PROFIT"
)

// Action is a single step of a reconciliation plan. Size is a fraction of
// total capital for OPEN, a delta fraction for INCREASE, and unused for the
// rest. Price is only set for the protective-order kinds.
type Action struct {
	Kind     ActionKind
	Side     exchange.Side
	Size     float64
	Leverage int
	Price    float64
}

func (a Action) String() string {
	switch a.Kind {
	case ActionOpen:
		return fmt.Sprintf("OPEN(%s, %.4f, %dx)", a.Side, a.Size, a.Leverage)
	case ActionIncrease:
		return fmt.Sprintf("INCREASE(%s, %.4f, %dx)", a.Side, a.Size, a.Leverage)
	case ActionSetStopLoss, ActionSetTakeProfit:
		return fmt.Sprintf("%s(%.2f)", a.Kind, a.Price)
	default:
		return string(a.Kind)
	}
}

// Plan is the ordered action sequence for one symbol in one decision cycle.
// It is consumed exactly once and never persisted.
type Plan struct {
	Symbol  string
	Actions []Action
}

func (p Plan) Empty() bool { return len(p.Actions) == 0 }

func (p Plan) String() string {
	if p.Empty() {
		return p.Symbol + ": no action"
	}
	out := p.Symbol + ":"
	for _, a := range p.Actions {
		out += " " + a.String()
	}
	return out
}
