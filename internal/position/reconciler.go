package position

import (
	"tradepilot/internal/advisor"
	"tradepilot/internal/exchange"
	"tradepilot/internal/logger"
)

// Reconcile turns an adjusted signal plus the current position into the
// ordered action sequence that reaches the target exposure. Holding long
// and short simultaneously is disallowed, so an opposite-side signal always
// closes first, whatever the relative sizes.
func Reconcile(sig advisor.Signal, portfolio exchange.PortfolioSnapshot) Plan {
	plan := Plan{Symbol: portfolio.Symbol}

	if sig.Action == advisor.ActionHold {
		return plan
	}

	target := exchange.SideLong
	if sig.Action == advisor.ActionSell {
		target = exchange.SideShort
	}

	current := portfolio.Side
	if !portfolio.HasPosition() {
		current = exchange.SideFlat
	}

	switch {
	case current == exchange.SideFlat:
		if sig.PositionSize > 0 {
			plan.Actions = append(plan.Actions, Action{
				Kind:     ActionOpen,
				Side:     target,
				Size:     sig.PositionSize,
				Leverage: sig.Leverage,
			})
		}
	case current == target:
		if sig.PositionSize > portfolio.Size {
			plan.Actions = append(plan.Actions, Action{
				Kind:     ActionIncrease,
				Side:     target,
				Size:     sig.PositionSize - portfolio.Size,
				Leverage: sig.Leverage,
			})
		} else {
			logger.Debugf("position: %s already at or above target %.4f, no size action",
				portfolio.Symbol, sig.PositionSize)
		}
	default:
		// opposite side: close out before reopening
		plan.Actions = append(plan.Actions, Action{Kind: ActionClose, Side: target.Opposite()})
		if sig.PositionSize > 0 {
			plan.Actions = append(plan.Actions, Action{
				Kind:     ActionOpen,
				Side:     target,
				Size:     sig.PositionSize,
				Leverage: sig.Leverage,
			})
		}
	}

	// protective orders ride along even when the size step was a no-op
	if sig.StopLoss > 0 {
		plan.Actions = append(plan.Actions, Action{Kind: ActionSetStopLoss, Side: target, Price: sig.StopLoss})
	}
	if sig.TakeProfit > 0 {
		plan.Actions = append(plan.Actions, Action{Kind: ActionSetTakeProfit, Side: target, Price: sig.TakeProfit})
	}

	return plan
}
