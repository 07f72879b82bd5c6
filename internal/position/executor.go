package position

import (
	"context"

	"tradepilot/internal/advisor"
	"tradepilot/internal/exchange"
	"tradepilot/internal/logger"
)

// Recorder persists the outcome of each executed action. Implementations
// must not fail the execution path; errors are theirs to handle.
type Recorder interface {
	RecordTrade(ctx context.Context, symbol string, act Action, sig advisor.Signal, execErr error)
}

// ExecutionResult pairs a plan action with its outcome.
type ExecutionResult struct {
	Action Action
	Err    error
}

// Executor applies a reconciliation plan against the exchange. Each action
// runs independently: one failure is logged and recorded, and the remaining
// actions still execute. Failed actions are not retried until the next
// scheduled cycle produces a fresh plan.
type Executor struct {
	ex       exchange.Exchange
	recorder Recorder
}

func NewExecutor(ex exchange.Exchange, recorder Recorder) *Executor {
	return &Executor{ex: ex, recorder: recorder}
}

func (e *Executor) Execute(ctx context.Context, plan Plan, sig advisor.Signal) []ExecutionResult {
	if plan.Empty() {
		return nil
	}
	logger.Infof("position: executing %s", plan.String())

	results := make([]ExecutionResult, 0, len(plan.Actions))
	for _, act := range plan.Actions {
		err := e.apply(ctx, plan.Symbol, act)
		if err != nil {
			logger.Errorf("position: %s %s failed: %v", plan.Symbol, act.String(), err)
		} else {
			logger.Infof("position: %s %s done", plan.Symbol, act.String())
		}
		if e.recorder != nil {
			e.recorder.RecordTrade(ctx, plan.Symbol, act, sig, err)
		}
		results = append(results, ExecutionResult{Action: act, Err: err})
	}
	return results
}

func (e *Executor) apply(ctx context.Context, symbol string, act Action) error {
	switch act.Kind {
	case ActionClose:
		return e.ex.ClosePosition(ctx, symbol)
	case ActionOpen:
		return e.ex.OpenPosition(ctx, symbol, act.Side, act.Size, act.Leverage)
	case ActionIncrease:
		return e.ex.IncreasePosition(ctx, symbol, act.Side, act.Size, act.Leverage)
	case ActionSetStopLoss:
		return e.ex.SetStopLoss(ctx, symbol, act.Price)
	case ActionSetTakeProfit:
		return e.ex.SetTakeProfit(ctx, symbol, act.Price)
	default:
		logger.Warnf("position: %s unknown action kind %q", symbol, act.Kind)
		return nil
	}
}
