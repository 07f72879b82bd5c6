package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tradepilot/internal/advisor"
	"tradepilot/internal/config"
	"tradepilot/internal/exchange"
	"tradepilot/internal/logger"
	"tradepilot/internal/market"
	"tradepilot/internal/notifier"
	"tradepilot/internal/position"
	"tradepilot/internal/risk"
	"tradepilot/internal/store/decisionlog"

	"github.com/google/uuid"
)

// AIStrategy runs the advisory decision pipeline: fresh market context,
// signal from the active backend, risk adjustment, reconciliation against
// the open position, then plan execution.
type AIStrategy struct {
	Registry *advisor.Registry
	Market   *market.Builder
	Policy   risk.Policy
	Exchange exchange.Exchange
	Executor *position.Executor

	// optional collaborators
	Profiles  *config.ProfileRegistry
	Decisions *decisionlog.Store
	Notify    *notifier.Manager

	DecisionInterval time.Duration
}

func (s *AIStrategy) Name() string { return "ai" }

// Interval honors a per-symbol profile override when one exists.
func (s *AIStrategy) Interval(symbol string) time.Duration {
	if s.Profiles != nil {
		if prof, ok := s.Profiles.Resolve(symbol); ok {
			return prof.Interval(s.DecisionInterval)
		}
	}
	return s.DecisionInterval
}

func (s *AIStrategy) Execute(ctx context.Context, symbol string) error {
	traceID := uuid.NewString()

	mkt, err := s.Market.Build(ctx, symbol)
	if err != nil {
		return fmt.Errorf("build market context: %w", err)
	}
	portfolio, err := s.Exchange.GetPosition(ctx, symbol)
	if err != nil {
		return fmt.Errorf("fetch position: %w", err)
	}

	sig := s.Registry.GetSignal(ctx, mkt, portfolio)

	policy := s.Policy
	if s.Profiles != nil {
		if prof, ok := s.Profiles.Resolve(symbol); ok {
			policy = policy.WithProfile(&prof)
		}
	}
	adjusted := policy.Adjust(sig, portfolio)

	logger.Infof("engine: %s trace=%s %s conf=%.2f size=%.2f lev=%d source=%s",
		symbol, traceID, adjusted.Action, adjusted.Confidence, adjusted.PositionSize,
		adjusted.Leverage, adjusted.Source)

	plan := position.Reconcile(adjusted, portfolio)
	results := s.Executor.Execute(ctx, plan, adjusted)

	s.record(ctx, traceID, symbol, adjusted, plan, results)
	s.notifyTrade(symbol, adjusted, plan, results)
	return nil
}

func (s *AIStrategy) record(ctx context.Context, traceID, symbol string, sig advisor.Signal, plan position.Plan, results []position.ExecutionResult) {
	if s.Decisions == nil {
		return
	}
	rec := decisionlog.Record{
		TraceID:      traceID,
		Timestamp:    time.Now().UnixMilli(),
		Symbol:       symbol,
		Source:       sig.Source,
		Action:       string(sig.Action),
		Confidence:   sig.Confidence,
		PositionSize: sig.PositionSize,
		Leverage:     sig.Leverage,
		StopLoss:     sig.StopLoss,
		TakeProfit:   sig.TakeProfit,
		Reasoning:    sig.Reasoning,
		RawResponse:  sig.RawResponse,
		Error:        sig.Err,
	}
	if !plan.Empty() {
		if b, err := json.Marshal(plan.Actions); err == nil {
			rec.PlanJSON = string(b)
		}
	}
	var execErrs []string
	for _, res := range results {
		if res.Err != nil {
			execErrs = append(execErrs, fmt.Sprintf("%s: %v", res.Action.Kind, res.Err))
		}
	}
	rec.ExecError = strings.Join(execErrs, "; ")
	if _, err := s.Decisions.Insert(ctx, rec); err != nil {
		logger.Warnf("engine: %s decision log write failed: %v", symbol, err)
	}
}

func (s *AIStrategy) notifyTrade(symbol string, sig advisor.Signal, plan position.Plan, results []position.ExecutionResult) {
	if s.Notify == nil || plan.Empty() {
		return
	}
	lines := make([]string, 0, len(results))
	for _, res := range results {
		line := res.Action.String()
		if res.Err != nil {
			line += " FAILED: " + res.Err.Error()
		}
		lines = append(lines, line)
	}
	s.Notify.Notify(notifier.EventTrade, notifier.StructuredMessage{
		Icon:  "📊",
		Title: fmt.Sprintf("%s %s", symbol, sig.Action),
		Sections: []notifier.MessageSection{
			{Title: "Actions", Lines: lines},
			{Title: "Signal", Lines: []string{
				fmt.Sprintf("confidence %.2f", sig.Confidence),
				fmt.Sprintf("size %.2f", sig.PositionSize),
				fmt.Sprintf("leverage %dx", sig.Leverage),
				"source " + sig.Source,
			}},
		},
		Footer:    sig.Reasoning,
		Timestamp: time.Now().UTC(),
	})
}
