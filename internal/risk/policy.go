package risk

import (
	"fmt"
	"math"
	"strings"

	"tradepilot/internal/advisor"
	"tradepilot/internal/config"
	"tradepilot/internal/exchange"
	"tradepilot/internal/logger"
)

// Policy bounds an advisory signal before it reaches the reconciler. Adjust
// is a pure transform over its inputs, so the same signal and portfolio
// always produce the same output.
type Policy struct {
	ConfidenceThreshold float64
	MaxPositionSize     float64

	// LeverageCap further restricts leverage below the global ceiling when a
	// per-symbol profile asks for it. Zero means no extra cap.
	LeverageCap int
}

func NewPolicy(cfg config.AIConfig) Policy {
	return Policy{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		MaxPositionSize:     cfg.MaxPositionSize,
	}
}

// WithProfile returns a copy of the policy with any non-zero profile
// overrides applied.
func (p Policy) WithProfile(prof *config.Profile) Policy {
	if prof == nil {
		return p
	}
	if prof.ConfidenceThreshold > 0 {
		p.ConfidenceThreshold = prof.ConfidenceThreshold
	}
	if prof.MaxPositionSize > 0 {
		p.MaxPositionSize = prof.MaxPositionSize
	}
	if prof.LeverageCap > 0 {
		p.LeverageCap = prof.LeverageCap
	}
	return p
}

// Adjust applies the bounding steps in a fixed order: clamp, confidence
// threshold, position-size cap, then the anti-attrition override, which
// inspects the action as already adjusted by the earlier steps.
func (p Policy) Adjust(sig advisor.Signal, portfolio exchange.PortfolioSnapshot) advisor.Signal {
	sig.Clamp()

	if sig.Confidence < p.ConfidenceThreshold {
		if sig.Action != advisor.ActionHold || sig.PositionSize != 0 {
			logger.Infof("risk: %s overridden to HOLD, confidence %.2f below threshold %.2f",
				portfolio.Symbol, sig.Confidence, p.ConfidenceThreshold)
		}
		sig.Action = advisor.ActionHold
		sig.PositionSize = 0.0
		sig.Reasoning = appendReason(sig.Reasoning,
			fmt.Sprintf("[confidence %.2f below threshold %.2f]", sig.Confidence, p.ConfidenceThreshold))
	}

	if sig.PositionSize > p.MaxPositionSize {
		logger.Infof("risk: %s position size %.2f capped to %.2f",
			portfolio.Symbol, sig.PositionSize, p.MaxPositionSize)
		sig.PositionSize = p.MaxPositionSize
		sig.Reasoning = appendReason(sig.Reasoning,
			fmt.Sprintf("[position size capped to %.2f]", p.MaxPositionSize))
	}

	if portfolio.HasPosition() && sig.Action == advisor.ActionHold && sig.Confidence < 0.4 {
		trimmed := math.Min(portfolio.Size, 0.5*portfolio.Size)
		logger.Infof("risk: %s low-conviction hold with open position, trimming to %.2f",
			portfolio.Symbol, trimmed)
		sig.Action = advisor.ActionSell
		sig.PositionSize = trimmed
		sig.Reasoning = appendReason(sig.Reasoning,
			"[trimming low-conviction position instead of holding]")
	}

	if p.LeverageCap > 0 && sig.Leverage > p.LeverageCap {
		sig.Leverage = p.LeverageCap
	}

	return sig
}

// appendReason adds a suffix once. Re-running Adjust on its own output must
// not stack duplicate annotations.
func appendReason(reason, suffix string) string {
	if strings.Contains(reason, suffix) {
		return reason
	}
	if reason == "" {
		return suffix
	}
	return reason + " " + suffix
}
