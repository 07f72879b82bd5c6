package engine

import (
	"context"
	"time"
)

// Strategy is one decision pipeline the engine drives per symbol. Execute
// runs a full cycle; Interval is the minimum spacing between cycles for the
// given symbol.
type Strategy interface {
	Name() string
	Interval(symbol string) time.Duration
	Execute(ctx context.Context, symbol string) error
}
