package engine

import (
	"context"
	"time"

	"tradepilot/internal/logger"
	"tradepilot/internal/notifier"
	"tradepilot/internal/pkg/circuit"

	"golang.org/x/sync/errgroup"
)

// Engine drives one independent control loop per (symbol, strategy) pair.
// A loop's failure is contained by a per-pair circuit breaker and a backoff
// sleep; it never stops the other loops or the process.
type Engine struct {
	Symbols    []string
	Strategies []Strategy

	PollInterval time.Duration
	ErrorBackoff time.Duration

	// optional; failed cycles are pushed as error events when set
	Notify *notifier.Manager
}

func (e *Engine) Run(ctx context.Context) error {
	if len(e.Symbols) == 0 || len(e.Strategies) == 0 {
		logger.Warnf("engine: nothing to run, waiting for shutdown")
		<-ctx.Done()
		return ctx.Err()
	}

	poll := e.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}
	backoff := e.ErrorBackoff
	if backoff <= poll {
		backoff = poll * 4
	}

	logger.Infof("engine: starting %d loop(s), poll=%s backoff=%s",
		len(e.Symbols)*len(e.Strategies), poll, backoff)

	group, gctx := errgroup.WithContext(ctx)
	for _, strat := range e.Strategies {
		for _, sym := range e.Symbols {
			strat, sym := strat, sym
			group.Go(func() error {
				return e.loop(gctx, strat, sym, poll, backoff)
			})
		}
	}
	return group.Wait()
}

func (e *Engine) notifyFailure(strategy, symbol string, err error) {
	if e.Notify == nil {
		return
	}
	e.Notify.Notify(notifier.EventError, notifier.StructuredMessage{
		Icon:  "⚠️",
		Title: symbol + " cycle failed",
		Sections: []notifier.MessageSection{
			{Title: "Strategy", Lines: []string{strategy}},
			{Title: "Error", Lines: []string{err.Error()}},
		},
		Timestamp: time.Now().UTC(),
	})
}

func (e *Engine) loop(ctx context.Context, strat Strategy, symbol string, poll, backoff time.Duration) error {
	cb := circuit.NewBreaker(strat.Name()+"."+symbol, 5, 2*time.Minute)
	var lastRun time.Time

	for {
		wait := poll
		switch {
		case !cb.Allow():
			wait = backoff
		case time.Since(lastRun) >= strat.Interval(symbol):
			if err := strat.Execute(ctx, symbol); err != nil {
				logger.Errorf("engine: %s %s cycle failed: %v", strat.Name(), symbol, err)
				cb.RecordFailure()
				e.notifyFailure(strat.Name(), symbol, err)
				wait = backoff
			} else {
				cb.RecordSuccess()
				lastRun = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			logger.Infof("engine: %s %s loop stopped", strat.Name(), symbol)
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
