package app

import (
	"context"
	"fmt"

	"strings"
	"time"

	"tradepilot/internal/config"
	"tradepilot/internal/engine"
	"tradepilot/internal/logger"
	"tradepilot/internal/notifier"
	"tradepilot/internal/store/decisionlog"
	"tradepilot/internal/store/tradestore"
	adminhttp "tradepilot/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App wires the decision engine and the admin HTTP server, and owns the
// stores it opened so they get closed on shutdown.
type App struct {
	cfg       *config.Config
	engine    *engine.Engine
	adminHTTP *adminhttp.Server
	notify    *notifier.Manager
	decisions *decisionlog.Store
	trades    *tradestore.Store
}

// New builds the application from configuration without starting anything.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return build(cfg)
}

// Run serves until ctx is cancelled. The engine and the admin server run
// under one errgroup, so a fatal listener error also stops the loops.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.engine == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	a.notifyStartup()

	group, ctx := errgroup.WithContext(ctx)

	if a.adminHTTP != nil {
		group.Go(func() error {
			logger.Infof("app: admin api listening on %s", a.adminHTTP.Addr())
			if err := a.adminHTTP.Start(ctx); err != nil {
				return fmt.Errorf("admin http server: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		return a.engine.Run(ctx)
	})

	return group.Wait()
}

func (a *App) notifyStartup() {
	if a.notify == nil {
		return
	}
	lines := []string{"symbols: " + strings.Join(a.engine.Symbols, ", ")}
	if a.adminHTTP != nil {
		lines = append(lines, "admin api: "+a.adminHTTP.Addr())
	}
	a.notify.Notify(notifier.EventStartup, notifier.StructuredMessage{
		Icon:      "🔔",
		Title:     "trading bot started",
		Sections:  []notifier.MessageSection{{Title: "Setup", Lines: lines}},
		Timestamp: time.Now().UTC(),
	})
}

func (a *App) close() {
	if a.decisions != nil {
		if err := a.decisions.Close(); err != nil {
			logger.Warnf("app: closing decision log: %v", err)
		}
	}
	if a.trades != nil {
		if err := a.trades.Close(); err != nil {
			logger.Warnf("app: closing trade store: %v", err)
		}
	}
}
