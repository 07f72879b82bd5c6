package app

import (
	"fmt"

	"tradepilot/internal/advisor"
	"tradepilot/internal/config"
	"tradepilot/internal/engine"
	"tradepilot/internal/exchange"
	"tradepilot/internal/indicator"
	"tradepilot/internal/logger"
	"tradepilot/internal/market"
	"tradepilot/internal/notifier"
	"tradepilot/internal/pkg/symbol"
	"tradepilot/internal/position"
	"tradepilot/internal/risk"
	"tradepilot/internal/store/decisionlog"
	"tradepilot/internal/store/tradestore"
	adminhttp "tradepilot/internal/transport/http"
)

func build(cfg *config.Config) (*App, error) {
	symbols := symbol.NormalizeList(cfg.Trading.Symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no valid trading symbols configured")
	}

	ex, err := exchange.NewBinance(exchange.BinanceConfig{
		APIKey:       cfg.Market.Binance.APIKey,
		SecretKey:    cfg.Market.Binance.SecretKey,
		RESTBaseURL:  cfg.Market.Binance.RESTBaseURL,
		ProxyEnabled: cfg.Market.Binance.Proxy.Enabled,
		ProxyURL:     cfg.Market.Binance.Proxy.RESTURL,
		TotalCapital: cfg.Trading.TotalCapital,
	})
	if err != nil {
		return nil, fmt.Errorf("init exchange: %w", err)
	}

	registry, err := advisor.BuildRegistry(cfg.AI.Backends)
	if err != nil {
		return nil, err
	}
	if registry.ActiveName() == "" {
		logger.Warnf("app: no advisory backend enabled, decisions fall back to HOLD")
	}

	var profiles *config.ProfileRegistry
	if cfg.AI.ProfilesPath != "" {
		profiles, err = config.NewProfileRegistry(cfg.AI.ProfilesPath)
		if err != nil {
			return nil, fmt.Errorf("load profiles: %w", err)
		}
	}

	decisions, err := decisionlog.New(cfg.Store.DecisionLogPath)
	if err != nil {
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	trades, err := tradestore.New(cfg.Store.TradeStorePath)
	if err != nil {
		decisions.Close()
		return nil, fmt.Errorf("open trade store: %w", err)
	}

	notify := notifier.NewManager(cfg.Notify)

	strategy := &engine.AIStrategy{
		Registry:         registry,
		Market:           market.NewBuilder(ex, cfg.Market.Kline.Interval, cfg.Market.Kline.Limit, indicator.Params{}),
		Policy:           risk.NewPolicy(cfg.AI),
		Exchange:         ex,
		Executor:         position.NewExecutor(ex, trades),
		Profiles:         profiles,
		Decisions:        decisions,
		Notify:           notify,
		DecisionInterval: cfg.AI.DecisionInterval(),
	}

	eng := &engine.Engine{
		Symbols:      symbols,
		Strategies:   []engine.Strategy{strategy},
		PollInterval: cfg.AI.PollInterval(),
		ErrorBackoff: cfg.AI.ErrorBackoff(),
		Notify:       notify,
	}

	a := &App{cfg: cfg, engine: eng, notify: notify, decisions: decisions, trades: trades}

	if cfg.Server.Enabled {
		srv, err := adminhttp.NewServer(adminhttp.ServerConfig{
			Addr:      cfg.Server.Addr,
			Registry:  registry,
			Decisions: decisions,
			Trades:    trades,
			Positions: ex,
			Symbols:   symbols,
			Notifier:  notify,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init admin http server: %w", err)
		}
		a.adminHTTP = srv
	}

	return a, nil
}
