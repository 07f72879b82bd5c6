package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Trading.DefaultLeverage <= 0 {
		c.Trading.DefaultLeverage = 1
	}
	if c.AI.ConfidenceThreshold <= 0 {
		c.AI.ConfidenceThreshold = 0.7
	}
	if c.AI.MaxPositionSize <= 0 {
		c.AI.MaxPositionSize = 0.3
	}
	if c.AI.DecisionIntervalSeconds <= 0 {
		c.AI.DecisionIntervalSeconds = 300
	}
	if c.AI.PollSeconds <= 0 {
		c.AI.PollSeconds = 5
	}
	if c.AI.ErrorBackoffSeconds <= 0 {
		c.AI.ErrorBackoffSeconds = 60
	}
	for i := range c.AI.Backends {
		b := &c.AI.Backends[i]
		if b.TimeoutSeconds <= 0 {
			b.TimeoutSeconds = 30
		}
		if b.MaxTokens <= 0 {
			b.MaxTokens = 1000
		}
		if b.Temperature <= 0 {
			b.Temperature = 0.7
		}
		if b.Provider == "" {
			b.Provider = "openai"
		}
	}
	if c.Market.Binance.RESTBaseURL == "" {
		c.Market.Binance.RESTBaseURL = "https://fapi.binance.com"
	}
	if c.Market.Kline.Interval == "" {
		c.Market.Kline.Interval = "1h"
	}
	if c.Market.Kline.Limit <= 0 {
		c.Market.Kline.Limit = 100
	}
	if len(c.Notify.Events) == 0 {
		c.Notify.Events = []string{"trade", "error"}
	}
	if c.Store.DecisionLogPath == "" {
		c.Store.DecisionLogPath = "data/decision_log.db"
	}
	if c.Store.TradeStorePath == "" {
		c.Store.TradeStorePath = "data/trades.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":9985"
	}
}
