package config

import (
	"fmt"
	"strings"

	"tradepilot/internal/pkg/symbol"
)

// validate enforces the few hard requirements. Missing credentials are the
// only fatal condition; everything else gets a default or a warning later.
func validate(c *Config) error {
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("trading.symbols cannot be empty")
	}
	for _, s := range c.Trading.Symbols {
		if !symbol.IsValid(s) {
			return fmt.Errorf("trading.symbols entry %q is not a valid instrument", s)
		}
	}
	if c.Trading.TotalCapital <= 0 {
		return fmt.Errorf("trading.total_capital must be > 0")
	}
	if strings.TrimSpace(c.Market.Binance.APIKey) == "" {
		return fmt.Errorf("market.binance.api_key is required")
	}
	if strings.TrimSpace(c.Market.Binance.SecretKey) == "" {
		return fmt.Errorf("market.binance.secret_key is required")
	}
	for _, b := range c.AI.EnabledBackends() {
		if strings.TrimSpace(b.APIKey) == "" {
			return fmt.Errorf("ai.backends[%s].api_key is required when enabled", b.Name)
		}
		switch strings.ToLower(b.Provider) {
		case "openai", "anthropic", "glm4":
		default:
			return fmt.Errorf("ai.backends[%s].provider %q is unknown", b.Name, b.Provider)
		}
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
		}
	}
	if c.AI.ConfidenceThreshold > 1 {
		return fmt.Errorf("ai.confidence_threshold must be within (0,1]")
	}
	if c.AI.MaxPositionSize > 1 {
		return fmt.Errorf("ai.max_position_size must be within (0,1]")
	}
	return nil
}
