package config

import (
	"strings"
	"time"
)

// Config is the main configuration carrier for tradepilot.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Trading TradingConfig `mapstructure:"trading"`
	AI      AIConfig      `mapstructure:"ai"`
	Market  MarketConfig  `mapstructure:"market"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Store   StoreConfig   `mapstructure:"store"`
	Server  ServerConfig  `mapstructure:"server"`
}

type AppConfig struct {
	Env             string `mapstructure:"env"`
	LogLevel        string `mapstructure:"log_level"`
	LogPath         string `mapstructure:"log_path"`
	AdvisoryLogPath string `mapstructure:"advisory_log_path"`
	AdvisoryDump    bool   `mapstructure:"advisory_dump"`
}

// TradingConfig lists the tracked instruments and capital assumptions.
type TradingConfig struct {
	Symbols         []string `mapstructure:"symbols"`
	TotalCapital    float64  `mapstructure:"total_capital"`
	DefaultLeverage int      `mapstructure:"default_leverage"`
}

// AIConfig carries the risk policy knobs and the advisory backend entries.
type AIConfig struct {
	ConfidenceThreshold     float64         `mapstructure:"confidence_threshold"`
	MaxPositionSize         float64         `mapstructure:"max_position_size"`
	DecisionIntervalSeconds int             `mapstructure:"decision_interval_seconds"`
	PollSeconds             int             `mapstructure:"poll_seconds"`
	ErrorBackoffSeconds     int             `mapstructure:"error_backoff_seconds"`
	ProfilesPath            string          `mapstructure:"profiles_path"`
	Backends                []BackendConfig `mapstructure:"backends"`
}

func (a AIConfig) DecisionInterval() time.Duration {
	return time.Duration(a.DecisionIntervalSeconds) * time.Second
}

func (a AIConfig) PollInterval() time.Duration {
	return time.Duration(a.PollSeconds) * time.Second
}

func (a AIConfig) ErrorBackoff() time.Duration {
	return time.Duration(a.ErrorBackoffSeconds) * time.Second
}

// BackendConfig describes one advisory backend entry.
// Provider selects the adapter: "openai" (also DeepSeek/Qwen compatible),
// "anthropic", "glm4".
type BackendConfig struct {
	Name           string            `mapstructure:"name"`
	Provider       string            `mapstructure:"provider"`
	Enabled        bool              `mapstructure:"enabled"`
	Model          string            `mapstructure:"model"`
	Endpoint       string            `mapstructure:"endpoint"`
	APIKey         string            `mapstructure:"api_key"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	MaxTokens      int               `mapstructure:"max_tokens"`
	Temperature    float64           `mapstructure:"temperature"`
	Headers        map[string]string `mapstructure:"headers"`
}

func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type MarketConfig struct {
	Binance BinanceConfig `mapstructure:"binance"`
	Kline   KlineConfig   `mapstructure:"kline"`
}

type BinanceConfig struct {
	APIKey      string      `mapstructure:"api_key"`
	SecretKey   string      `mapstructure:"secret_key"`
	RESTBaseURL string      `mapstructure:"rest_base_url"`
	Proxy       ProxyConfig `mapstructure:"proxy"`
}

type ProxyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	RESTURL string `mapstructure:"rest_url"`
}

type KlineConfig struct {
	Interval string `mapstructure:"interval"`
	Limit    int    `mapstructure:"limit"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`

	// Events selects which event kinds are pushed. Empty means the default
	// set (trade, error).
	Events []string `mapstructure:"events"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type StoreConfig struct {
	DecisionLogPath string `mapstructure:"decision_log_path"`
	TradeStorePath  string `mapstructure:"trade_store_path"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// EnabledBackends filters the backend list down to usable entries.
func (a AIConfig) EnabledBackends() []BackendConfig {
	out := make([]BackendConfig, 0, len(a.Backends))
	for _, b := range a.Backends {
		if !b.Enabled {
			continue
		}
		if strings.TrimSpace(b.Name) == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}
