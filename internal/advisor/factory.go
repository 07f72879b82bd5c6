package advisor

import (
	"fmt"
	"time"

	"tradepilot/internal/config"
	"tradepilot/internal/logger"
)

const glm4DefaultEndpoint = "https://open.bigmodel.cn/api/paas/v4"

// BuildRegistry constructs backends from config and registers the enabled
// ones. Order follows the config file, so the first enabled backend is the
// initial active one.
func BuildRegistry(cfgs []config.BackendConfig) (*Registry, error) {
	reg := NewRegistry()
	for _, bc := range cfgs {
		if !bc.Enabled {
			logger.Debugf("advisor: backend %s disabled, skipping", bc.Name)
			continue
		}
		b, err := buildBackend(bc)
		if err != nil {
			return nil, fmt.Errorf("build backend %s: %w", bc.Name, err)
		}
		reg.Register(bc.Name, b)
	}
	return reg, nil
}

func buildBackend(bc config.BackendConfig) (Backend, error) {
	timeout := time.Duration(bc.TimeoutSeconds) * time.Second
	switch bc.Provider {
	case "openai":
		return &OpenAIBackend{
			BackendName:  bc.Name,
			BaseURL:      bc.Endpoint,
			APIKey:       bc.APIKey,
			Model:        bc.Model,
			Timeout:      timeout,
			MaxTokens:    bc.MaxTokens,
			Temperature:  bc.Temperature,
			ExtraHeaders: bc.Headers,
		}, nil
	case "glm4":
		endpoint := bc.Endpoint
		if endpoint == "" {
			endpoint = glm4DefaultEndpoint
		}
		return &OpenAIBackend{
			BackendName:  bc.Name,
			BaseURL:      endpoint,
			APIKey:       bc.APIKey,
			Model:        bc.Model,
			Timeout:      timeout,
			MaxTokens:    bc.MaxTokens,
			Temperature:  bc.Temperature,
			ExtraHeaders: bc.Headers,
		}, nil
	case "anthropic":
		return &AnthropicBackend{
			BackendName:  bc.Name,
			BaseURL:      bc.Endpoint,
			APIKey:       bc.APIKey,
			Model:        bc.Model,
			Timeout:      timeout,
			MaxTokens:    bc.MaxTokens,
			Temperature:  bc.Temperature,
			ExtraHeaders: bc.Headers,
		}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", bc.Provider)
	}
}
