package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tradepilot/internal/exchange"
	"tradepilot/internal/logger"
	"tradepilot/internal/market"
)

// OpenAIBackend speaks the /v1/chat/completions protocol shared by OpenAI,
// DeepSeek, Qwen and GLM-4 style services.
type OpenAIBackend struct {
	BackendName string
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	// retries for 429/5xx; 0 means the default of 2
	MaxRetries   int
	ExtraHeaders map[string]string

	client *http.Client
}

func (c *OpenAIBackend) Name() string { return c.BackendName }

func (c *OpenAIBackend) ProduceSignal(ctx context.Context, mkt market.Context, portfolio exchange.PortfolioSnapshot) (string, error) {
	userPrompt := BuildUserPrompt(mkt, portfolio)
	logger.LogAdvisoryRequest(c.BackendName, mkt.Symbol, systemPrompt, userPrompt)
	raw, err := c.call(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	logger.LogAdvisoryResponse(c.BackendName, mkt.Symbol, raw)
	return raw, nil
}

func (c *OpenAIBackend) call(ctx context.Context, system, user string) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	url := c.endpoint()

	messages := []map[string]string{}
	if system != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": user})

	body := map[string]any{
		"model":           c.Model,
		"messages":        messages,
		"temperature":     c.Temperature,
		"response_format": map[string]string{"type": "json_object"},
	}
	if c.MaxTokens > 0 {
		body["max_tokens"] = c.MaxTokens
	}
	payload, _ := json.Marshal(body)

	httpc := c.client
	if httpc == nil {
		httpc = &http.Client{Timeout: timeout}
	}

	logger.Debugf("advisor[%s]: POST %s model=%s key=%s", c.BackendName, url, c.Model, maskKey(c.APIKey))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}
		for k, v := range c.ExtraHeaders {
			req.Header.Set(k, v)
		}

		resp, err := httpc.Do(req)
		if err != nil {
			// dial failures and dropped connections are as transient as a 503
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			if attempt == maxRetries {
				break
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryWait("", attempt)):
			}
			continue
		}
		if resp.StatusCode/100 == 2 {
			var r struct {
				Choices []struct {
					Message struct {
						Content string `json:"content"`
					} `json:"message"`
				} `json:"choices"`
			}
			derr := json.NewDecoder(resp.Body).Decode(&r)
			resp.Body.Close()
			if derr != nil {
				return "", derr
			}
			if len(r.Choices) == 0 {
				return "", fmt.Errorf("empty choices")
			}
			return r.Choices[0].Message.Content, nil
		}

		var eresp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eresp)
		resp.Body.Close()
		msg := strings.TrimSpace(eresp.Error.Message)
		if msg == "" {
			msg = resp.Status
		}
		lastErr = fmt.Errorf("status=%d: %s", resp.StatusCode, msg)
		if !retryableStatus(resp.StatusCode) || attempt == maxRetries {
			break
		}
		wait := retryWait(resp.Header.Get("Retry-After"), attempt)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

// endpoint normalises the configured base URL so a value that already
// includes /chat/completions does not end up with a duplicated path.
func (c *OpenAIBackend) endpoint() string {
	url := strings.TrimSpace(c.BaseURL)
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryWait(retryAfter string, attempt int) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	// 0.8s, 1.6s, 3.2s ... capped at 8s
	wait := 800 * time.Millisecond << attempt
	if wait > 8*time.Second {
		wait = 8 * time.Second
	}
	return wait
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
