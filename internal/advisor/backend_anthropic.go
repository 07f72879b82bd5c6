package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tradepilot/internal/exchange"
	"tradepilot/internal/logger"
	"tradepilot/internal/market"
)

const anthropicVersion = "2023-06-01"

// AnthropicBackend speaks the Anthropic messages API, which differs from
// the chat-completions shape: system prompt is a top-level field, auth uses
// x-api-key, and the reply text sits under content[0].text.
type AnthropicBackend struct {
	BackendName string
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64

	ExtraHeaders map[string]string

	client *http.Client
}

func (c *AnthropicBackend) Name() string { return c.BackendName }

func (c *AnthropicBackend) ProduceSignal(ctx context.Context, mkt market.Context, portfolio exchange.PortfolioSnapshot) (string, error) {
	userPrompt := BuildUserPrompt(mkt, portfolio)
	logger.LogAdvisoryRequest(c.BackendName, mkt.Symbol, systemPrompt, userPrompt)

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	body := map[string]any{
		"model":       c.Model,
		"max_tokens":  maxTokens,
		"temperature": c.Temperature,
		"system":      systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": userPrompt},
		},
	}
	payload, _ := json.Marshal(body)

	url := strings.TrimSpace(c.BaseURL)
	if url == "" {
		url = "https://api.anthropic.com"
	}
	url = strings.TrimRight(url, "/")
	if !strings.HasSuffix(url, "/v1/messages") {
		url += "/v1/messages"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	for k, v := range c.ExtraHeaders {
		req.Header.Set(k, v)
	}

	httpc := c.client
	if httpc == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var eresp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eresp)
		msg := strings.TrimSpace(eresp.Error.Message)
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("status=%d: %s", resp.StatusCode, msg)
	}

	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Content) == 0 {
		return "", fmt.Errorf("empty content")
	}
	logger.LogAdvisoryResponse(c.BackendName, mkt.Symbol, r.Content[0].Text)
	return r.Content[0].Text, nil
}
