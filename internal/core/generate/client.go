package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"recipe-verifier/internal/infrastructure/config"
	"recipe-verifier/internal/pkg/common"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// chatRequest is the OpenRouter chat completion payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Client talks to the OpenRouter chat completion API.
type Client struct {
	http  *resty.Client
	model string
	max   int
}

// NewClient builds an OpenRouter client from configuration.
func NewClient(cfg config.OpenRouterConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	http := resty.New().
		SetBaseURL(openRouterBaseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http, model: cfg.Model, max: cfg.MaxTokens}
}

// ChatCompletion sends one system/user turn and returns the raw text of the
// first choice.
func (c *Client) ChatCompletion(ctx context.Context, system, user string, temperature float64) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Temperature: temperature,
		MaxTokens:   c.max,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		common.LogWarn("openrouter returned non-200",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()))
		return "", fmt.Errorf("openrouter returned status %d", resp.StatusCode())
	}
	if out.Error != nil {
		return "", fmt.Errorf("openrouter error %d: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openrouter response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}
