package match

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"recipe-verifier/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Result is the best canonical name found for a free-form query.
type Result struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Client talks to the external nearest-neighbour name index over HTTP.
type Client struct {
	client *resty.Client
}

// NewClient creates a name index client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{client: client}
}

// BestMatch queries the index for the closest canonical name to query. A nil
// result with a nil error means no candidate reached the threshold. The call
// is stateless; retrying is the caller's concern.
func (c *Client) BestMatch(ctx context.Context, query string, threshold float64) (*Result, error) {
	req := map[string]interface{}{
		"query":     query,
		"threshold": threshold,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/match")

	if err != nil {
		return nil, fmt.Errorf("failed to query match index: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("match index returned error: %s", resp.String())
	}

	var result struct {
		Match *Result `json:"match"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse match index response: %w", err)
	}

	if result.Match == nil || result.Match.Score < threshold {
		return nil, nil
	}

	common.LogDebug("name index match",
		zap.String("query", query),
		zap.String("canonical", result.Match.Name),
		zap.Float64("score", result.Match.Score),
	)

	return result.Match, nil
}
