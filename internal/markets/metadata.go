// Package markets resolves market metadata from the Gamma API so the
// sizing policy can tell tradable markets from closed or unknown ones.
package markets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

// MetadataClient fetches market metadata from the Polymarket Gamma API.
type MetadataClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMetadataClient creates a new Gamma metadata client.
func NewMetadataClient(baseURL string, logger *zap.Logger) *MetadataClient {
	return &MetadataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Resolve fetches the market identified by a condition ID.
func (c *MetadataClient) Resolve(ctx context.Context, conditionID string) (*types.Market, error) {
	params := url.Values{}
	params.Set("condition_ids", conditionID)

	requestURL := fmt.Sprintf("%s/markets?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	c.logger.Debug("resolving-market", zap.String("condition-id", conditionID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.TransportError{Op: "resolve market", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.TransportError{Op: "read market response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &types.TransportError{
			Op:  "resolve market",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)),
		}
	}

	// Gamma returns a direct array even when filtered to one condition.
	var markets []types.Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("unmarshal market response: %w", err)
	}

	if len(markets) == 0 {
		return nil, fmt.Errorf("market not found for condition %s", conditionID)
	}

	return &markets[0], nil
}
