package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

// DataAPIClient fetches recent trades for a wallet from the Polymarket
// Data API. It backs the poll path and the startup history preseed.
type DataAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDataAPIClient creates a Data API client.
func NewDataAPIClient(baseURL string, logger *zap.Logger) *DataAPIClient {
	return &DataAPIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// RecentTrades returns up to limit of the wallet's most recent trades,
// newest first.
func (c *DataAPIClient) RecentTrades(ctx context.Context, wallet string, limit int) ([]types.DataAPITrade, error) {
	return c.TradesPage(ctx, wallet, limit, 0)
}

// TradesPage fetches one page of the wallet's trades, newest first,
// starting offset entries back from the most recent.
func (c *DataAPIClient) TradesPage(ctx context.Context, wallet string, limit, offset int) ([]types.DataAPITrade, error) {
	params := url.Values{}
	params.Set("user", wallet)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("takerOnly", "false")
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	reqURL := fmt.Sprintf("%s/trades?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.TransportError{Op: "fetch trades", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.TransportError{Op: "read trades response", Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &types.OrderError{Code: types.ErrRateLimited, Message: "rate limited by data api"}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &types.TransportError{
			Op:  "fetch trades",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var trades []types.DataAPITrade
	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, fmt.Errorf("parse trades response: %w", err)
	}

	c.logger.Debug("fetched-recent-trades",
		zap.String("wallet", wallet),
		zap.Int("count", len(trades)))

	return trades, nil
}
