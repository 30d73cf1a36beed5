// internal/price/coingecko.go
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/domain"
)

// Client fetches XRP/USD history from a CoinGecko market_chart endpoint.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

func NewClient(url string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		url:    url,
		logger: logger,
	}
}

type marketChart struct {
	Prices [][]decimal.Decimal `json:"prices"`
}

// FetchHistory returns the series in chronological order.
func (c *Client) FetchHistory(ctx context.Context) ([]domain.PricePoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API returned HTTP %d", resp.StatusCode)
	}

	var chart marketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("failed to decode price history: %w", err)
	}

	points := make([]domain.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		if len(p) < 2 {
			continue
		}
		points = append(points, domain.PricePoint{
			Time:     time.UnixMilli(p[0].IntPart()).UTC(),
			PriceUSD: p[1],
		})
	}

	c.logger.Debug("price history fetched", zap.Int("points", len(points)))
	return points, nil
}
