// internal/chains/xrpl/faucet.go
package xrpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// FaucetClient asks the public testnet faucet to fund an address.
type FaucetClient struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

func NewFaucetClient(url string, logger *zap.Logger) *FaucetClient {
	return &FaucetClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		url:    url,
		logger: logger,
	}
}

type faucetRequest struct {
	Destination string `json:"destination"`
	UserAgent   string `json:"userAgent,omitempty"`
}

type FaucetResponse struct {
	Account struct {
		Address        string `json:"address"`
		ClassicAddress string `json:"classicAddress"`
	} `json:"account"`
	Amount float64 `json:"amount"`
}

// Fund requests test XRP for destination. It returns once the faucet has
// accepted the request, not when the funds are validated.
func (f *FaucetClient) Fund(ctx context.Context, destination string) (*FaucetResponse, error) {
	payload, err := json.Marshal(faucetRequest{
		Destination: destination,
		UserAgent:   "xrpl-wallet-bot",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal faucet request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create faucet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("faucet request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read faucet response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("faucet returned HTTP %d", resp.StatusCode)
	}

	var out FaucetResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode faucet response: %w", err)
	}

	f.logger.Info("faucet accepted funding request",
		zap.String("address", destination),
		zap.Float64("amount", out.Amount),
	)
	return &out, nil
}
