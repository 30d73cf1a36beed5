// internal/chains/xrpl/client.go
package xrpl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Client talks to a rippled JSON-RPC endpoint.
type Client struct {
	httpClient *http.Client
	rpcURL     string
	logger     *zap.Logger
}

func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rpcURL: rpcURL,
		logger: logger,
	}
}

// RPC request/response structures
type RPCRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type RPCResponse struct {
	Result json.RawMessage `json:"result"`
}

// RPCError is an error reported by the node inside the result object.
type RPCError struct {
	Code    string
	Number  int
	Message string
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("RPC error %s", e.Code)
	}
	return fmt.Sprintf("RPC error %s: %s", e.Code, e.Message)
}

// IsRPCError reports whether err is a node error with the given code.
func IsRPCError(err error, code string) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

type resultStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// doRPCRequest performs a JSON-RPC request
func (c *Client) doRPCRequest(ctx context.Context, method string, params interface{}, out interface{}) error {
	reqBody := RPCRequest{
		Method: method,
		Params: []interface{}{params},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("RPC %s returned HTTP %d", method, resp.StatusCode)
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var status resultStatus
	if err := json.Unmarshal(rpcResp.Result, &status); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	if status.Status == "error" || status.Error != "" {
		return &RPCError{Code: status.Error, Number: status.ErrorCode, Message: status.ErrorMessage}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// ============================================================================
// Methods
// ============================================================================

type AccountData struct {
	Account  string `json:"Account"`
	Balance  string `json:"Balance"`
	Sequence uint32 `json:"Sequence"`
}

type accountInfoResult struct {
	AccountData        AccountData `json:"account_data"`
	LedgerCurrentIndex uint32      `json:"ledger_current_index"`
	LedgerIndex        uint32      `json:"ledger_index"`
	Validated          bool        `json:"validated"`
}

// AccountInfo reads an account root at ledgerIndex ("validated" or "current").
func (c *Client) AccountInfo(ctx context.Context, address, ledgerIndex string) (*AccountData, error) {
	var res accountInfoResult
	err := c.doRPCRequest(ctx, "account_info", map[string]interface{}{
		"account":      address,
		"ledger_index": ledgerIndex,
		"strict":       true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res.AccountData, nil
}

// LedgerCurrent returns the index of the open ledger.
func (c *Client) LedgerCurrent(ctx context.Context) (uint32, error) {
	var res struct {
		LedgerCurrentIndex uint32 `json:"ledger_current_index"`
	}
	if err := c.doRPCRequest(ctx, "ledger_current", map[string]interface{}{}, &res); err != nil {
		return 0, err
	}
	return res.LedgerCurrentIndex, nil
}

// ValidatedLedgerIndex returns the index of the latest validated ledger.
func (c *Client) ValidatedLedgerIndex(ctx context.Context) (uint32, error) {
	var res struct {
		LedgerIndex uint32 `json:"ledger_index"`
	}
	err := c.doRPCRequest(ctx, "ledger", map[string]interface{}{
		"ledger_index": "validated",
	}, &res)
	if err != nil {
		return 0, err
	}
	return res.LedgerIndex, nil
}

// OpenLedgerFee returns the fee in drops needed to get into the open ledger.
func (c *Client) OpenLedgerFee(ctx context.Context) (int64, error) {
	var res struct {
		Drops struct {
			BaseFee       string `json:"base_fee"`
			OpenLedgerFee string `json:"open_ledger_fee"`
		} `json:"drops"`
	}
	if err := c.doRPCRequest(ctx, "fee", map[string]interface{}{}, &res); err != nil {
		return 0, err
	}

	base, _ := strconv.ParseInt(res.Drops.BaseFee, 10, 64)
	open, _ := strconv.ParseInt(res.Drops.OpenLedgerFee, 10, 64)
	if open > base {
		return open, nil
	}
	if base <= 0 {
		return 0, fmt.Errorf("fee response carried no usable fee")
	}
	return base, nil
}

type SubmitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultCode    int    `json:"engine_result_code"`
	EngineResultMessage string `json:"engine_result_message"`
	Accepted            bool   `json:"accepted"`
	TxJSON              struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

// Submit sends a signed transaction blob.
func (c *Client) Submit(ctx context.Context, blob string) (*SubmitResult, error) {
	var res SubmitResult
	if err := c.doRPCRequest(ctx, "submit", map[string]interface{}{"tx_blob": blob}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type TxResult struct {
	Hash        string `json:"hash"`
	LedgerIndex uint32 `json:"ledger_index"`
	Validated   bool   `json:"validated"`
	Meta        struct {
		TransactionResult string `json:"TransactionResult"`
	} `json:"meta"`
}

// Tx looks up a transaction by hash.
func (c *Client) Tx(ctx context.Context, hash string) (*TxResult, error) {
	var res TxResult
	err := c.doRPCRequest(ctx, "tx", map[string]interface{}{
		"transaction": hash,
		"binary":      false,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// AccountTxEntry is one element of an account_tx page. Amount is either a
// drops string or an issued-currency object, so it stays raw.
type AccountTxEntry struct {
	Validated bool `json:"validated"`
	Tx        struct {
		TransactionType string          `json:"TransactionType"`
		Account         string          `json:"Account"`
		Destination     string          `json:"Destination"`
		Amount          json.RawMessage `json:"Amount"`
		Hash            string          `json:"hash"`
		Date            int64           `json:"date"`
		LedgerIndex     uint32          `json:"ledger_index"`
	} `json:"tx"`
	Meta struct {
		TransactionResult string          `json:"TransactionResult"`
		DeliveredAmount   json.RawMessage `json:"delivered_amount"`
	} `json:"meta"`
}

// AccountTx returns up to limit transactions of address, newest first.
func (c *Client) AccountTx(ctx context.Context, address string, limit int) ([]AccountTxEntry, error) {
	var res struct {
		Transactions []AccountTxEntry `json:"transactions"`
	}
	err := c.doRPCRequest(ctx, "account_tx", map[string]interface{}{
		"account":          address,
		"ledger_index_min": -1,
		"ledger_index_max": -1,
		"limit":            limit,
		"forward":          false,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Transactions, nil
}
