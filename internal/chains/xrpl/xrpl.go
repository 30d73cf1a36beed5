// internal/chains/xrpl/xrpl.go
package xrpl

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/domain"
)

const (
	// rippleEpoch is 2000-01-01T00:00:00Z in unix seconds.
	rippleEpoch = 946684800

	defaultFee          domain.Drops = 12
	defaultLedgerOffset uint32       = 20

	resultSuccess = "tesSUCCESS"
	resultExpired = "tefMAX_LEDGER"
)

type GatewayConfig struct {
	RPCURL         string
	FaucetURL      string
	SubmitTimeout  time.Duration
	FundingTimeout time.Duration
	PollInterval   time.Duration
	LedgerOffset   uint32
}

// Gateway implements domain.Ledger against the XRPL testnet.
type Gateway struct {
	client *Client
	faucet *FaucetClient
	cfg    GatewayConfig
	logger *zap.Logger
}

var _ domain.Ledger = (*Gateway)(nil)

func NewGateway(cfg GatewayConfig, logger *zap.Logger) *Gateway {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 90 * time.Second
	}
	if cfg.FundingTimeout <= 0 {
		cfg.FundingTimeout = 40 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.LedgerOffset == 0 {
		cfg.LedgerOffset = defaultLedgerOffset
	}

	return &Gateway{
		client: NewClient(cfg.RPCURL, logger),
		faucet: NewFaucetClient(cfg.FaucetURL, logger),
		cfg:    cfg,
		logger: logger,
	}
}

// ProvisionAccount generates an Ed25519 account, funds it from the faucet
// and waits until the account root is validated.
func (g *Gateway) ProvisionAccount(ctx context.Context) (*domain.ProvisionedAccount, error) {
	kp, seed, err := NewWallet(KeyTypeEd25519)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvisioning, err)
	}
	address := kp.Address()

	if _, err := g.faucet.Fund(ctx, address); err != nil {
		g.logger.Warn("faucet funding failed", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrProvisioning, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, g.cfg.FundingTimeout)
	defer cancel()

	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()

	for {
		balance, err := g.GetBalance(waitCtx, address)
		if err == nil && balance > 0 {
			g.logger.Info("account provisioned",
				zap.String("address", address),
				zap.Int64("balance_drops", int64(balance)),
			)
			return &domain.ProvisionedAccount{
				Address:   address,
				PublicKey: kp.PublicKeyHex(),
				Seed:      seed,
				Balance:   balance,
			}, nil
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("%w: account %s not funded in time", domain.ErrProvisioning, address)
		case <-ticker.C:
		}
	}
}

// GetBalance returns the validated balance; any failure is ErrUnavailable.
func (g *Gateway) GetBalance(ctx context.Context, address string) (domain.Drops, error) {
	address = strings.TrimSpace(address)
	if !IsValidAddress(address) {
		return 0, fmt.Errorf("%w: malformed address", domain.ErrUnavailable)
	}

	info, err := g.client.AccountInfo(ctx, address, "validated")
	if err != nil {
		if !IsRPCError(err, "actNotFound") {
			g.logger.Warn("account_info failed", zap.String("address", address), zap.Error(err))
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	balance, err := strconv.ParseInt(info.Balance, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad balance %q", domain.ErrUnavailable, info.Balance)
	}
	return domain.Drops(balance), nil
}

// SubmitPayment signs and submits one payment, then waits for it to be
// validated or to expire. It never resubmits.
func (g *Gateway) SubmitPayment(ctx context.Context, seed string, amount domain.Drops, destination string) (*domain.PaymentResult, error) {
	kp, err := DeriveKeypair(seed)
	if err != nil {
		return nil, err
	}
	destID, err := DecodeAddress(destination)
	if err != nil {
		return nil, err
	}
	sender := kp.Address()

	info, err := g.client.AccountInfo(ctx, sender, "current")
	if err != nil {
		return nil, fmt.Errorf("%w: %w: sender account: %v", domain.ErrNotSubmitted, domain.ErrUnavailable, err)
	}

	fee := defaultFee
	if f, err := g.client.OpenLedgerFee(ctx); err == nil {
		fee = domain.Drops(f)
	} else {
		g.logger.Warn("fee lookup failed, using default", zap.Error(err))
	}

	current, err := g.client.LedgerCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: ledger_current: %v", domain.ErrNotSubmitted, domain.ErrUnavailable, err)
	}

	payment := &Payment{
		Account:            kp.AccountID(),
		Destination:        destID,
		Amount:             amount,
		Fee:                fee,
		Sequence:           info.Sequence,
		LastLedgerSequence: current + g.cfg.LedgerOffset,
	}
	if err := payment.Sign(kp); err != nil {
		return nil, err
	}
	blob, err := payment.Blob()
	if err != nil {
		return nil, err
	}
	hash, err := payment.Hash()
	if err != nil {
		return nil, err
	}

	g.logger.Info("submitting payment",
		zap.String("from", sender),
		zap.String("to", destination),
		zap.Int64("amount_drops", int64(amount)),
		zap.Int64("fee_drops", int64(fee)),
		zap.Uint32("sequence", info.Sequence),
		zap.String("hash", hash),
	)

	sub, err := g.client.Submit(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: submit: %v", domain.ErrUnavailable, err)
	}
	if sub.TxJSON.Hash != "" {
		hash = sub.TxJSON.Hash
	}

	// tem/tef/tel results are final without entering a ledger.
	if isFinalRejection(sub.EngineResult) {
		g.logger.Warn("payment rejected on submit",
			zap.String("hash", hash),
			zap.String("engine_result", sub.EngineResult),
			zap.String("message", sub.EngineResultMessage),
		)
		return &domain.PaymentResult{Hash: hash, ResultCode: sub.EngineResult}, nil
	}

	return g.waitForValidation(ctx, hash, payment.LastLedgerSequence)
}

func isFinalRejection(code string) bool {
	for _, p := range []string{"tem", "tef", "tel"} {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

func (g *Gateway) waitForValidation(ctx context.Context, hash string, lastLedger uint32) (*domain.PaymentResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, g.cfg.SubmitTimeout)
	defer cancel()

	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()

	for {
		tx, err := g.client.Tx(waitCtx, hash)
		switch {
		case err == nil && tx.Validated:
			res := &domain.PaymentResult{
				Hash:        hash,
				ResultCode:  tx.Meta.TransactionResult,
				LedgerIndex: int64(tx.LedgerIndex),
				Success:     tx.Meta.TransactionResult == resultSuccess,
			}
			g.logger.Info("payment validated",
				zap.String("hash", hash),
				zap.String("result", res.ResultCode),
				zap.Uint32("ledger_index", tx.LedgerIndex),
			)
			return res, nil
		case err != nil && !IsRPCError(err, "txnNotFound"):
			g.logger.Warn("tx lookup failed", zap.String("hash", hash), zap.Error(err))
		}

		if validated, err := g.client.ValidatedLedgerIndex(waitCtx); err == nil && validated > lastLedger {
			g.logger.Warn("payment expired before validation",
				zap.String("hash", hash),
				zap.Uint32("last_ledger_sequence", lastLedger),
			)
			return &domain.PaymentResult{Hash: hash, ResultCode: resultExpired}, nil
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("%w: outcome of %s unknown: %v", domain.ErrUnavailable, hash, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// GetRecentTransactions returns settled XRP payments touching address.
func (g *Gateway) GetRecentTransactions(ctx context.Context, address string, limit int) ([]domain.TransactionSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	entries, err := g.client.AccountTx(ctx, address, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	out := make([]domain.TransactionSummary, 0, len(entries))
	for _, e := range entries {
		if !e.Validated || e.Tx.TransactionType != "Payment" || e.Meta.TransactionResult != resultSuccess {
			continue
		}

		amount, ok := nativeAmount(e.Meta.DeliveredAmount)
		if !ok {
			amount, ok = nativeAmount(e.Tx.Amount)
		}
		if !ok {
			continue
		}

		summary := domain.TransactionSummary{
			Hash:        e.Tx.Hash,
			Amount:      amount,
			LedgerIndex: int64(e.Tx.LedgerIndex),
			Timestamp:   time.Unix(e.Tx.Date+rippleEpoch, 0).UTC(),
		}
		if e.Tx.Account == address {
			summary.Direction = domain.TxDirectionOutgoing
			summary.Counterparty = e.Tx.Destination
		} else {
			summary.Direction = domain.TxDirectionIncoming
			summary.Counterparty = e.Tx.Account
		}
		out = append(out, summary)
	}
	return out, nil
}

// nativeAmount decodes an XRP amount (a drops string); issued currency
// objects are rejected.
func nativeAmount(raw json.RawMessage) (domain.Drops, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return domain.Drops(v), true
}
