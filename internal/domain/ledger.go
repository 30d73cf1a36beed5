// internal/domain/ledger.go
package domain

import (
	"context"
	"time"
)

// Drops is the XRP minor unit. 1 XRP = 1,000,000 drops.
type Drops int64

const DropsPerXRP Drops = 1_000_000

// Ledger is the boundary to the remote ledger network.
type Ledger interface {
	// ProvisionAccount creates and funds a new testnet account.
	// Any failure is reported as ErrProvisioning.
	ProvisionAccount(ctx context.Context) (*ProvisionedAccount, error)

	// GetBalance returns the validated balance of address. A missing
	// account and a transport failure are both ErrUnavailable.
	GetBalance(ctx context.Context, address string) (Drops, error)

	// SubmitPayment signs with seed and submits a payment exactly once.
	SubmitPayment(ctx context.Context, seed string, amount Drops, destination string) (*PaymentResult, error)

	// GetRecentTransactions lists settled payments touching address, newest first.
	GetRecentTransactions(ctx context.Context, address string, limit int) ([]TransactionSummary, error)
}

// PaymentResult is the settled outcome of a submitted payment.
type PaymentResult struct {
	Hash        string
	ResultCode  string
	LedgerIndex int64
	Success     bool
}

type TxDirection string

const (
	TxDirectionIncoming TxDirection = "incoming"
	TxDirectionOutgoing TxDirection = "outgoing"
)

// TransactionSummary is a single settled payment as seen from one account.
type TransactionSummary struct {
	Hash         string
	Direction    TxDirection
	Amount       Drops
	Counterparty string
	LedgerIndex  int64
	Timestamp    time.Time
}
