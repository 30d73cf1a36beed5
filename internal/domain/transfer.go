// internal/domain/transfer.go
package domain

import "time"

type TransferStatus string

const (
	TransferStatusSubmitting TransferStatus = "submitting"
	TransferStatusSucceeded  TransferStatus = "succeeded"
	TransferStatusFailed     TransferStatus = "failed"
	TransferStatusUnknown    TransferStatus = "unknown"
)

// TransferLog is the audit row written around every payment submission.
type TransferLog struct {
	ID          string
	TelegramID  int64
	FromAddress string
	ToAddress   string
	Amount      Drops
	Status      TransferStatus
	ResultCode  string
	TxHash      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransferRequest carries everything needed to settle one transfer.
// Seed is plaintext and lives only for the duration of the call.
type TransferRequest struct {
	TelegramID  int64
	FromAddress string
	ToAddress   string
	Amount      Drops
	Seed        string
}
